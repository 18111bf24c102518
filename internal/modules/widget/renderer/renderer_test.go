package renderer

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Adbay/widget-weather/internal/modules/widget/observation"
	"github.com/Adbay/widget-weather/internal/modules/widget/preferences"
	"github.com/Adbay/widget-weather/internal/modules/widget/surface"
	"github.com/Adbay/widget-weather/internal/modules/widget/types"
)

// apiServer fakes api.weather.gov, counting requests.
type apiServer struct {
	srv   *httptest.Server
	calls atomic.Int32
	path  atomic.Value
}

func newAPIServer(t *testing.T, status int, body string) *apiServer {
	t.Helper()
	a := &apiServer{}
	a.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.calls.Add(1)
		a.path.Store(r.URL.Path)
		w.Header().Set("Content-Type", "application/geo+json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(a.srv.Close)
	return a
}

func (a *apiServer) client() *observation.Client {
	return observation.NewClient(a.srv.URL, "widget-weather-test", 5*time.Second)
}

type fakeFetcher struct {
	obs   *types.Observation
	err   error
	calls int
}

func (f *fakeFetcher) FetchLatest(_ context.Context, _ string) (*types.Observation, error) {
	f.calls++
	return f.obs, f.err
}

func ptr(v float64) *float64 { return &v }

func TestRun_rendersObservation(t *testing.T) {
	api := newAPIServer(t, http.StatusOK,
		`{"properties":{"temperature":{"value":21.1},"textDescription":"Clear"}}`)

	var out surface.Buffers
	w := New(preferences.Static{types.StationKey: "KDCA"}, api.client(), out.Surfaces(), nil)

	state, err := w.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state != types.StateRendered {
		t.Errorf("state = %v; want rendered", state)
	}
	if got := out.Temperature.Text(); got != "70°" {
		t.Errorf("temperature = %q; want 70°", got)
	}
	if got := out.Status.Text(); got != "Clear" {
		t.Errorf("status = %q; want Clear", got)
	}
	if got := out.Message.Text(); got != "" {
		t.Errorf("message = %q; want empty", got)
	}
	if api.calls.Load() != 1 {
		t.Errorf("requests = %d; want 1", api.calls.Load())
	}
	if p, _ := api.path.Load().(string); p != "/stations/KDCA/observations/latest" {
		t.Errorf("path = %q", p)
	}
}

func TestRun_configError(t *testing.T) {
	api := newAPIServer(t, http.StatusOK, `{}`)

	var out surface.Buffers
	loader := preferences.LoaderFunc(func(context.Context) (types.Preferences, error) {
		return nil, errors.New("host did not provide preferences")
	})
	w := New(loader, api.client(), out.Surfaces(), nil)

	state, err := w.Run(context.Background())
	if !errors.Is(err, ErrConfigLoad) {
		t.Fatalf("Run err = %v; want ErrConfigLoad", err)
	}
	if state != types.StateErrorDisplayed {
		t.Errorf("state = %v; want error", state)
	}
	if got := out.Message.Text(); got != "Error loading preferences" {
		t.Errorf("message = %q; want %q", got, "Error loading preferences")
	}
	if out.Temperature.Text() != "" || out.Status.Text() != "" {
		t.Errorf("labels = %q / %q; want both blank on config error", out.Temperature.Text(), out.Status.Text())
	}
	if api.calls.Load() != 0 {
		t.Errorf("requests = %d; want 0", api.calls.Load())
	}
}

func TestRun_missingStation(t *testing.T) {
	for name, prefs := range map[string]preferences.Static{
		"unset": {},
		"blank": {types.StationKey: "   "},
	} {
		t.Run(name, func(t *testing.T) {
			api := newAPIServer(t, http.StatusOK, `{}`)
			var out surface.Buffers
			w := New(prefs, api.client(), out.Surfaces(), nil)

			_, err := w.Run(context.Background())
			if !errors.Is(err, ErrMissingStation) || !errors.Is(err, ErrConfigLoad) {
				t.Fatalf("Run err = %v; want ErrConfigLoad wrapping ErrMissingStation", err)
			}
			if out.Message.Text() != MsgConfigError {
				t.Errorf("message = %q; want %q", out.Message.Text(), MsgConfigError)
			}
			if api.calls.Load() != 0 {
				t.Errorf("requests = %d; want 0", api.calls.Load())
			}
		})
	}
}

func TestRun_networkFailure(t *testing.T) {
	api := newAPIServer(t, http.StatusInternalServerError, `{"title":"Unexpected Problem","status":500}`)

	var out surface.Buffers
	w := New(preferences.Static{types.StationKey: "KDCA"}, api.client(), out.Surfaces(), nil)

	state, err := w.Run(context.Background())
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("Run err = %v; want ErrFetch", err)
	}
	var apiErr *observation.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("Run err = %v; want wrapped *APIError with 500", err)
	}
	if state != types.StateErrorDisplayed {
		t.Errorf("state = %v; want error", state)
	}
	if got := out.Message.Text(); got != MsgFetchError {
		t.Errorf("message = %q; want %q", got, MsgFetchError)
	}
	if out.Temperature.Text() != "" || out.Status.Text() != "" {
		t.Errorf("labels = %q / %q; want both blank on fetch failure", out.Temperature.Text(), out.Status.Text())
	}
}

func TestRun_malformedResponse(t *testing.T) {
	api := newAPIServer(t, http.StatusOK, `{"type":"Feature"}`)

	var out surface.Buffers
	w := New(preferences.Static{types.StationKey: "KDCA"}, api.client(), out.Surfaces(), nil)

	if _, err := w.Run(context.Background()); !errors.Is(err, observation.ErrMalformedResponse) {
		t.Fatalf("Run err = %v; want ErrMalformedResponse", err)
	}
	if out.Message.Text() != MsgFetchError {
		t.Errorf("message = %q; want %q", out.Message.Text(), MsgFetchError)
	}
}

func TestRun_nullTemperature(t *testing.T) {
	api := newAPIServer(t, http.StatusOK,
		`{"properties":{"temperature":{"unitCode":"wmoUnit:degC","value":null},"textDescription":"Cloudy"}}`)

	var out surface.Buffers
	w := New(preferences.Static{types.StationKey: "KDCA"}, api.client(), out.Surfaces(), nil)

	state, err := w.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state != types.StateRendered {
		t.Errorf("state = %v; want rendered", state)
	}
	if got := out.Temperature.Text(); got != TemperaturePlaceholder {
		t.Errorf("temperature = %q; want placeholder %q", got, TemperaturePlaceholder)
	}
	if got := out.Temperature.Text(); got == "NaN°" {
		t.Errorf("temperature rendered NaN")
	}
	if got := out.Status.Text(); got != "Cloudy" {
		t.Errorf("status = %q; want Cloudy", got)
	}
}

func TestRun_nonFiniteTemperature(t *testing.T) {
	var out surface.Buffers
	f := &fakeFetcher{obs: &types.Observation{Station: "KDCA", TemperatureC: ptr(math.Inf(1)), Description: "Odd"}}
	w := New(preferences.Static{types.StationKey: "KDCA"}, f, out.Surfaces(), nil)

	if _, err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := out.Temperature.Text(); got != TemperaturePlaceholder {
		t.Errorf("temperature = %q; want placeholder", got)
	}
}

func TestRun_onlyOnce(t *testing.T) {
	f := &fakeFetcher{obs: &types.Observation{Station: "KDCA", TemperatureC: ptr(0), Description: "Snow"}}
	var out surface.Buffers
	w := New(preferences.Static{types.StationKey: "KDCA"}, f, out.Surfaces(), nil)

	if _, err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	state, err := w.Run(context.Background())
	if !errors.Is(err, ErrAlreadyRun) {
		t.Fatalf("second Run err = %v; want ErrAlreadyRun", err)
	}
	if state != types.StateRendered {
		t.Errorf("state after second Run = %v; want rendered", state)
	}
	if f.calls != 1 {
		t.Errorf("fetches = %d; want 1", f.calls)
	}
}

func TestOnConfigReady_idempotent(t *testing.T) {
	api := newAPIServer(t, http.StatusOK,
		`{"properties":{"temperature":{"value":21.1},"textDescription":"Clear"}}`)

	var out surface.Buffers
	w := New(nil, api.client(), out.Surfaces(), nil)
	prefs := types.Preferences{types.StationKey: "KDCA"}

	for i := 0; i < 2; i++ {
		if err := w.OnConfigReady(context.Background(), prefs); err != nil {
			t.Fatalf("OnConfigReady #%d: %v", i+1, err)
		}
		if got := out.Temperature.Text(); got != "70°" {
			t.Errorf("call %d: temperature = %q; want 70°", i+1, got)
		}
		if got := out.Status.Text(); got != "Clear" {
			t.Errorf("call %d: status = %q; want Clear", i+1, got)
		}
	}
	if api.calls.Load() != 2 {
		t.Errorf("requests = %d; want 2", api.calls.Load())
	}
}

func TestFailureAfterSuccess_blanksLabels(t *testing.T) {
	f := &fakeFetcher{obs: &types.Observation{TemperatureC: ptr(21.1), Description: "Clear"}}
	var out surface.Buffers
	w := New(nil, f, out.Surfaces(), nil)
	prefs := types.Preferences{types.StationKey: "KDCA"}

	if err := w.OnConfigReady(context.Background(), prefs); err != nil {
		t.Fatalf("OnConfigReady: %v", err)
	}

	f.obs, f.err = nil, errors.New("HTTP 500")
	if err := w.OnConfigReady(context.Background(), prefs); !errors.Is(err, ErrFetch) {
		t.Fatalf("OnConfigReady err = %v; want ErrFetch", err)
	}
	if out.Temperature.Text() != "" || out.Status.Text() != "" || out.Message.Text() != MsgFetchError {
		t.Errorf("after fetch failure = %q / %q / %q; want blank labels and %q",
			out.Temperature.Text(), out.Status.Text(), out.Message.Text(), MsgFetchError)
	}

	f.obs, f.err = &types.Observation{TemperatureC: ptr(0), Description: "Fog"}, nil
	if err := w.OnConfigReady(context.Background(), prefs); err != nil {
		t.Fatalf("OnConfigReady: %v", err)
	}
	w.OnConfigError()
	if out.Temperature.Text() != "" || out.Status.Text() != "" || out.Message.Text() != MsgConfigError {
		t.Errorf("after config error = %q / %q / %q; want blank labels and %q",
			out.Temperature.Text(), out.Status.Text(), out.Message.Text(), MsgConfigError)
	}
}

func TestOnConfigReady_stationPassedVerbatim(t *testing.T) {
	var got string
	f := fetchFunc(func(_ context.Context, station string) (*types.Observation, error) {
		got = station
		return &types.Observation{Station: station}, nil
	})
	w := New(nil, f, surface.Surfaces{}, nil)

	if err := w.OnConfigReady(context.Background(), types.Preferences{types.StationKey: "kdca "}); err != nil {
		t.Fatalf("OnConfigReady: %v", err)
	}
	if got != "kdca " {
		t.Errorf("station = %q; want %q", got, "kdca ")
	}
}

type fetchFunc func(ctx context.Context, station string) (*types.Observation, error)

func (f fetchFunc) FetchLatest(ctx context.Context, station string) (*types.Observation, error) {
	return f(ctx, station)
}

func TestBind_emitterDrivesWidget(t *testing.T) {
	f := &fakeFetcher{obs: &types.Observation{Station: "KDCA", TemperatureC: ptr(100), Description: "Hot"}}
	var out surface.Buffers
	w := New(nil, f, out.Surfaces(), nil)

	e := preferences.NewEmitter(preferences.Static{types.StationKey: "KDCA"}, nil)
	if err := w.Bind(context.Background(), e); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	e.Init(context.Background())
	select {
	case <-e.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("emitter did not finish")
	}

	if out.Temperature.Text() != "212°" || out.Status.Text() != "Hot" {
		t.Errorf("surfaces = %q / %q; want 212° / Hot", out.Temperature.Text(), out.Status.Text())
	}
	if w.State() != types.StateRendered {
		t.Errorf("state = %v; want rendered", w.State())
	}
	if err := w.Bind(context.Background(), e); !errors.Is(err, ErrAlreadyRun) {
		t.Errorf("second Bind err = %v; want ErrAlreadyRun", err)
	}
}

func TestBind_configError(t *testing.T) {
	f := &fakeFetcher{}
	var out surface.Buffers
	w := New(nil, f, out.Surfaces(), nil)

	e := preferences.NewEmitter(preferences.LoaderFunc(func(context.Context) (types.Preferences, error) {
		return nil, errors.New("no host config")
	}), nil)
	if err := w.Bind(context.Background(), e); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	e.Init(context.Background())
	<-e.Done()

	if out.Message.Text() != MsgConfigError {
		t.Errorf("message = %q; want %q", out.Message.Text(), MsgConfigError)
	}
	if f.calls != 0 {
		t.Errorf("fetches = %d; want 0", f.calls)
	}
}

func TestNew_nilSurfacesDiscard(t *testing.T) {
	f := &fakeFetcher{obs: &types.Observation{Station: "KDCA", TemperatureC: ptr(1)}}
	w := New(preferences.Static{types.StationKey: "KDCA"}, f, surface.Surfaces{}, nil)

	if _, err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run with nil surfaces: %v", err)
	}
}
