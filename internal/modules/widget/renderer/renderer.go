// Package renderer runs the widget for one page load: load preferences,
// fetch the station's latest observation, write it to the surfaces.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Adbay/widget-weather/internal/modules/widget/observation"
	"github.com/Adbay/widget-weather/internal/modules/widget/preferences"
	"github.com/Adbay/widget-weather/internal/modules/widget/surface"
	"github.com/Adbay/widget-weather/internal/modules/widget/types"
	"github.com/Adbay/widget-weather/internal/modules/widget/units"
)

// Texts written to the surfaces outside of a normal render.
const (
	MsgConfigError         = "Error loading preferences"
	MsgFetchError          = "Error loading weather"
	TemperaturePlaceholder = "—"
)

var (
	ErrConfigLoad     = errors.New("config load failed")
	ErrMissingStation = errors.New("station preference is not set")
	ErrFetch          = errors.New("observation fetch failed")
	ErrAlreadyRun     = errors.New("widget already ran")
)

type discard struct{}

func (discard) SetText(string) {}

// Widget is single-use: Run (or Bind) may start it once. OnConfigReady and
// OnConfigError may be called again and simply overwrite the surfaces.
type Widget struct {
	loader   preferences.Loader
	fetcher  observation.Fetcher
	surfaces surface.Surfaces
	logger   *slog.Logger

	mu      sync.Mutex
	state   types.State
	started bool
}

// New wires a widget. Nil surfaces are replaced by sinks that drop writes.
func New(loader preferences.Loader, fetcher observation.Fetcher, surfaces surface.Surfaces, logger *slog.Logger) *Widget {
	if logger == nil {
		logger = slog.Default()
	}
	if surfaces.Temperature == nil {
		surfaces.Temperature = discard{}
	}
	if surfaces.Status == nil {
		surfaces.Status = discard{}
	}
	if surfaces.Message == nil {
		surfaces.Message = discard{}
	}
	return &Widget{
		loader:   loader,
		fetcher:  fetcher,
		surfaces: surfaces,
		logger:   logger,
		state:    types.StateUninitialized,
	}
}

func (w *Widget) State() types.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Widget) setState(s types.State) {
	w.mu.Lock()
	prev := w.state
	w.state = s
	w.mu.Unlock()
	if prev != s {
		w.logger.Debug("widget state", "from", prev.String(), "to", s.String())
	}
}

func (w *Widget) start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return ErrAlreadyRun
	}
	w.started = true
	return nil
}

// Run loads preferences and, only if that succeeded, fetches and renders.
// Every failure has already been written to the message surface when Run
// returns; the error is for logging.
func (w *Widget) Run(ctx context.Context) (types.State, error) {
	if err := w.start(); err != nil {
		return w.State(), err
	}

	prefs, err := w.loader.Load(ctx)
	if err != nil {
		w.OnConfigError()
		return w.State(), fmt.Errorf("%w: %w", ErrConfigLoad, err)
	}

	err = w.OnConfigReady(ctx, prefs)
	return w.State(), err
}

// Bind subscribes the widget to e's lifecycle events. The caller then
// triggers loading with e.Init.
func (w *Widget) Bind(ctx context.Context, e *preferences.Emitter) error {
	if err := w.start(); err != nil {
		return err
	}
	if err := e.On(preferences.EventInitialized, func(prefs types.Preferences) {
		if err := w.OnConfigReady(ctx, prefs); err != nil {
			w.logger.Warn("widget render failed", "error", err)
		}
	}); err != nil {
		return err
	}
	return e.On(preferences.EventError, func(types.Preferences) {
		w.OnConfigError()
	})
}

// OnConfigReady fetches the latest observation for prefs' station and
// renders it. A blank station is treated as a configuration failure and no
// request is made; a non-blank one is passed on unchanged.
func (w *Widget) OnConfigReady(ctx context.Context, prefs types.Preferences) error {
	station := prefs.Station()
	if strings.TrimSpace(station) == "" {
		w.OnConfigError()
		return fmt.Errorf("%w: %w", ErrConfigLoad, ErrMissingStation)
	}

	w.setState(types.StateFetching)
	obs, err := w.fetcher.FetchLatest(ctx, station)
	if err != nil {
		w.logger.Warn("observation fetch failed", "station", station, "error", err)
		w.showError(MsgFetchError)
		return fmt.Errorf("%w: %w", ErrFetch, err)
	}

	w.render(obs)
	w.setState(types.StateRendered)
	return nil
}

// OnConfigError shows the fixed preferences error. Nothing is fetched.
func (w *Widget) OnConfigError() {
	w.showError(MsgConfigError)
}

// showError blanks both labels and writes msg. After an error no label
// holds a reading from an earlier render.
func (w *Widget) showError(msg string) {
	w.surfaces.Temperature.SetText("")
	w.surfaces.Status.SetText("")
	w.surfaces.Message.SetText(msg)
	w.setState(types.StateErrorDisplayed)
}

func (w *Widget) render(obs *types.Observation) {
	temp := TemperaturePlaceholder
	if obs.TemperatureC != nil {
		f, err := units.CelsiusToFahrenheit(*obs.TemperatureC)
		if err != nil {
			w.logger.Warn("temperature not renderable", "station", obs.Station, "error", err)
		} else {
			temp = units.FormatFahrenheit(f)
		}
	} else {
		w.logger.Info("station reported no temperature", "station", obs.Station)
	}

	w.surfaces.Temperature.SetText(temp)
	w.surfaces.Status.SetText(obs.Description)
	w.surfaces.Message.SetText("")
}
