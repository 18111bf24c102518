package controller

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/Adbay/widget-weather/internal/modules/widget/preferences"
	"github.com/Adbay/widget-weather/internal/modules/widget/renderer"
	"github.com/Adbay/widget-weather/internal/modules/widget/surface"
	"github.com/Adbay/widget-weather/internal/modules/widget/types"
	"github.com/Adbay/widget-weather/internal/modules/widget/views"
)

// runPageLoad performs one widget lifecycle against fresh surfaces: the
// preferences emitter is bound to a new widget, initialised, and awaited.
func (c *widgetControllerImpl) runPageLoad(r *http.Request) *views.WidgetData {
	id := uuid.NewString()
	logger := c.logger.With("page_load", id, "request_id", r.Header.Get("X-Request-ID"))

	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()
	mirrorCtx, mirrorCancel := context.WithTimeout(r.Context(), c.timeout+mirrorGrace)
	defer mirrorCancel()

	// Written only on the emitter goroutine; read after Done.
	var station string
	loader := preferences.LoaderFunc(func(ctx context.Context) (types.Preferences, error) {
		prefs, err := c.repository.Load(ctx)
		if err == nil {
			station = prefs.Station()
		}
		return prefs, err
	})

	var bufs surface.Buffers
	out := bufs.Surfaces()
	if c.mirror != nil {
		out = surface.Mirror(out, c.mirror.Surfaces(mirrorCtx))
	}
	widget := renderer.New(loader, c.fetcher, out, logger)
	emitter := preferences.NewEmitter(loader, logger)
	if err := widget.Bind(ctx, emitter); err != nil {
		// A fresh widget and emitter cannot refuse binding.
		logger.Error("widget bind failed", "error", err)
		widget.OnConfigError()
	} else {
		emitter.Init(ctx)
		<-emitter.Done()
	}

	state := widget.State()
	if !state.Terminal() {
		logger.Warn("page load ended before the widget settled", "state", state.String())
	}
	logger.Info("page load finished", "station", station, "state", state.String())

	snap := surface.Snapshot{
		State:       state.String(),
		Temperature: bufs.Temperature.Text(),
		Status:      bufs.Status.Text(),
		Message:     bufs.Message.Text(),
	}
	if c.mirror != nil {
		c.mirror.Snapshot(mirrorCtx, snap)
	}

	return &views.WidgetData{
		PageLoadID:  id,
		Station:     station,
		State:       snap.State,
		Temperature: snap.Temperature,
		Status:      snap.Status,
		Message:     snap.Message,
	}
}
