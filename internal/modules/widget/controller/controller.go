package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adbay/widget-weather/internal/modules/widget/observation"
	"github.com/Adbay/widget-weather/internal/modules/widget/preferences"
	"github.com/Adbay/widget-weather/internal/modules/widget/surface"
)

const (
	defaultPageLoadTimeout = 10 * time.Second
	// mirrorGrace is how long mirror publishes may outlive the fetch deadline,
	// so a load that timed out still reaches the mirror.
	mirrorGrace = time.Second
)

// Mirror receives a copy of every page load: surface writes as they happen
// and the final snapshot. surface.PublishingMirror implements it.
type Mirror interface {
	Surfaces(ctx context.Context) surface.Surfaces
	Snapshot(ctx context.Context, s surface.Snapshot)
}

type WidgetController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type widgetControllerImpl struct {
	repository preferences.Repository
	fetcher    observation.Fetcher
	mirror     Mirror
	timeout    time.Duration
	logger     *slog.Logger
}

// NewWidgetController builds the HTTP host for the widget. Every page load
// is copied to mirror; nil mirrors nothing. timeout bounds the fetch of one
// page load and defaults to 10s.
func NewWidgetController(repository preferences.Repository, fetcher observation.Fetcher, mirror Mirror, timeout time.Duration, logger *slog.Logger) WidgetController {
	if timeout <= 0 {
		timeout = defaultPageLoadTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &widgetControllerImpl{
		repository: repository,
		fetcher:    fetcher,
		mirror:     mirror,
		timeout:    timeout,
		logger:     logger,
	}
}

func (c *widgetControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", c.handlePage)
	mux.HandleFunc("GET /partials/widget", c.handleWidgetPartial)
	mux.HandleFunc("GET /api/v1/widget", c.handleWidget)
	mux.HandleFunc("GET /api/v1/preferences", c.handleListPreferences)
	mux.HandleFunc("PUT /api/v1/preferences/{name}", c.handleSetPreference)
	mux.HandleFunc("DELETE /api/v1/preferences/{name}", c.handleDeletePreference)
}
