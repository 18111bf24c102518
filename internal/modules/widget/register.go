package widget

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Adbay/widget-weather/internal/config"
	"github.com/Adbay/widget-weather/internal/modules/widget/controller"
	"github.com/Adbay/widget-weather/internal/modules/widget/observation"
	"github.com/Adbay/widget-weather/internal/modules/widget/preferences"
	"github.com/Adbay/widget-weather/internal/modules/widget/surface"
	"github.com/Adbay/widget-weather/internal/modules/widget/types"
)

// RegisterFeature mounts the widget routes. With a non-nil pub every page
// load is mirrored under cfg.MQTTTopic.
func RegisterFeature(mux *http.ServeMux, db *sql.DB, cfg config.Config, pub surface.Publisher, logger *slog.Logger) {
	var mirror controller.Mirror
	if pub != nil {
		mirror = surface.NewPublishingMirror(pub, cfg.MQTTTopic, logger)
	}
	preferencesRepository := preferences.NewRepository(db)
	observationClient := observation.NewClient(cfg.WeatherBaseURL, cfg.WeatherUserAgent, cfg.WeatherTimeout)
	widgetController := controller.NewWidgetController(preferencesRepository, observationClient, mirror, cfg.WeatherTimeout, logger)
	widgetController.RegisterRoutes(mux)
}

// SeedDefaultStation stores station as the Station preference unless one is
// already set. A blank station is a no-op.
func SeedDefaultStation(ctx context.Context, db *sql.DB, station string, logger *slog.Logger) error {
	station = strings.TrimSpace(station)
	if station == "" {
		return nil
	}
	seeded, err := preferences.NewRepository(db).SetDefault(ctx, types.StationKey, station)
	if err != nil {
		return err
	}
	if seeded {
		logger.Info("seeded default station", "station", station)
	}
	return nil
}
