package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adbay/widget-weather/internal/config"
	"github.com/Adbay/widget-weather/internal/db"
	"github.com/Adbay/widget-weather/internal/httpapi"
	"github.com/Adbay/widget-weather/internal/migrate"
	"github.com/Adbay/widget-weather/internal/modules/widget"
	"github.com/Adbay/widget-weather/internal/modules/widget/surface"
	"github.com/Adbay/widget-weather/internal/modules/widget/views"
	"github.com/Adbay/widget-weather/internal/mqtt"
)

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"sqliteDriver", cfg.SQLiteDriver,
		"sqlitePath", cfg.SQLitePath,
		"sqliteMaxOpenConns", cfg.SQLiteMaxOpenConns,
		"sqliteMaxIdleConns", cfg.SQLiteMaxIdleConns,
		"sqliteConnMaxLifetime", cfg.SQLiteConnMaxLifetime,
		"sqliteLogStatements", cfg.SQLiteLogStatements,
		"weatherBaseURL", cfg.WeatherBaseURL,
		"weatherTimeout", cfg.WeatherTimeout,
		"defaultStation", cfg.DefaultStation,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
	)
	dbConn, err := db.Open(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		closeErr := db.Close(dbConn)
		if closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	if err := migrate.Run(ctx, dbConn); err != nil {
		return err
	}
	slog.Info("database ready")

	if err := widget.SeedDefaultStation(ctx, dbConn, cfg.DefaultStation, slog.Default()); err != nil {
		return err
	}

	if err := views.LoadTemplates(); err != nil {
		return err
	}

	var (
		mirrorPub  surface.Publisher
		publisher  *mqtt.Publisher
		mqttStatus httpapi.ConnectionStatus
	)
	if cfg.MQTTEnabled() {
		publisher = mqtt.NewPublisher(cfg, slog.Default())
		// Short timeout so a missing broker does not block startup.
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err = publisher.Connect(connectCtx)
		connectCancel()
		if err != nil {
			slog.Warn("mqtt connection failed (continuing without mirror)", "error", err)
		}
		// Publishes fail fast until the client reconnects.
		mirrorPub = publisher
		mqttStatus = publisher
	}

	mux := httpapi.NewMux(dbConn, mqttStatus)
	widget.RegisterFeature(mux, dbConn, cfg, mirrorPub, slog.Default())

	srv := httpapi.NewServer(cfg, mux)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if publisher != nil {
			publisher.Disconnect()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if publisher != nil {
		slog.Info("mqtt disconnecting")
		publisher.Disconnect()
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
