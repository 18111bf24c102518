package httpapi

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/Adbay/widget-weather/internal/utils"
)

// ConnectionStatus is the part of the MQTT publisher the health check reads.
type ConnectionStatus interface {
	IsConnected() bool
}

type healthResponse struct {
	Status string `json:"status"`
	MQTT   string `json:"mqtt"`
}

type healthchecker struct {
	db   *sql.DB
	mqtt ConnectionStatus
}

// handleHealthz fails only on the database. The MQTT mirror is optional, so
// its state is reported but never turns the check red.
func (h *healthchecker) handleHealthz(w http.ResponseWriter, r *http.Request) {
	var ok int
	if err := h.db.QueryRowContext(r.Context(), `SELECT 1`).Scan(&ok); err != nil {
		slog.Error("failed to check database connectivity", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to check database connectivity")
		return
	}
	utils.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", MQTT: h.mqttState()})
}

func (h *healthchecker) mqttState() string {
	switch {
	case h.mqtt == nil:
		return "disabled"
	case h.mqtt.IsConnected():
		return "connected"
	default:
		return "disconnected"
	}
}

func registerHealthcheck(mux *http.ServeMux, db *sql.DB, mqtt ConnectionStatus) {
	h := &healthchecker{db: db, mqtt: mqtt}
	mux.HandleFunc("GET /healthz", h.handleHealthz)
}
