package httpapi

import (
	"database/sql"
	"net/http"
)

// NewMux registers the infrastructure routes. mqtt may be nil when the
// mirror is disabled.
func NewMux(db *sql.DB, mqtt ConnectionStatus) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db, mqtt)
	return mux
}
