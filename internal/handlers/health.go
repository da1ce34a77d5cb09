package handlers

import (
	"net/http"
	"time"

	applog "catering/internal/log"
)

type healthResponse struct {
	Status   string    `json:"status"`
	Database string    `json:"database,omitempty"`
	Time     time.Time `json:"time"`
}

// Health is a simple readiness handler for load balancers and orchestrators. When a
// database is configured it is pinged and a failure reports the service as degraded.
func Health(w http.ResponseWriter, r *http.Request) {
	applog.Debug(r.Context(), "health check requested", "method", r.Method)
	resp := healthResponse{
		Status: "ok",
		Time:   time.Now().UTC(),
	}
	status := http.StatusOK

	if database != nil {
		resp.Database = "ok"
		sqlDB, err := database.DB()
		if err == nil {
			err = sqlDB.PingContext(r.Context())
		}
		if err != nil {
			applog.Warn(r.Context(), "database ping failed", "error", err)
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, resp)
}
