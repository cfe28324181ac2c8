package handlers

import (
	"net/http"
	"time"

	"github.com/xtding233/potential-simulator/internal/catalog"
)

type healthResponse struct {
	Status    string    `json:"status"`
	Catalog   string    `json:"catalog"`
	Timestamp time.Time `json:"timestamp"`
}

// Health answers liveness probes. The process stays up without a catalog, so
// a missing catalog degrades the status instead of failing the probe.
func Health(holder *catalog.Holder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "healthy", Catalog: "loaded", Timestamp: time.Now().UTC()}
		if !holder.Ready() {
			resp.Status = "degraded"
			resp.Catalog = "unavailable"
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
