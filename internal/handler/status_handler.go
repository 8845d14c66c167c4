package handler

import (
	"net/http"
	"time"

	"roleready/internal/pkg/resp"
)

const serviceName = "RoleReady API"

// HandleHealth answers liveness probes.
func HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": serviceName,
		}
		resp.RespondSuccess(w, r, data)
	}
}

// HandleStatus reports the running environment and collaboration load.
func HandleStatus(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"status":      "ok",
			"service":     serviceName,
			"environment": deps.Config.Environment,
			"rooms":       deps.Hub.Rooms.Len(),
			"connections": deps.Hub.ClientCount(),
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		}
		resp.RespondSuccess(w, r, data)
	}
}
