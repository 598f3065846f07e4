package handlers

import (
	"net/http"

	"github.com/capoo-pm/apiserver/internal/services"
)

// Healthz reports process liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, keyHealthy, map[string]string{"status": "ok"})
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, services.KindNotFound.String(), keyRouteNotFound, nil)
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, errorTypeMethodNotAllowed, keyMethodNotAllowed, nil)
}
