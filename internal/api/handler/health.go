package handler

import (
	"net/http"

	"github.com/daap14/tasktrack/internal/api/middleware"
	"github.com/daap14/tasktrack/internal/api/response"
	"github.com/daap14/tasktrack/internal/store"
)

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	checker store.HealthChecker
	version string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(checker store.HealthChecker, version string) *HealthHandler {
	return &HealthHandler{
		checker: checker,
		version: version,
	}
}

type storeStatus struct {
	Backend   string `json:"backend"`
	Connected bool   `json:"connected"`
}

type healthData struct {
	Status  string      `json:"status"`
	Version string      `json:"version"`
	Store   storeStatus `json:"store"`
}

// ServeHTTP handles the health check request.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	connectivity := h.checker.CheckConnectivity(r.Context())

	status := "healthy"
	if !connectivity.Connected {
		status = "degraded"
	}

	data := healthData{
		Status:  status,
		Version: h.version,
		Store: storeStatus{
			Backend:   connectivity.Backend,
			Connected: connectivity.Connected,
		},
	}

	response.Success(w, http.StatusOK, data, requestID)
}
