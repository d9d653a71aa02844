package api

import (
	"net/http"

	"github.com/phoenixr49/hugbridge/internal/log"
)

// Attribution identifies the backing service, mirroring the attribution
// metadata conversation agents expose to their host platform.
type Attribution struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// DefaultAttribution credits the remote chat service.
var DefaultAttribution = Attribution{
	Name: "Powered by HuggingChat",
	URL:  "https://huggingface.co/chat",
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	version string
	logger  log.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(version string, logger log.Logger) *HealthHandler {
	return &HealthHandler{version: version, logger: logger}
}

// RegisterRoutes registers health routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.liveness)
	mux.HandleFunc("GET /ready", h.readiness)
}

// liveness returns process status plus service attribution.
func (h *HealthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"version":     h.version,
		"attribution": DefaultAttribution,
	})
}

// readiness reports whether the bridge can accept turns. The remote
// session is established lazily on the first turn, so readiness equals
// liveness here; the endpoint exists for probe symmetry.
func (h *HealthHandler) readiness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
