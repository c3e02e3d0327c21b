package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"sync"

	"sigs.k8s.io/yaml"

	"github.com/daap14/tasktrack/internal/api/middleware"
	"github.com/daap14/tasktrack/internal/api/response"
)

// OpenAPIHandler serves the embedded OpenAPI document as JSON. The document
// is converted once and served with a content-hash ETag so clients can
// revalidate with If-None-Match.
type OpenAPIHandler struct {
	rawYAML []byte

	once sync.Once
	doc  []byte
	etag string
	err  error
}

// NewOpenAPIHandler creates a handler for the given YAML document.
func NewOpenAPIHandler(yamlSpec []byte) *OpenAPIHandler {
	return &OpenAPIHandler{rawYAML: yamlSpec}
}

func (h *OpenAPIHandler) load() {
	h.doc, h.err = yaml.YAMLToJSON(h.rawYAML)
	if h.err != nil {
		return
	}
	sum := sha256.Sum256(h.doc)
	h.etag = `"` + hex.EncodeToString(sum[:16]) + `"`
}

// ServeHTTP writes the JSON document, or 304 when the client's ETag matches.
func (h *OpenAPIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.once.Do(h.load)

	if h.err != nil {
		requestID := middleware.GetRequestID(r.Context())
		slog.Error("failed to convert OpenAPI document to JSON", "error", h.err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to convert OpenAPI spec", requestID)
		return
	}

	w.Header().Set("ETag", h.etag)
	w.Header().Set("Cache-Control", "public, max-age=300")
	if r.Header.Get("If-None-Match") == h.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(h.doc); err != nil {
		slog.Error("failed to write OpenAPI response", "error", err)
	}
}
