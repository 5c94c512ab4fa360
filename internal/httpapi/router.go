// Package httpapi exposes the graph's query surface over HTTP, grounded
// on maraichr/codegraph's internal/api router (go-chi/chi/v5 routing,
// log/slog request logging, a writeJSON helper) scaled down to the
// four read endpoints spec §6 names: GET /files, GET
// /file/{path}/metadata, GET /file/{path}/related, GET /pairs.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/williamfzc/gossiphs/internal/graph"
)

// NewRouter builds the chi router serving g's query surface.
func NewRouter(logger *slog.Logger, g *graph.Graph) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimw.Recoverer)

	h := &handler{logger: logger, graph: g}

	r.Get("/healthz", h.healthz)
	r.Get("/files", h.listFiles)
	r.Get("/file/{path}/metadata", h.fileMetadata)
	r.Get("/file/{path}/related", h.relatedFiles)
	r.Get("/pairs", h.pairsBetweenFiles)

	return r
}

type handler struct {
	logger *slog.Logger
	graph  *graph.Graph
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) listFiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"files": h.graph.Files()})
}

func (h *handler) fileMetadata(w http.ResponseWriter, r *http.Request) {
	path, err := pathParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if _, ok := h.graph.FileByPath(path); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown file"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"symbols": h.graph.FileMetadata(path)})
}

func (h *handler) relatedFiles(w http.ResponseWriter, r *http.Request) {
	path, err := pathParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if _, ok := h.graph.FileByPath(path); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown file"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"related": h.graph.RelatedFiles(path)})
}

func (h *handler) pairsBetweenFiles(w http.ResponseWriter, r *http.Request) {
	a := r.URL.Query().Get("a")
	b := r.URL.Query().Get("b")
	if a == "" || b == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "both a and b query params are required"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pairs": h.graph.PairsBetweenFiles(a, b)})
}

// pathParam unescapes the {path} route segment: repository paths
// contain "/", so callers must URL-encode them (e.g. "%2F").
func pathParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "path")
	return url.QueryUnescape(raw)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Info("http request", "method", r.Method, "path", r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
}
