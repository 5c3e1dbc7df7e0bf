package api

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mthomas-dev/vaccine-analytics/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler exposes the latest pipeline results over HTTP for review before
// the charts are published.
type Handler struct {
	storage storage.Storage
	logger  *zap.Logger
	clock   func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithLogger attaches a logger for failures that cannot reach the
// client, such as aborted artifact downloads.
func WithLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		storage: store,
		logger:  zap.NewNop(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleKeyNumbers(w http.ResponseWriter, r *http.Request) {
	_ = r
	results, ok := h.storage.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, "No results", "no pipeline run has completed yet")
		return
	}

	writeJSON(w, http.StatusOK, keyNumbersResponse{
		GeneratedAt: results.GeneratedAt,
		KeyNumbers:  results.KeyNumbers,
	})
}

func (h *Handler) handleListArtifacts(w http.ResponseWriter, r *http.Request) {
	_ = r
	results, ok := h.storage.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, "No results", "no pipeline run has completed yet")
		return
	}

	artifacts := make([]artifactSummary, 0, len(results.Artifacts))
	for name, table := range results.Artifacts {
		artifacts = append(artifacts, artifactSummary{Name: name, Rows: len(table.Rows)})
	}
	sort.Slice(artifacts, func(i, j int) bool { return artifacts[i].Name < artifacts[j].Name })

	writeJSON(w, http.StatusOK, artifactsResponse{
		GeneratedAt: results.GeneratedAt,
		Artifacts:   artifacts,
	})
}

func (h *Handler) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	results, ok := h.storage.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, "No results", "no pipeline run has completed yet")
		return
	}

	name := r.PathValue("name")
	table, ok := results.Artifacts[name]
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown artifact", fmt.Sprintf("no artifact named %q in the latest run", name))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".csv"))

	cw := csv.NewWriter(w)
	_ = cw.Write(table.Header)
	for _, row := range table.Rows {
		_ = cw.Write(row)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.Warn("artifact download aborted",
			zap.String("artifact", name),
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.Error(err),
		)
	}
}

func (h *Handler) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	_ = r
	results, ok := h.storage.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, "No results", "no pipeline run has completed yet")
		return
	}

	writeJSON(w, http.StatusOK, diagnosticsResponse{
		GeneratedAt: results.GeneratedAt,
		Diagnostics: results.Diagnostics,
	})
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type keyNumbersResponse struct {
	GeneratedAt time.Time         `json:"generatedAt"`
	KeyNumbers  map[string]string `json:"keyNumbers"`
}

type artifactSummary struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

type artifactsResponse struct {
	GeneratedAt time.Time         `json:"generatedAt"`
	Artifacts   []artifactSummary `json:"artifacts"`
}

type diagnosticsResponse struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Diagnostics []string  `json:"diagnostics"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, errorResponse{Error: message, Details: details})
}
