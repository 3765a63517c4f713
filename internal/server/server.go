// Package server exposes the chart pipeline over HTTP. It offers a stateless
// render endpoint plus a small chart store for persisting rendered charts and
// fetching their artifacts later.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apperrors "github.com/mbertrand/alluvial/pkg/errors"
	"github.com/mbertrand/alluvial/pkg/observability"
	"github.com/mbertrand/alluvial/pkg/pipeline"
	"github.com/mbertrand/alluvial/pkg/store"
)

// Server handles HTTP requests for the render pipeline.
type Server struct {
	Runner *pipeline.Runner
	Store  store.Store
	Logger *log.Logger
}

// New creates a server. A nil store falls back to in-memory persistence and a
// nil logger to the default logger.
func New(runner *pipeline.Runner, st store.Store, logger *log.Logger) *Server {
	if st == nil {
		st = store.NewMemoryStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{Runner: runner, Store: st, Logger: logger}
}

// Handler builds the HTTP routing table.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Post("/render", s.handleRender)
	r.Post("/charts", s.handleCreateChart)
	r.Get("/charts/{id}", s.handleGetChart)
	r.Get("/charts/{id}/artifacts/{format}", s.handleGetArtifact)

	return r
}

// requestID assigns each request an ID, honoring one supplied by the client.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

// observe reports request lifecycle events to the registered server hooks and
// logs completions.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		observability.Server().OnRequest(r.Context(), r.Method, r.URL.Path)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		duration := time.Since(start)
		observability.Server().OnResponse(r.Context(), r.Method, r.URL.Path, sw.status, duration)
		s.Logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", duration.Round(time.Millisecond))
	})
}

// statusWriter captures the response status code for logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// renderResponse is the body returned by POST /render. Artifact bytes are
// base64-encoded by the JSON encoder.
type renderResponse struct {
	DatasetHash string            `json:"dataset_hash"`
	NodeCount   int               `json:"node_count"`
	LinkCount   int               `json:"link_count"`
	Cached      bool              `json:"cached"`
	Artifacts   map[string][]byte `json:"artifacts"`
}

// handleRender runs the pipeline on an inline request and returns the
// rendered artifacts without persisting anything.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	opts, ok := s.decodeOptions(w, r)
	if !ok {
		return
	}

	result, err := s.Runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, renderResponse{
		DatasetHash: result.DatasetHash,
		NodeCount:   result.Stats.NodeCount,
		LinkCount:   result.Stats.LinkCount,
		Cached:      result.CacheInfo.RenderHit,
		Artifacts:   result.Artifacts,
	})
}

// createChartResponse is the body returned by POST /charts.
type createChartResponse struct {
	ID          string   `json:"id"`
	DatasetHash string   `json:"dataset_hash"`
	Formats     []string `json:"formats"`
}

// handleCreateChart runs the pipeline and persists the chart, returning its
// ID for later retrieval.
func (s *Server) handleCreateChart(w http.ResponseWriter, r *http.Request) {
	opts, ok := s.decodeOptions(w, r)
	if !ok {
		return
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.Runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	chart := store.Chart{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Dataset:   result.Dataset,
		Options:   optionsMap(opts),
		Artifacts: result.Artifacts,
		Formats:   opts.Formats,
	}
	if err := s.Store.Put(r.Context(), chart); err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createChartResponse{
		ID:          chart.ID,
		DatasetHash: result.DatasetHash,
		Formats:     chart.Formats,
	})
}

// handleGetChart returns a persisted chart's metadata and dataset.
func (s *Server) handleGetChart(w http.ResponseWriter, r *http.Request) {
	chart, err := s.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chart)
}

// contentTypes maps output formats to their MIME types.
var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatJSON: "application/json",
}

// handleGetArtifact streams one rendered artifact of a persisted chart.
func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, err)
		return
	}

	chart, err := s.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	data, ok := chart.Artifacts[format]
	if !ok {
		s.writeError(w, apperrors.New(apperrors.ErrCodeNotFound,
			"chart %s has no %s artifact", chart.ID, format))
		return
	}

	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// decodeOptions parses a pipeline options body. File-path inputs are rejected
// so clients cannot read the server's filesystem.
func (s *Server) decodeOptions(w http.ResponseWriter, r *http.Request) (pipeline.Options, bool) {
	var opts pipeline.Options
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		s.writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "decode request body"))
		return pipeline.Options{}, false
	}
	if opts.Input != "" || opts.NodesPath != "" || opts.LinksPath != "" || opts.ConfigPath != "" {
		s.writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput,
			"file inputs are not accepted over HTTP; send the dataset inline"))
		return pipeline.Options{}, false
	}
	opts.Logger = s.Logger
	return opts, true
}

// optionsMap converts options to a generic map for persistence, using the
// struct's JSON representation.
func optionsMap(opts pipeline.Options) map[string]any {
	data, err := json.Marshal(opts)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	delete(m, "dataset")
	return m
}

// errorResponse is the JSON error body.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps an error to an HTTP status and writes the JSON error body.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: errorBody{
		Code:    string(apperrors.GetCode(err)),
		Message: apperrors.UserMessage(err),
	}})
}

// statusForError maps application error codes to HTTP statuses.
func statusForError(err error) int {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeConfig,
		apperrors.ErrCodeInputMissing,
		apperrors.ErrCodeInvalidInput,
		apperrors.ErrCodeSchema,
		apperrors.ErrCodeComputation,
		apperrors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
