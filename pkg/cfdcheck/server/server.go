// Package server exposes the bottleneck estimator over HTTP.
//
// Every request is evaluated independently; the server holds no state
// besides its configuration and an optional history store.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/estimate"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/history"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/logging"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/output"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/types"
)

// maxBodyBytes caps the size of an evaluation request.
const maxBodyBytes = 1 << 20

// Options configures a Server.
type Options struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Defaults fills fields omitted from an evaluation request.
	Defaults types.HardwareProfile

	// Version is reported by /version.
	Version string

	// History records every successful evaluation when set.
	History *history.Store
}

// Server is the HTTP front end of the estimator.
type Server struct {
	opts   Options
	router chi.Router
	log    *logging.Logger
}

// New creates a server with its routes mounted.
func New(opts Options) *Server {
	s := &Server{opts: opts, log: logging.Get("server")}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	if opts.WriteTimeout > 0 {
		r.Use(middleware.Timeout(opts.WriteTimeout))
	}

	r.Get("/health", s.handleHealth)
	r.Get("/version", s.handleVersion)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/evaluate", s.handleEvaluate)
		r.Get("/defaults", s.handleDefaults)
		r.Get("/formats", s.handleFormats)
		if opts.History != nil {
			r.Get("/history", s.handleHistoryList)
			r.Get("/history/{id}", s.handleHistoryGet)
		}
	})

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadTimeout:       s.opts.ReadTimeout,
		ReadHeaderTimeout: s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// requestID assigns a UUID to requests that arrive without an X-Request-Id
// header and echoes the ID back. middleware.RequestID then picks it up.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(middleware.RequestIDHeader, id)
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs each request on the server component logger.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.log.Debug("request",
				"id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string        `json:"error"`
	Message string        `json:"message"`
	Fields  []FieldDetail `json:"fields,omitempty"`
}

// FieldDetail names one invalid profile field.
type FieldDetail struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
	Value  any    `json:"value,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, code string, err error) {
	resp := ErrorResponse{Error: code, Message: err.Error()}
	for _, fe := range fieldErrors(err) {
		resp.Fields = append(resp.Fields, FieldDetail{Field: fe.Field, Reason: fe.Reason, Value: fe.Value})
	}
	writeJSON(w, status, resp)
}

// fieldErrors flattens joined validation errors into their field errors.
func fieldErrors(err error) []*estimate.FieldError {
	if err == nil {
		return nil
	}
	var fe *estimate.FieldError
	if errors.As(err, &fe) {
		if multi, ok := err.(interface{ Unwrap() []error }); ok {
			var all []*estimate.FieldError
			for _, e := range multi.Unwrap() {
				all = append(all, fieldErrors(e)...)
			}
			return all
		}
		return []*estimate.FieldError{fe}
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.opts.Version})
}

func (s *Server) handleDefaults(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.opts.Defaults)
}

func (s *Server) handleFormats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"formats": output.Available()})
}

// handleEvaluate evaluates a JSON hardware profile. Omitted fields, or an
// empty body, take the server defaults. The report is rendered by the
// formatter named by ?format=, json when absent.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	formatter, err := output.Get(format)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "unknown_format", err)
		return
	}

	profile := s.opts.Defaults
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&profile); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, "invalid_request_body", err)
		return
	}

	report, err := estimate.Evaluate(profile)
	if err != nil {
		if errors.Is(err, estimate.ErrInvalidInput) {
			s.writeError(w, http.StatusBadRequest, "invalid_input", err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, "evaluation_failed", err)
		return
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, report); err != nil {
		s.writeError(w, http.StatusInternalServerError, "render_failed", err)
		return
	}

	if s.opts.History != nil {
		if _, err := s.opts.History.Record(report, "serve"); err != nil {
			s.log.Warn("failed to record evaluation", "error", err)
		}
	}

	w.Header().Set("Content-Type", contentType(format))
	_, _ = w.Write(buf.Bytes())
}

// contentType returns the media type of a formatter's output.
func contentType(format string) string {
	switch format {
	case "json":
		return "application/json"
	case "jsonl":
		return "application/x-ndjson"
	case "yaml":
		return "application/yaml"
	default:
		return "text/plain; charset=utf-8"
	}
}

func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid_limit", errors.New("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	entries, err := s.opts.History.List(limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "history_failed", err)
		return
	}
	if entries == nil {
		entries = []*history.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleHistoryGet(w http.ResponseWriter, r *http.Request) {
	entry, err := s.opts.History.Get(chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, history.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, history.ErrAmbiguousID):
		s.writeError(w, http.StatusBadRequest, "ambiguous_id", err)
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, "history_failed", err)
	default:
		writeJSON(w, http.StatusOK, entry)
	}
}
