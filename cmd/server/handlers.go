package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"stockreporter/internal/limits"
	"stockreporter/internal/model"
	"stockreporter/internal/provider"
	"stockreporter/internal/provider/yql"
	"stockreporter/internal/report"
)

// reportServer builds a fresh report per request. Only the provider, the
// limits path and the concurrency gate are shared.
type reportServer struct {
	provider   provider.Provider
	limitsPath string
	timeout    time.Duration
	sem        *semaphore.Weighted
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (s *reportServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/report", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.handleGetReport(w, r)
		case http.MethodPost:
			s.handlePostReport(w, r)
		default:
			writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		}
	})

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(withGzip(recoverPanic(limitBody(mux))))
}

// handleGetReport evaluates the configured limits file, re-read per request.
// A broken file is the server's fault, not the caller's.
func (s *reportServer) handleGetReport(w http.ResponseWriter, r *http.Request) {
	lims, err := limits.Load(s.limitsPath, "")
	if err != nil {
		log.Error().Err(err).Str("path", s.limitsPath).Msg("limits file unusable")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), Kind: "config"})
		return
	}
	s.writeReport(w, r.Context(), lims)
}

// handlePostReport evaluates the limits sent as a JSON array in the body.
func (s *reportServer) handlePostReport(w http.ResponseWriter, r *http.Request) {
	b, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "reading body: " + err.Error(), Kind: "config"})
		return
	}
	lims, err := limits.Decode(b)
	if err != nil {
		writeError(w, &limits.ConfigError{Path: "request body", Err: err})
		return
	}
	s.writeReport(w, r.Context(), lims)
}

func (s *reportServer) writeReport(w http.ResponseWriter, rctx context.Context, lims []model.Limit) {
	ctx := rctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(rctx, s.timeout)
		defer cancel()
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "too many reports in flight"})
		return
	}
	defer s.sem.Release(1)

	rep, err := report.Build(ctx, lims, s.provider)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// writeError maps the report error kinds onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var (
		cfgErr     *limits.ConfigError
		fetchErr   *yql.FetchError
		parseErr   *yql.ParseError
		missingErr *report.MissingLimitError
	)
	status, kind := http.StatusInternalServerError, ""
	switch {
	case errors.As(err, &cfgErr):
		status, kind = http.StatusBadRequest, "config"
	case errors.As(err, &missingErr):
		status, kind = http.StatusUnprocessableEntity, "missing_limit"
	case errors.As(err, &fetchErr):
		status, kind = http.StatusBadGateway, "fetch"
	case errors.As(err, &parseErr):
		status, kind = http.StatusBadGateway, "parse"
	case errors.Is(err, context.DeadlineExceeded):
		status, kind = http.StatusGatewayTimeout, "timeout"
	}
	log.Warn().Err(err).Str("kind", kind).Int("status", status).Msg("report failed")
	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}
