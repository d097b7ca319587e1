// Package server exposes the campaign service over JSON HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/rahul/campaigner/internal/agent"
	"github.com/rahul/campaigner/internal/campaign"
	"github.com/rahul/campaigner/internal/compliance"
	"github.com/rahul/campaigner/internal/observability"
	"github.com/rahul/campaigner/internal/tone"
)

const maxBodyBytes = 1 << 20

// Server hosts the plan, write and validate endpoints.
type Server struct {
	Service  *agent.Service
	Snippets tone.Library
	Logger   *observability.Logger
	Timeout  time.Duration
}

func New(service *agent.Service, snippets tone.Library, logger *observability.Logger) *Server {
	return &Server{
		Service:  service,
		Snippets: snippets,
		Logger:   logger,
		Timeout:  2 * time.Minute,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/plan", s.handlePlan)
	mux.HandleFunc("POST /api/write", s.handleWrite)
	mux.HandleFunc("POST /api/validate", s.handleValidate)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return s.withRequestID(mux)
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP API listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := observability.WithRequestID(r.Context(), r.Header.Get("X-Request-ID"))
		requestID := observability.RequestID(ctx)
		w.Header().Set("X-Request-ID", requestID)

		if s.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.Timeout)
			defer cancel()
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))
		s.Logger.LogRequest(requestID, r.Method+" "+r.URL.Path, rec.status, time.Since(start))
	})
}

type planRequest struct {
	Intake campaign.Intake `json:"intake"`
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid intake provided.", nil)
		return
	}
	result, err := s.Service.Plan(r.Context(), req.Intake)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid intake provided.", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type writeRequest struct {
	Intake       campaign.Intake `json:"intake"`
	Plan         campaign.Plan   `json:"plan"`
	ToneSnippets []tone.Snippet  `json:"toneSnippets"`
	ABSubjects   bool            `json:"abSubjects"`
}

type writeResponse struct {
	Text string `json:"text"`
}

func (s *Server) handleWrite(w http.ResponseWriter, r *http.Request) {
	var req writeRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payload.", err.Error())
		return
	}

	snippets := req.ToneSnippets
	if len(snippets) == 0 && s.Snippets != nil {
		selected, err := tone.ForPlan(r.Context(), s.Snippets, req.Intake.Audience, req.Plan)
		if err != nil {
			log.Printf("[server] %v", err)
		}
		snippets = selected
	}

	text, err := s.Service.Write(r.Context(), agent.WriteRequest{
		Intake:     req.Intake,
		Plan:       req.Plan,
		Snippets:   snippets,
		ABSubjects: req.ABSubjects,
	})
	var outErr *agent.OutputError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, writeResponse{Text: text})
	case errors.Is(err, agent.ErrNoModel):
		writeError(w, http.StatusServiceUnavailable, "No language model configured.", nil)
	case errors.As(err, &outErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "Generated content failed validation.",
			"issues": outErr.Issues,
		})
	case isInputError(err):
		writeError(w, http.StatusBadRequest, "Invalid payload.", err.Error())
	default:
		log.Printf("[server] write failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate campaign copy.", nil)
	}
}

// isInputError reports whether err came from intake or plan validation
// rather than from generation.
func isInputError(err error) bool {
	var ve *campaign.ValidationError
	return errors.As(err, &ve)
}

type validateRequest struct {
	Text          string `json:"text"`
	ABSubjects    bool   `json:"abSubjects"`
	ExpectedSteps int    `json:"expectedSteps"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payload.", err.Error())
		return
	}
	if req.ExpectedSteps < 0 {
		writeError(w, http.StatusBadRequest, "Invalid payload.", "expectedSteps must not be negative")
		return
	}
	result := s.Service.Validate(observability.RequestID(r.Context()), req.Text, compliance.Options{
		ABSubjects:    req.ABSubjects,
		ExpectedSteps: req.ExpectedSteps,
	})
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	observability.Heartbeat()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"model":    s.Service.Writer != nil,
		"snapshot": observability.GetStatus(),
	})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, message string, details any) {
	body := map[string]any{"error": message}
	if details != nil {
		body["details"] = details
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[server] encode response: %v", err)
	}
}
