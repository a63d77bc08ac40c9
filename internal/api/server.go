// Package api exposes review workflows over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	tclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"

	"litreview/internal/workflows"
)

// WorkflowClient is the part of the Temporal client the API needs.
type WorkflowClient interface {
	ExecuteWorkflow(ctx context.Context, options tclient.StartWorkflowOptions, workflow interface{}, args ...interface{}) (tclient.WorkflowRun, error)
	QueryWorkflow(ctx context.Context, workflowID string, runID string, queryType string, args ...interface{}) (converter.EncodedValue, error)
}

type Server struct {
	temporal  WorkflowClient
	taskQueue string
	gatherer  prometheus.Gatherer
	validate  *validator.Validate
	logger    zerolog.Logger
}

func NewServer(temporal WorkflowClient, taskQueue string, gatherer prometheus.Gatherer, logger zerolog.Logger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		temporal:  temporal,
		taskQueue: taskQueue,
		gatherer:  gatherer,
		validate:  validator.New(),
		logger:    logger.With().Str("component", "api").Logger(),
	}
}

// StartReviewRequest starts one ReviewWorkflow. A named run gets a stable
// workflow id, so starting it again while it is running is a conflict.
type StartReviewRequest struct {
	Name       string `json:"name,omitempty" validate:"omitempty,max=100"`
	XMLDir     string `json:"xml_dir,omitempty"`
	TextDir    string `json:"text_dir,omitempty" validate:"required_with=XMLDir"`
	InputDir   string `json:"input_dir" validate:"required"`
	OutputPath string `json:"output_path" validate:"required"`
	ExtractDir string `json:"extract_dir,omitempty"`
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Route("/reviews", func(r chi.Router) {
		r.Post("/", s.handleStartReview)
		r.Get("/{workflowID}/progress", s.handleProgress)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
	})
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleStartReview(w http.ResponseWriter, r *http.Request) {
	var req StartReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("validation: %w", err))
		return
	}

	opts := tclient.StartWorkflowOptions{
		ID:        "review-" + uuid.NewString(),
		TaskQueue: s.taskQueue,
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		opts.ID = workflows.WorkflowID(name)
		opts.WorkflowIDReusePolicy = enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE
		opts.WorkflowExecutionErrorWhenAlreadyStarted = true
	}
	run, err := s.temporal.ExecuteWorkflow(r.Context(), opts, workflows.ReviewWorkflow, workflows.ReviewInput{
		XMLDir:     req.XMLDir,
		TextDir:    req.TextDir,
		InputDir:   req.InputDir,
		OutputPath: req.OutputPath,
		ExtractDir: req.ExtractDir,
	})
	if err != nil {
		var started *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &started) {
			writeErr(w, http.StatusConflict, err)
			return
		}
		writeErr(w, http.StatusBadGateway, err)
		return
	}
	s.logger.Info().Str("workflow_id", run.GetID()).Str("run_id", run.GetRunID()).Msg("review started")
	writeJSON(w, http.StatusAccepted, map[string]any{"workflow_id": run.GetID(), "run_id": run.GetRunID()})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	workflowID := chi.URLParam(r, "workflowID")
	resp, err := s.temporal.QueryWorkflow(r.Context(), workflowID, "", workflows.QueryGetProgress)
	if err != nil {
		var notFound *serviceerror.NotFound
		if errors.As(err, &notFound) {
			writeErr(w, http.StatusNotFound, err)
			return
		}
		writeErr(w, http.StatusBadGateway, err)
		return
	}
	var prog workflows.ReviewProgress
	if err := resp.Get(&prog); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, prog)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "LR-API-4000"

	switch {
	case status == http.StatusBadGateway:
		return apiError{Code: "LR-API-5020", Message: "Workflow service unavailable. Retry shortly."}
	case status >= 500:
		return apiError{Code: "LR-API-5000", Message: "Internal server error. Please retry or check service logs."}
	case status == http.StatusBadRequest:
		code = "LR-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusNotFound:
		code = "LR-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusConflict:
		code = "LR-API-4009"
		msg = "A review with this name is already running."
	case status == http.StatusMethodNotAllowed:
		code = "LR-API-4005"
		msg = "This endpoint does not support the requested method."
	}

	// For 4xx, keep user-safe validation context only.
	if status == http.StatusBadRequest && err != nil {
		var verrs validator.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			msg = "Missing or invalid fields: " + strings.Join(fields, ", ") + "."
		case strings.Contains(strings.ToLower(err.Error()), "invalid json"):
			msg = "Malformed JSON request body."
		}
	}
	return apiError{Code: code, Message: msg}
}
