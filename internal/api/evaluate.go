package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/TimurManjosov/flagship-eval/internal/evaluation"
	"github.com/TimurManjosov/flagship-eval/internal/resolver"
	"github.com/TimurManjosov/flagship-eval/internal/validation"
)

// evaluateRequest is the body of POST /api/v1/evaluate.
type evaluateRequest struct {
	ProjectID   string          `json:"projectId"`
	Environment string          `json:"environment"`
	FlagKey     string          `json:"flagKey"`
	Context     json.RawMessage `json:"context,omitempty"`
}

// handleEvaluate handles POST /api/v1/evaluate.
// A flag that does not exist evaluates to {"enabled":false} with status 200.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			RequestTooLargeError(w, r, "Request body exceeds 1MB limit")
			return
		}
		BadRequestError(w, r, ErrCodeInvalidJSON, "Invalid JSON: "+err.Error())
		return
	}

	result := validation.ValidateEvaluateRequest(validation.EvaluateParams{
		ProjectID:   req.ProjectID,
		Environment: req.Environment,
		FlagKey:     req.FlagKey,
	})
	evalCtx, ctxResult := validation.ParseContext(req.Context)
	result.Merge(ctxResult)
	if !result.Valid {
		ValidationError(w, r, "Invalid evaluate request", result.Errors)
		return
	}

	res, err := s.eval.Evaluate(r.Context(), evaluation.Request{
		ProjectID:   req.ProjectID,
		Environment: req.Environment,
		FlagKey:     req.FlagKey,
		Context:     evalCtx,
	})
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).
			Str("project_id", req.ProjectID).
			Str("flag_key", req.FlagKey).
			Msg("evaluate failed")
		if errors.Is(err, resolver.ErrStoreUnavailable) {
			ServiceUnavailableError(w, r, ErrCodeStoreUnavailable, "Flag store unavailable")
			return
		}
		InternalError(w, r, "Evaluation failed")
		return
	}

	writeJSON(w, http.StatusOK, res)
}
