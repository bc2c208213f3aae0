// Package evaluation answers "what does this flag evaluate to for this
// context" by combining the resolver with the evaluation pipeline.
//
// A missing flag is a normal answer ({enabled: false}), not an error. The only
// error Evaluate returns is a durable store failure, wrapping
// resolver.ErrStoreUnavailable.
package evaluation

import (
	"context"
	"errors"
	"strconv"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/TimurManjosov/flagship-eval/internal/engine"
	"github.com/TimurManjosov/flagship-eval/internal/resolver"
	"github.com/TimurManjosov/flagship-eval/internal/store"
	"github.com/TimurManjosov/flagship-eval/internal/telemetry"
)

// Request identifies the flag to evaluate and the caller's context.
type Request struct {
	ProjectID   string         `json:"projectId"`
	Environment string         `json:"environment"`
	FlagKey     string         `json:"flagKey"`
	Context     engine.Context `json:"context"`
}

// FlagResolver fetches flag definitions. *resolver.Resolver satisfies it.
type FlagResolver interface {
	Resolve(ctx context.Context, projectID, environmentKey, flagKey string) (*store.Flag, error)
}

// Service evaluates flags for callers.
type Service struct {
	resolver  FlagResolver
	evaluator *engine.Evaluator
	log       zerolog.Logger
}

// NewService wires a resolver and evaluator. A nil evaluator uses the default hasher.
func NewService(r FlagResolver, e *engine.Evaluator, log zerolog.Logger) *Service {
	if e == nil {
		e = engine.NewEvaluator(nil)
	}
	return &Service{resolver: r, evaluator: e, log: log}
}

// Evaluate resolves the flag and runs the pipeline against req.Context.
func (s *Service) Evaluate(ctx context.Context, req Request) (engine.Result, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "evaluation.Evaluate")
	defer span.End()

	evalCtx := req.Context
	if evalCtx == nil {
		evalCtx = engine.Context{}
	}

	flag, err := s.resolver.Resolve(ctx, req.ProjectID, req.Environment, req.FlagKey)
	switch {
	case errors.Is(err, resolver.ErrNotFound):
		flag = nil
	case err != nil:
		span.RecordError(err)
		return engine.Result{}, err
	}

	result := s.evaluator.Evaluate(flag, evalCtx)
	telemetry.Evaluations.WithLabelValues(strconv.FormatBool(result.Enabled)).Inc()
	span.SetAttributes(
		attribute.Bool("flag.enabled", result.Enabled),
		attribute.String("flag.variant", result.Variant),
	)

	ev := s.log.Debug().
		Str("project_id", req.ProjectID).
		Str("environment", req.Environment).
		Str("flag_key", req.FlagKey).
		Bool("enabled", result.Enabled).
		Str("variant", result.Variant).
		Int("bucket", result.Bucket)
	if result.MatchedRule != nil {
		ev = ev.Int("matched_rule_priority", result.MatchedRule.Priority)
	}
	ev.Msg("flag evaluated")

	return result, nil
}
