// Package ai turns an unreliable recipe generator into a dependable creation
// pipeline: input checks, output sanitization and bounded retry.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/alchemorsel/mealplan/internal/domain/ai"
	"github.com/alchemorsel/mealplan/internal/domain/recipe"
	"github.com/alchemorsel/mealplan/internal/ports/inbound"
	"github.com/alchemorsel/mealplan/internal/ports/outbound"
	"github.com/alchemorsel/mealplan/pkg/errors"
	"github.com/alchemorsel/mealplan/pkg/validation"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const generatorService = "recipe generator"

var tracer = otel.Tracer("github.com/alchemorsel/mealplan/intake")

// PipelineConfig tunes the intake pipeline
type PipelineConfig struct {
	Policy      RetryPolicy
	BatchLimit  int
	Concurrency int
	// Limiter throttles generator calls; nil means unlimited
	Limiter *rate.Limiter
}

// IntakePipeline implements inbound.RecipeIntakeService
type IntakePipeline struct {
	generator   outbound.RecipeGenerator
	recipes     inbound.RecipeService
	policy      RetryPolicy
	batchLimit  int
	concurrency int
	limiter     *rate.Limiter
	validator   *validation.Validator
	metrics     outbound.MetricsRecorder
	logger      *zap.Logger
}

// NewIntakePipeline creates a new intake pipeline
func NewIntakePipeline(
	generator outbound.RecipeGenerator,
	recipes inbound.RecipeService,
	cfg PipelineConfig,
	metrics outbound.MetricsRecorder,
	logger *zap.Logger,
) *IntakePipeline {
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = 10
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if metrics == nil {
		metrics = outbound.NopMetrics{}
	}
	return &IntakePipeline{
		generator:   generator,
		recipes:     recipes,
		policy:      cfg.Policy,
		batchLimit:  cfg.BatchLimit,
		concurrency: cfg.Concurrency,
		limiter:     cfg.Limiter,
		validator:   validation.New(),
		metrics:     metrics,
		logger:      logger.Named("recipe-intake"),
	}
}

// NewGeneratorLimiter allows requestsPerMinute generator calls with the given
// burst. A non-positive rate disables throttling.
func NewGeneratorLimiter(requestsPerMinute, burst int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), burst)
}

var _ inbound.RecipeIntakeService = (*IntakePipeline)(nil)

// intake tracks the state machine of one request
type intake struct {
	state    ai.IntakeState
	attempts []ai.IntakeAttempt
	logger   *zap.Logger
}

func (in *intake) to(next ai.IntakeState) {
	if !ai.CanTransition(in.state, next) {
		in.logger.Warn("Unexpected intake transition",
			zap.String("from", string(in.state)),
			zap.String("to", string(next)),
		)
	}
	in.state = next
}

// CreateRecipeWithAIRetry generates, checks and stores one recipe. A
// validation failure is retried once with a simplified input; a transient
// failure is retried with the same input after a backoff. The result always
// carries the attempt trace.
func (p *IntakePipeline) CreateRecipeWithAIRetry(ctx context.Context, cmd inbound.GenerateRecipeCommand) *inbound.IntakeResult {
	ctx, span := tracer.Start(ctx, "intake.CreateRecipeWithAIRetry",
		trace.WithAttributes(attribute.String("recipe.name", cmd.Input.Name)))
	defer span.End()

	run := &intake{state: ai.StateRequested, attempts: []ai.IntakeAttempt{}, logger: p.logger}

	input := cmd.Input
	if input.Servings == 0 {
		input.Servings = ai.DefaultServings
	}
	if err := p.validator.Struct(input); err != nil {
		run.to(ai.StateFailed)
		return p.finish(span, run, nil, err)
	}

	simplified := false
	for attempt := 0; ; attempt++ {
		run.to(ai.StateGenerating)
		record := ai.IntakeAttempt{
			Number:     attempt + 1,
			Input:      input,
			Simplified: simplified,
			StartedAt:  time.Now().UTC(),
		}

		created, err := p.attempt(ctx, run, input, cmd.RequestedBy)

		record.State = run.state
		record.Duration = time.Since(record.StartedAt)
		if err != nil {
			record.Error = err.Error()
		}
		run.attempts = append(run.attempts, record)
		p.metrics.IntakeAttempt(string(run.state), record.Duration)

		if err == nil {
			return p.finish(span, run, created, nil)
		}
		// the store rejected a payload that passed our checks
		if run.state == ai.StateValid {
			run.to(ai.StateFailed)
			return p.finish(span, run, nil, err)
		}

		invalid := errors.IsValidation(err)
		if !p.canRetry(attempt, invalid, simplified, err) {
			run.to(ai.StateFailed)
			return p.finish(span, run, nil, err)
		}

		run.to(ai.StateRetrying)
		if invalid {
			input = p.policy.simplify(input)
			simplified = true
			p.logger.Info("Generated recipe rejected, retrying with simplified input",
				zap.Int("attempt", attempt+1),
				zap.Int("restrictions", len(input.DietaryRestrictions)),
				zap.Error(err),
			)
			continue
		}

		wait := p.policy.backoff(attempt + 1)
		p.logger.Warn("Recipe generator failed, backing off",
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		if err := sleep(ctx, wait); err != nil {
			run.to(ai.StateFailed)
			return p.finish(span, run, nil, errors.NewTransientError(generatorService, err))
		}
	}
}

func (p *IntakePipeline) canRetry(attempt int, invalid, simplified bool, err error) bool {
	switch {
	case attempt >= p.policy.MaxRetries:
		return false
	case invalid:
		return !simplified
	default:
		return errors.IsRetryable(err)
	}
}

// attempt runs one Generating -> Validating -> Valid -> Persisted pass
func (p *IntakePipeline) attempt(ctx context.Context, run *intake, input ai.GenerationInput, requestedBy *uuid.UUID) (*recipe.Recipe, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, errors.NewTransientError(generatorService, err)
		}
	}

	payload, err := p.generator.Generate(ctx, input)
	if err != nil {
		err = classify(err)
		if errors.IsValidation(err) {
			run.to(ai.StateValidating)
			run.to(ai.StateInvalid)
		}
		return nil, err
	}

	run.to(ai.StateValidating)
	cmd, err := Sanitize(payload, input)
	if err != nil {
		run.to(ai.StateInvalid)
		return nil, err
	}
	run.to(ai.StateValid)

	cmd.CreatedBy = requestedBy
	created, err := p.recipes.Create(ctx, cmd)
	if err != nil {
		return nil, err
	}
	run.to(ai.StatePersisted)
	return created, nil
}

// classify treats any failure the generator did not describe as transient
func classify(err error) error {
	if _, ok := errors.As(err); ok {
		return err
	}
	return errors.NewTransientError(generatorService, err)
}

func (p *IntakePipeline) finish(span trace.Span, run *intake, created *recipe.Recipe, err error) *inbound.IntakeResult {
	success := err == nil
	p.metrics.IntakeResult(success)

	if success {
		p.logger.Info("AI recipe persisted",
			zap.String("recipe_id", created.ID.String()),
			zap.Int("attempts", len(run.attempts)),
		)
	} else {
		span.SetStatus(codes.Error, err.Error())
		p.logger.Warn("AI recipe intake failed",
			zap.String("state", string(run.state)),
			zap.Int("attempts", len(run.attempts)),
			zap.Error(err),
		)
	}
	span.SetAttributes(attribute.Int("intake.attempts", len(run.attempts)))

	return &inbound.IntakeResult{
		CreationResult: inbound.NewCreationResult(created, err),
		State:          run.state,
		Attempts:       run.attempts,
	}
}

// CreateMultipleRecipesWithAI runs up to the batch limit of requests with
// bounded concurrency. Every item settles on its own; one failure never
// cancels the others.
func (p *IntakePipeline) CreateMultipleRecipesWithAI(ctx context.Context, cmds []inbound.GenerateRecipeCommand) ([]*inbound.IntakeResult, error) {
	if len(cmds) == 0 {
		return nil, errors.NewValidationError("recipes", "at least one recipe request is required")
	}
	if len(cmds) > p.batchLimit {
		return nil, errors.NewValidationError("recipes",
			fmt.Sprintf("at most %d recipes can be generated at once", p.batchLimit)).
			WithMetadata("limit", p.batchLimit).
			WithMetadata("requested", len(cmds))
	}

	results := make([]*inbound.IntakeResult, len(cmds))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, cmd := range cmds {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					err := errors.NewInternalError("recipe generation failed unexpectedly").
						WithMetadata("panic", fmt.Sprint(r))
					results[i] = &inbound.IntakeResult{
						CreationResult: inbound.NewCreationResult(nil, err),
						State:          ai.StateFailed,
						Attempts:       []ai.IntakeAttempt{},
					}
				}
			}()
			results[i] = p.CreateRecipeWithAIRetry(ctx, cmd)
			return nil
		})
	}
	_ = g.Wait()

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	p.logger.Info("AI recipe batch settled",
		zap.Int("requested", len(cmds)),
		zap.Int("succeeded", succeeded),
	)
	return results, nil
}
