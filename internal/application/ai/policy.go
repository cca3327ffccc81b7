package ai

import (
	"context"
	"time"

	"github.com/alchemorsel/mealplan/internal/domain/ai"
)

// RetryPolicy decides how a failed generation is retried. It holds no state,
// so one policy serves every request.
type RetryPolicy struct {
	// MaxRetries is the number of attempts allowed after the first
	MaxRetries int
	// Backoff is the wait before retry number attempt (1-based) after a
	// transient failure
	Backoff func(attempt int) time.Duration
	// Simplify relaxes an input after a validation failure
	Simplify func(input ai.GenerationInput) ai.GenerationInput
}

// DefaultRetryPolicy retries twice, waiting base*2^attempt between transient
// failures and keeping at most maxRestrictions restrictions on simplification
func DefaultRetryPolicy(maxRetries int, base time.Duration, maxRestrictions int) RetryPolicy {
	return RetryPolicy{
		MaxRetries: maxRetries,
		Backoff:    ExponentialBackoff(base),
		Simplify:   SimplifyInput(maxRestrictions),
	}
}

// ExponentialBackoff returns base * 2^attempt
func ExponentialBackoff(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		if attempt < 0 {
			attempt = 0
		}
		return base * time.Duration(1<<uint(attempt))
	}
}

// SimplifyInput drops the cuisine and keeps the first max restrictions
func SimplifyInput(max int) func(ai.GenerationInput) ai.GenerationInput {
	return func(in ai.GenerationInput) ai.GenerationInput {
		out := in
		out.Cuisine = ""
		if len(in.DietaryRestrictions) > max {
			out.DietaryRestrictions = append([]string(nil), in.DietaryRestrictions[:max]...)
		}
		return out
	}
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	if p.Backoff == nil {
		return 0
	}
	return p.Backoff(attempt)
}

func (p RetryPolicy) simplify(in ai.GenerationInput) ai.GenerationInput {
	if p.Simplify == nil {
		return in
	}
	return p.Simplify(in)
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
