package inbound

import (
	"context"

	"github.com/alchemorsel/mealplan/internal/domain/ai"
	"github.com/google/uuid"
)

// RecipeIntakeService turns generator output into persisted recipes
type RecipeIntakeService interface {
	CreateRecipeWithAIRetry(ctx context.Context, cmd GenerateRecipeCommand) *IntakeResult
	// CreateMultipleRecipesWithAI settles every item; the error is reserved for
	// rejecting the batch as a whole.
	CreateMultipleRecipesWithAI(ctx context.Context, cmds []GenerateRecipeCommand) ([]*IntakeResult, error)
}

// GenerateRecipeCommand for AI recipe generation
type GenerateRecipeCommand struct {
	Input       ai.GenerationInput `json:"input"`
	RequestedBy *uuid.UUID         `json:"requested_by,omitempty"`
}

// IntakeResult is a CreationResult plus the trace of generator attempts
type IntakeResult struct {
	CreationResult
	State    ai.IntakeState     `json:"state"`
	Attempts []ai.IntakeAttempt `json:"attempts"`
}
