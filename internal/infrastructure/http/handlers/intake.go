package handlers

import (
	"net/http"

	"github.com/alchemorsel/mealplan/internal/domain/ai"
	"github.com/alchemorsel/mealplan/internal/ports/inbound"
	"go.uber.org/zap"
)

// IntakeHandlers serves AI recipe generation
type IntakeHandlers struct {
	responder
	intake inbound.RecipeIntakeService
}

// NewIntakeHandlers creates intake handlers
func NewIntakeHandlers(intake inbound.RecipeIntakeService, logger *zap.Logger) *IntakeHandlers {
	return &IntakeHandlers{
		responder: responder{logger: logger.Named("intake-handlers")},
		intake:    intake,
	}
}

// Generate handles POST /ai/recipes. The body is the generation input; the
// response is the intake result whether or not it succeeded.
func (h *IntakeHandlers) Generate(w http.ResponseWriter, r *http.Request) {
	var input ai.GenerationInput
	if err := decode(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}

	result := h.intake.CreateRecipeWithAIRetry(r.Context(), h.command(r, input))
	status := http.StatusCreated
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	h.writeJSON(w, status, result)
}

type batchRequest struct {
	Recipes []ai.GenerationInput `json:"recipes"`
}

// GenerateBatch handles POST /ai/recipes/batch. Items settle independently;
// only an unacceptable batch is an error response.
func (h *IntakeHandlers) GenerateBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	cmds := make([]inbound.GenerateRecipeCommand, len(req.Recipes))
	for i, input := range req.Recipes {
		cmds[i] = h.command(r, input)
	}

	results, err := h.intake.CreateMultipleRecipesWithAI(r.Context(), cmds)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	succeeded := 0
	for _, res := range results {
		if res.Success {
			succeeded++
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"results":   results,
		"requested": len(results),
		"succeeded": succeeded,
		"failed":    len(results) - succeeded,
	})
}

func (h *IntakeHandlers) command(r *http.Request, input ai.GenerationInput) inbound.GenerateRecipeCommand {
	cmd := inbound.GenerateRecipeCommand{Input: input}
	if id, err := callerID(r); err == nil {
		cmd.RequestedBy = &id
	}
	return cmd
}
