package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/alchemorsel/mealplan/internal/domain/mealplan"
	"github.com/alchemorsel/mealplan/internal/ports/inbound"
	"github.com/alchemorsel/mealplan/pkg/errors"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MealPlanHandlers serves the caller's weekly meal plans
type MealPlanHandlers struct {
	responder
	plans inbound.MealPlanService
}

// NewMealPlanHandlers creates meal plan handlers
func NewMealPlanHandlers(plans inbound.MealPlanService, logger *zap.Logger) *MealPlanHandlers {
	return &MealPlanHandlers{
		responder: responder{logger: logger.Named("mealplan-handlers")},
		plans:     plans,
	}
}

type createMealPlanRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	WeekStart   time.Time `json:"week_start"`
}

// Create handles POST /meal-plans
func (h *MealPlanHandlers) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req createMealPlanRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	plan, err := h.plans.Create(r.Context(), inbound.CreateMealPlanCommand{
		OwnerID:     ownerID,
		Name:        req.Name,
		Description: req.Description,
		WeekStart:   req.WeekStart,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusCreated, plan, "Meal plan created")
}

// List handles GET /meal-plans
func (h *MealPlanHandlers) List(w http.ResponseWriter, r *http.Request) {
	ownerID, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := pagination(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	activeOnly, err := boolQuery(r, "active")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	list, err := h.plans.ListForOwner(r.Context(), inbound.MealPlanQuery{
		OwnerID:      ownerID,
		ActiveOnly:   activeOnly != nil && *activeOnly,
		NameContains: r.URL.Query().Get("name"),
		Pagination:   page,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, list, "")
}

// Active handles GET /meal-plans/active
func (h *MealPlanHandlers) Active(w http.ResponseWriter, r *http.Request) {
	ownerID, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	plan, err := h.plans.GetActive(r.Context(), ownerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, plan, "")
}

// Get handles GET /meal-plans/{id}
func (h *MealPlanHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	plan, err := h.plans.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, plan, "")
}

type updateMealPlanRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	WeekStart   *time.Time `json:"week_start"`
}

// Update handles PATCH /meal-plans/{id}
func (h *MealPlanHandlers) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req updateMealPlanRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	plan, err := h.plans.Update(r.Context(), id, mealplan.Patch{
		Name:        req.Name,
		Description: req.Description,
		WeekStart:   req.WeekStart,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, plan, "Meal plan updated")
}

// Delete handles DELETE /meal-plans/{id}
func (h *MealPlanHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.plans.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, nil, "Meal plan deleted")
}

// Activate handles POST /meal-plans/{id}/activate
func (h *MealPlanHandlers) Activate(w http.ResponseWriter, r *http.Request) {
	ownerID, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	plan, err := h.plans.SetActive(r.Context(), ownerID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, plan, "Meal plan activated")
}

// AssignRecipe handles PUT /meal-plans/{id}/items
func (h *MealPlanHandlers) AssignRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var cmd inbound.AssignRecipeCommand
	if err := decode(r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}
	cmd.MealPlanID = id

	plan, err := h.plans.AssignRecipe(r.Context(), cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, plan, "Recipe assigned")
}

// RemoveRecipe handles DELETE /meal-plans/{id}/items/{day}/{mealType}
func (h *MealPlanHandlers) RemoveRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	day, err := strconv.Atoi(chi.URLParam(r, "day"))
	if err != nil {
		h.writeError(w, r, errors.NewValidationError("day_of_week", "must be an integer between 0 and 6"))
		return
	}
	mealType, err := mealplan.ParseMealType(chi.URLParam(r, "mealType"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	plan, err := h.plans.RemoveRecipe(r.Context(), id, mealplan.Slot{Day: mealplan.DayOfWeek(day), MealType: mealType})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, plan, "Recipe removed")
}

// Clear handles DELETE /meal-plans/{id}/items
func (h *MealPlanHandlers) Clear(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	plan, err := h.plans.Clear(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, plan, "Meal plan cleared")
}
