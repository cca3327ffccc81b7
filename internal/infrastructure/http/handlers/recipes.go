package handlers

import (
	"net/http"

	"github.com/alchemorsel/mealplan/internal/domain/recipe"
	"github.com/alchemorsel/mealplan/internal/ports/inbound"
	"github.com/alchemorsel/mealplan/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecipeHandlers serves recipe CRUD and the cross-entity recipe operations
type RecipeHandlers struct {
	responder
	recipes     inbound.RecipeService
	ledger      inbound.RelationshipLedger
	consistency inbound.ConsistencyEngine
}

// NewRecipeHandlers creates recipe handlers
func NewRecipeHandlers(
	recipes inbound.RecipeService,
	ledger inbound.RelationshipLedger,
	consistency inbound.ConsistencyEngine,
	logger *zap.Logger,
) *RecipeHandlers {
	return &RecipeHandlers{
		responder:   responder{logger: logger.Named("recipe-handlers")},
		recipes:     recipes,
		ledger:      ledger,
		consistency: consistency,
	}
}

// Create handles POST /recipes. The caller, when identified, becomes the creator.
func (h *RecipeHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.CreateRecipeCommand
	if err := decode(r, &cmd); err != nil {
		h.writeError(w, r, err)
		return
	}
	if id, err := callerID(r); err == nil {
		cmd.CreatedBy = &id
	}

	created, err := h.recipes.Create(r.Context(), cmd)
	if err != nil {
		h.writeJSON(w, errorStatus(err), inbound.NewCreationResult(nil, err))
		return
	}
	h.writeJSON(w, http.StatusCreated, inbound.NewCreationResult(created, nil))
}

// Get handles GET /recipes/{id}
func (h *RecipeHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	found, err := h.recipes.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, inbound.NewRecipeDTO(found), "")
}

type updateRecipeRequest struct {
	Name         *string               `json:"name"`
	Description  *string               `json:"description"`
	Ingredients  *[]recipe.Ingredient  `json:"ingredients"`
	Instructions *string               `json:"instructions"`
	Nutrition    *recipe.NutritionInfo `json:"nutrition"`
	Cuisine      *string               `json:"cuisine"`
	Difficulty   *string               `json:"difficulty"`
	PrepTime     *int                  `json:"prep_time"`
	CookTime     *int                  `json:"cook_time"`
	Servings     *int                  `json:"servings"`
	ImageURL     *string               `json:"image_url"`
	Tags         *[]string             `json:"tags"`
}

func (req updateRecipeRequest) patch() (recipe.Patch, error) {
	p := recipe.Patch{
		Name:         req.Name,
		Description:  req.Description,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
		Nutrition:    req.Nutrition,
		Cuisine:      req.Cuisine,
		PrepTime:     req.PrepTime,
		CookTime:     req.CookTime,
		Servings:     req.Servings,
		ImageURL:     req.ImageURL,
		Tags:         req.Tags,
	}
	if req.Difficulty != nil {
		d, err := recipe.ParseDifficulty(*req.Difficulty)
		if err != nil {
			return p, err
		}
		p.Difficulty = &d
	}
	return p, nil
}

// Update handles PATCH /recipes/{id}
func (h *RecipeHandlers) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req updateRecipeRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	patch, err := req.patch()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	updated, err := h.recipes.Update(r.Context(), id, patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, inbound.NewRecipeDTO(updated), "Recipe updated")
}

// Search handles GET /recipes
func (h *RecipeHandlers) Search(w http.ResponseWriter, r *http.Request) {
	page, err := pagination(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	aiGenerated, err := boolQuery(r, "ai_generated")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	query := inbound.SearchQuery{
		Text:        q.Get("q"),
		Cuisine:     q.Get("cuisine"),
		Difficulty:  q.Get("difficulty"),
		Tags:        listQuery(r, "tags"),
		AIGenerated: aiGenerated,
		Pagination:  page,
	}
	if raw := q.Get("created_by"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.writeError(w, r, errors.NewValidationError("created_by", "must be a valid UUID"))
			return
		}
		query.CreatedBy = &id
	}

	list, err := h.recipes.Search(r.Context(), query)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, list, "")
}

// Delete handles DELETE /recipes/{id}?cascade=true
func (h *RecipeHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	cascade, err := boolQuery(r, "cascade")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.consistency.DeleteRecipe(r.Context(), id, cascade != nil && *cascade)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, result, "Recipe deleted")
}

// Usage handles GET /recipes/{id}/usage
func (h *RecipeHandlers) Usage(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	stats, err := h.ledger.UsageStats(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, stats, "")
}

// Relationships handles GET /recipes/{id}/relationships
func (h *RecipeHandlers) Relationships(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	rels, err := h.ledger.Relationships(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, rels, "")
}

// RecalculateRating handles POST /recipes/{id}/rating/recalculate
func (h *RecipeHandlers) RecalculateRating(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	agg, err := h.ledger.RecalculateRating(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, agg, "Rating recalculated")
}

type rateRequest struct {
	Rating int     `json:"rating"`
	Notes  *string `json:"notes"`
}

// Rate handles PUT /recipes/{id}/rating for the calling user
func (h *RecipeHandlers) Rate(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	userID, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req rateRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	rated, err := h.consistency.AddRecipeRating(r.Context(), inbound.RateRecipeCommand{
		UserID:   userID,
		RecipeID: id,
		Rating:   req.Rating,
		Notes:    req.Notes,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, inbound.NewRecipeDTO(rated), "Rating saved")
}

// Unrate handles DELETE /recipes/{id}/rating for the calling user
func (h *RecipeHandlers) Unrate(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	userID, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	updated, err := h.consistency.RemoveRecipeRating(r.Context(), userID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, inbound.NewRecipeDTO(updated), "Rating removed")
}

type shareRequest struct {
	ToUserID uuid.UUID `json:"to_user_id"`
}

// Share handles POST /recipes/{id}/share; the caller is the sharing user
func (h *RecipeHandlers) Share(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	fromUser, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req shareRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	shared, err := h.consistency.ShareRecipe(r.Context(), id, fromUser, req.ToUserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusCreated, inbound.NewRecipeDTO(shared), "Recipe shared")
}

// Popular handles GET /recipes/popular
func (h *RecipeHandlers) Popular(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	popular, err := h.consistency.GetPopularRecipes(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, popular, "")
}
