package handlers

import (
	"net/http"

	"github.com/alchemorsel/mealplan/internal/ports/inbound"
	"go.uber.org/zap"
)

// LibraryHandlers serves the caller's favorites and collections
type LibraryHandlers struct {
	responder
	favorites   inbound.FavoriteService
	collections inbound.CollectionService
	consistency inbound.ConsistencyEngine
}

// NewLibraryHandlers creates favorite and collection handlers
func NewLibraryHandlers(
	favorites inbound.FavoriteService,
	collections inbound.CollectionService,
	consistency inbound.ConsistencyEngine,
	logger *zap.Logger,
) *LibraryHandlers {
	return &LibraryHandlers{
		responder:   responder{logger: logger.Named("library-handlers")},
		favorites:   favorites,
		collections: collections,
		consistency: consistency,
	}
}

// ListFavorites handles GET /favorites
func (h *LibraryHandlers) ListFavorites(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := pagination(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	favorites, total, err := h.favorites.ListForUser(r.Context(), userID, page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, map[string]interface{}{
		"favorites": favorites,
		"total":     total,
	}, "")
}

// AddFavorite handles PUT /favorites/{recipeID}
func (h *LibraryHandlers) AddFavorite(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	recipeID, err := uuidParam(r, "recipeID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	fav, err := h.favorites.Add(r.Context(), userID, recipeID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, fav, "Recipe favorited")
}

// GetFavorite handles GET /favorites/{recipeID}
func (h *LibraryHandlers) GetFavorite(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	recipeID, err := uuidParam(r, "recipeID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	fav, err := h.favorites.Get(r.Context(), userID, recipeID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, fav, "")
}

type notesRequest struct {
	Notes *string `json:"notes"`
}

// UpdateNotes handles PATCH /favorites/{recipeID}
func (h *LibraryHandlers) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	recipeID, err := uuidParam(r, "recipeID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req notesRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	fav, err := h.favorites.UpdateNotes(r.Context(), userID, recipeID, req.Notes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, fav, "Notes updated")
}

// RemoveFavorite handles DELETE /favorites/{recipeID}. The rating aggregate
// is recomputed because the favorite may have carried a rating.
func (h *LibraryHandlers) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	recipeID, err := uuidParam(r, "recipeID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.consistency.RemoveFavorite(r.Context(), userID, recipeID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, nil, "Favorite removed")
}

type createCollectionRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Color       string   `json:"color"`
	Icon        string   `json:"icon"`
	IsPublic    bool     `json:"is_public"`
	Tags        []string `json:"tags"`
}

// CreateCollection handles POST /collections
func (h *LibraryHandlers) CreateCollection(w http.ResponseWriter, r *http.Request) {
	ownerID, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req createCollectionRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	c, err := h.collections.Create(r.Context(), inbound.CreateCollectionCommand{
		OwnerID:     ownerID,
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Icon:        req.Icon,
		IsPublic:    req.IsPublic,
		Tags:        req.Tags,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusCreated, c, "Collection created")
}

// ListCollections handles GET /collections
func (h *LibraryHandlers) ListCollections(w http.ResponseWriter, r *http.Request) {
	ownerID, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	list, err := h.collections.ListForOwner(r.Context(), ownerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, list, "")
}

// GetCollection handles GET /collections/{id}
func (h *LibraryHandlers) GetCollection(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.collections.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, c, "")
}

// DeleteCollection handles DELETE /collections/{id}
func (h *LibraryHandlers) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.collections.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, nil, "Collection deleted")
}

// AddToCollection handles PUT /collections/{id}/recipes/{recipeID}
func (h *LibraryHandlers) AddToCollection(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	recipeID, err := uuidParam(r, "recipeID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.collections.AddRecipe(r.Context(), id, recipeID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, c, "Recipe added to collection")
}

// RemoveFromCollection handles DELETE /collections/{id}/recipes/{recipeID}
func (h *LibraryHandlers) RemoveFromCollection(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	recipeID, err := uuidParam(r, "recipeID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.collections.RemoveRecipe(r.Context(), id, recipeID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, c, "Recipe removed from collection")
}
