package recipe

import (
	"time"

	"github.com/google/uuid"
)

// Event names
const (
	EventRecipeCreated = "recipe.created"
	EventRecipeUpdated = "recipe.updated"
	EventRecipeDeleted = "recipe.deleted"
	EventRecipeRated   = "recipe.rated"
	EventRecipeShared  = "recipe.shared"
)

// RecipeCreatedEvent is raised when a new recipe is persisted
type RecipeCreatedEvent struct {
	RecipeID    uuid.UUID
	Name        string
	AIGenerated bool
	CreatedAt   time.Time
}

func (e RecipeCreatedEvent) EventName() string     { return EventRecipeCreated }
func (e RecipeCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// RecipeUpdatedEvent is raised when authored fields of a recipe change
type RecipeUpdatedEvent struct {
	RecipeID  uuid.UUID
	UpdatedAt time.Time
}

func (e RecipeUpdatedEvent) EventName() string     { return EventRecipeUpdated }
func (e RecipeUpdatedEvent) OccurredAt() time.Time { return e.UpdatedAt }

// RecipeDeletedEvent is raised after a recipe has been removed
type RecipeDeletedEvent struct {
	RecipeID          uuid.UUID
	Cascaded          bool
	DetachedMealSlots int64
	DeletedAt         time.Time
}

func (e RecipeDeletedEvent) EventName() string     { return EventRecipeDeleted }
func (e RecipeDeletedEvent) OccurredAt() time.Time { return e.DeletedAt }

// RecipeRatedEvent is raised when the rating aggregate has been recomputed
type RecipeRatedEvent struct {
	RecipeID uuid.UUID
	Rating   RatingAggregate
	RatedAt  time.Time
}

func (e RecipeRatedEvent) EventName() string     { return EventRecipeRated }
func (e RecipeRatedEvent) OccurredAt() time.Time { return e.RatedAt }

// RecipeSharedEvent is raised when a recipe is forked to another user
type RecipeSharedEvent struct {
	SourceID uuid.UUID
	ForkID   uuid.UUID
	FromUser uuid.UUID
	ToUser   uuid.UUID
	SharedAt time.Time
}

func (e RecipeSharedEvent) EventName() string     { return EventRecipeShared }
func (e RecipeSharedEvent) OccurredAt() time.Time { return e.SharedAt }
