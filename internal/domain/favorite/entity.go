// Package favorite models a user's favorite recipes and personal ratings.
package favorite

import (
	"time"
	"unicode/utf8"

	"github.com/alchemorsel/mealplan/internal/domain/shared"
	"github.com/google/uuid"
)

const (
	MinRating = 1
	MaxRating = 5

	maxNotesLength = 1000
)

var (
	ErrInvalidRating = shared.NewFieldError("rating", "rating must be between 1 and 5")
	ErrNotesTooLong  = shared.NewFieldError("notes", "personal notes must not exceed 1000 characters")
)

// Favorite is keyed by (UserID, RecipeID); a user favorites a recipe at most once.
// PersonalRating is nil when the user has favorited without rating.
type Favorite struct {
	UserID         uuid.UUID `json:"user_id"`
	RecipeID       uuid.UUID `json:"recipe_id"`
	PersonalRating *int      `json:"personal_rating"`
	PersonalNotes  *string   `json:"personal_notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// New creates an unrated favorite
func New(userID, recipeID uuid.UUID) *Favorite {
	now := time.Now().UTC()
	return &Favorite{
		UserID:    userID,
		RecipeID:  recipeID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsRated reports whether the favorite carries a personal rating
func (f *Favorite) IsRated() bool {
	return f.PersonalRating != nil
}

// ValidateRating checks a personal rating value
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return ErrInvalidRating
	}
	return nil
}

// ValidateNotes checks personal notes
func ValidateNotes(notes *string) error {
	if notes != nil && utf8.RuneCountInString(*notes) > maxNotesLength {
		return ErrNotesTooLong
	}
	return nil
}
