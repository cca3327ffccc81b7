// Package collection models user-curated groups of recipes.
package collection

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alchemorsel/mealplan/internal/domain/shared"
	"github.com/google/uuid"
)

const maxNameLength = 100

var (
	ErrNameRequired = shared.NewFieldError("name", "collection name is required")
	ErrNameTooLong  = shared.NewFieldError("name", "collection name must not exceed 100 characters")
	ErrInvalidColor = shared.NewFieldError("color", "color must be a hex value like #22c55e")
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Collection groups recipes by reference; it never owns them.
type Collection struct {
	ID          uuid.UUID   `json:"id"`
	OwnerID     uuid.UUID   `json:"owner_id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Color       string      `json:"color,omitempty"`
	Icon        string      `json:"icon,omitempty"`
	IsPublic    bool        `json:"is_public"`
	Tags        []string    `json:"tags"`
	RecipeIDs   []uuid.UUID `json:"recipe_ids"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// New creates a validated collection
func New(c Collection) (*Collection, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, ErrNameRequired
	}
	if utf8.RuneCountInString(c.Name) > maxNameLength {
		return nil, ErrNameTooLong
	}
	if c.Color != "" && !hexColor.MatchString(c.Color) {
		return nil, ErrInvalidColor
	}

	now := time.Now().UTC()
	c.ID = uuid.New()
	c.RecipeIDs = nil
	c.CreatedAt = now
	c.UpdatedAt = now
	return &c, nil
}
