package gorm

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	apperrors "github.com/alchemorsel/mealplan/pkg/errors"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code apperrors.ErrorCode
	}{
		{"not found", gorm.ErrRecordNotFound, apperrors.CodeNotFound},
		{"duplicate", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), apperrors.CodeConflict},
		{"foreign key", gorm.ErrForeignKeyViolated, apperrors.CodeConflict},
		{"check constraint", gorm.ErrCheckConstraintViolated, apperrors.CodeValidationFailed},
		{"canceled", context.Canceled, apperrors.CodeTransient},
		{"deadline", context.DeadlineExceeded, apperrors.CodeTransient},
		{"driver", stderrors.New("disk I/O error"), apperrors.CodeDatabaseError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translate(tt.err, recipeEntity, "42", "save recipe")
			assert.Equal(t, tt.code, apperrors.GetCode(err))
		})
	}

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, translate(nil, recipeEntity, "", "save recipe"))
	})

	t.Run("application errors pass through", func(t *testing.T) {
		in := apperrors.NewValidationError("name", "too long")
		assert.Same(t, in, translate(in, recipeEntity, "", "save recipe"))
	})

	t.Run("database errors are retryable", func(t *testing.T) {
		assert.True(t, apperrors.IsRetryable(translate(stderrors.New("connection reset"), recipeEntity, "", "find recipe")))
	})
}

func TestTranslate_DuplicateNamesUniqueField(t *testing.T) {
	tests := []struct {
		target entity
		field  string
	}{
		{recipeEntity, "id"},
		{mealPlanEntity, "name"},
		{activePlanEntity, "is_active"},
		{mealPlanItemEntity, "slot"},
		{favoriteEntity, "recipe_id"},
		{membershipEntity, "recipe_id"},
	}

	for _, tt := range tests {
		t.Run(tt.target.name, func(t *testing.T) {
			err := translate(gorm.ErrDuplicatedKey, tt.target, "42", "save")
			appErr, ok := apperrors.As(err)
			assert.True(t, ok)
			assert.Equal(t, apperrors.CodeConflict, appErr.Code)
			assert.Equal(t, tt.field, appErr.Field)
			assert.Equal(t, tt.target.name+" already exists", appErr.Message)
		})
	}
}
