package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/alchemorsel/mealplan/internal/domain/ai"
	"github.com/alchemorsel/mealplan/internal/domain/recipe"
	"github.com/alchemorsel/mealplan/internal/domain/shared"
	"github.com/alchemorsel/mealplan/internal/ports/inbound"
	"github.com/alchemorsel/mealplan/internal/ports/outbound"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockRecipeGenerator provides a mock implementation of RecipeGenerator
type MockRecipeGenerator struct {
	mock.Mock
}

var _ outbound.RecipeGenerator = (*MockRecipeGenerator)(nil)

// Generate records the call and returns the configured payload
func (m *MockRecipeGenerator) Generate(ctx context.Context, input ai.GenerationInput) (*ai.RecipePayload, error) {
	args := m.Called(ctx, input)
	var payload *ai.RecipePayload
	switch v := args.Get(0).(type) {
	case func(context.Context, ai.GenerationInput) *ai.RecipePayload:
		payload = v(ctx, input)
	case *ai.RecipePayload:
		payload = v
	}
	return payload, args.Error(1)
}

// MockRecipeService provides a mock implementation of RecipeService
type MockRecipeService struct {
	mock.Mock
}

var _ inbound.RecipeService = (*MockRecipeService)(nil)

// Create records the call
func (m *MockRecipeService) Create(ctx context.Context, cmd inbound.CreateRecipeCommand) (*recipe.Recipe, error) {
	args := m.Called(ctx, cmd)
	r, _ := args.Get(0).(*recipe.Recipe)
	return r, args.Error(1)
}

// GetByID records the call
func (m *MockRecipeService) GetByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*recipe.Recipe)
	return r, args.Error(1)
}

// Update records the call
func (m *MockRecipeService) Update(ctx context.Context, id uuid.UUID, patch recipe.Patch) (*recipe.Recipe, error) {
	args := m.Called(ctx, id, patch)
	r, _ := args.Get(0).(*recipe.Recipe)
	return r, args.Error(1)
}

// Search records the call
func (m *MockRecipeService) Search(ctx context.Context, query inbound.SearchQuery) (*inbound.RecipeList, error) {
	args := m.Called(ctx, query)
	list, _ := args.Get(0).(*inbound.RecipeList)
	return list, args.Error(1)
}

// RecordingDispatcher captures dispatched events and forwards them to
// registered handlers
type RecordingDispatcher struct {
	mu       sync.Mutex
	events   []shared.DomainEvent
	handlers map[string][]shared.EventHandler
}

// NewRecordingDispatcher creates an empty recorder
func NewRecordingDispatcher() *RecordingDispatcher {
	return &RecordingDispatcher{handlers: make(map[string][]shared.EventHandler)}
}

var _ shared.EventDispatcher = (*RecordingDispatcher)(nil)

// Dispatch implements shared.EventDispatcher
func (d *RecordingDispatcher) Dispatch(ctx context.Context, event shared.DomainEvent) error {
	d.mu.Lock()
	d.events = append(d.events, event)
	handlers := d.handlers[event.EventName()]
	d.mu.Unlock()

	for _, h := range handlers {
		_ = h(ctx, event)
	}
	return nil
}

// Register implements shared.EventDispatcher
func (d *RecordingDispatcher) Register(eventName string, handler shared.EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventName] = append(d.handlers[eventName], handler)
}

// Named returns the recorded events called name, in dispatch order
func (d *RecordingDispatcher) Named(name string) []shared.DomainEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []shared.DomainEvent
	for _, e := range d.events {
		if e.EventName() == name {
			out = append(out, e)
		}
	}
	return out
}

// RecordingMetrics counts MetricsRecorder calls
type RecordingMetrics struct {
	mu             sync.Mutex
	Attempts       []string
	Results        []bool
	Deletions      []bool
	Recalculations int
}

var _ outbound.MetricsRecorder = (*RecordingMetrics)(nil)

// IntakeAttempt implements outbound.MetricsRecorder
func (m *RecordingMetrics) IntakeAttempt(outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Attempts = append(m.Attempts, outcome)
}

// IntakeResult implements outbound.MetricsRecorder
func (m *RecordingMetrics) IntakeResult(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Results = append(m.Results, success)
}

// RecipeDeleted implements outbound.MetricsRecorder
func (m *RecordingMetrics) RecipeDeleted(cascaded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deletions = append(m.Deletions, cascaded)
}

// RatingRecalculated implements outbound.MetricsRecorder
func (m *RecordingMetrics) RatingRecalculated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Recalculations++
}
