package ai_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	appai "github.com/alchemorsel/mealplan/internal/application/ai"
	apprecipe "github.com/alchemorsel/mealplan/internal/application/recipe"
	"github.com/alchemorsel/mealplan/internal/domain/ai"
	"github.com/alchemorsel/mealplan/internal/ports/inbound"
	"github.com/alchemorsel/mealplan/pkg/errors"
	"github.com/alchemorsel/mealplan/test/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
)

// generatorFunc adapts a function to outbound.RecipeGenerator
type generatorFunc func(ctx context.Context, input ai.GenerationInput) (*ai.RecipePayload, error)

func (f generatorFunc) Generate(ctx context.Context, input ai.GenerationInput) (*ai.RecipePayload, error) {
	return f(ctx, input)
}

type PipelineTestSuite struct {
	suite.Suite
	ctx       context.Context
	repos     *testutils.Repositories
	recipes   *apprecipe.RecipeService
	generator *testutils.MockRecipeGenerator
	metrics   *testutils.RecordingMetrics
	backoffs  []int
	mu        sync.Mutex
}

func TestPipelineTestSuite(t *testing.T) {
	suite.Run(t, new(PipelineTestSuite))
}

func (s *PipelineTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.repos = testutils.NewRepositories(testutils.NewSQLiteDB(s.T()))
	s.recipes = apprecipe.NewRecipeService(s.repos.Recipes, s.repos.Tx, nil, 0, nil, zaptest.NewLogger(s.T()))
	s.generator = &testutils.MockRecipeGenerator{}
	s.metrics = &testutils.RecordingMetrics{}
	s.backoffs = nil
}

func (s *PipelineTestSuite) policy(maxRetries int) appai.RetryPolicy {
	policy := appai.DefaultRetryPolicy(maxRetries, 0, 3)
	policy.Backoff = func(attempt int) time.Duration {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.backoffs = append(s.backoffs, attempt)
		return 0
	}
	return policy
}

func (s *PipelineTestSuite) pipeline(recipes inbound.RecipeService) *appai.IntakePipeline {
	return appai.NewIntakePipeline(s.generator, recipes, appai.PipelineConfig{
		Policy:      s.policy(2),
		BatchLimit:  10,
		Concurrency: 3,
	}, s.metrics, zaptest.NewLogger(s.T()))
}

func fullInput(name string) ai.GenerationInput {
	return ai.GenerationInput{
		Name:                name,
		Cuisine:             "thai",
		DietaryRestrictions: []string{"vegan", "gluten-free", "nut-free", "soy-free", "low-sodium"},
		Servings:            2,
	}
}

func restricted(max int) interface{} {
	return mock.MatchedBy(func(in ai.GenerationInput) bool { return len(in.DietaryRestrictions) <= max })
}

func overRestricted(min int) interface{} {
	return mock.MatchedBy(func(in ai.GenerationInput) bool { return len(in.DietaryRestrictions) > min })
}

func (s *PipelineTestSuite) TestValidationFailure_RetriesWithSimplifiedInput() {
	input := fullInput("Green curry")

	invalid := testutils.ValidPayload(input)
	invalid.Difficulty = "legendary"
	second := testutils.ValidPayload(input)
	second.Name = "Simple green curry"

	s.generator.On("Generate", mock.Anything, overRestricted(3)).Return(invalid, nil).Once()
	s.generator.On("Generate", mock.Anything, restricted(3)).Return(second, nil).Once()

	requester := uuid.New()
	result := s.pipeline(s.recipes).CreateRecipeWithAIRetry(s.ctx, inbound.GenerateRecipeCommand{Input: input, RequestedBy: &requester})

	s.Require().True(result.Success, result.Message)
	s.Equal(ai.StatePersisted, result.State)
	s.Require().Len(result.Attempts, 2)
	s.Equal(ai.StateInvalid, result.Attempts[0].State)
	s.True(result.Attempts[1].Simplified)
	s.Empty(result.Attempts[1].Input.Cuisine)
	s.Equal([]string{"vegan", "gluten-free", "nut-free"}, result.Attempts[1].Input.DietaryRestrictions)

	stored, err := s.repos.Recipes.FindByID(s.ctx, result.Recipe.ID)
	s.Require().NoError(err)
	s.Equal("Simple green curry", stored.Name)
	s.True(stored.AIGenerated)
	s.Equal(requester, *stored.CreatedBy)
	s.Equal(15, stored.TotalTime())

	s.Equal([]string{string(ai.StateInvalid), string(ai.StatePersisted)}, s.metrics.Attempts)
	s.Equal([]bool{true}, s.metrics.Results)
	s.Empty(s.backoffs)
	s.generator.AssertExpectations(s.T())
}

func (s *PipelineTestSuite) TestTotalTimeMismatch_NeverReachesStore() {
	input := fullInput("Pad thai")
	payload := testutils.ValidPayload(input)
	payload.TotalTime = 99

	s.generator.On("Generate", mock.Anything, mock.Anything).Return(payload, nil)
	store := &testutils.MockRecipeService{}

	result := s.pipeline(store).CreateRecipeWithAIRetry(s.ctx, inbound.GenerateRecipeCommand{Input: input})

	s.False(result.Success)
	s.Equal(ai.StateFailed, result.State)
	s.Len(result.Attempts, 2, "one simplified retry, then give up")
	s.Require().NotEmpty(result.Errors)
	s.Equal("total_time", result.Errors[0].Field)
	store.AssertNotCalled(s.T(), "Create", mock.Anything, mock.Anything)
	s.Equal([]bool{false}, s.metrics.Results)
}

func (s *PipelineTestSuite) TestTransientFailure_BacksOffWithSameInput() {
	input := fullInput("Tom yum")
	s.generator.On("Generate", mock.Anything, input).Return(nil, fmt.Errorf("connection refused")).Twice()
	s.generator.On("Generate", mock.Anything, input).Return(testutils.ValidPayload(input), nil).Once()

	result := s.pipeline(s.recipes).CreateRecipeWithAIRetry(s.ctx, inbound.GenerateRecipeCommand{Input: input})

	s.Require().True(result.Success, result.Message)
	s.Len(result.Attempts, 3)
	s.Equal([]int{1, 2}, s.backoffs)
	for _, attempt := range result.Attempts {
		s.False(attempt.Simplified)
	}
	s.generator.AssertExpectations(s.T())
}

func (s *PipelineTestSuite) TestTransientFailure_ExhaustsRetries() {
	input := fullInput("Larb")
	s.generator.On("Generate", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("timeout"))

	result := s.pipeline(s.recipes).CreateRecipeWithAIRetry(s.ctx, inbound.GenerateRecipeCommand{Input: input})

	s.False(result.Success)
	s.Equal(ai.StateFailed, result.State)
	s.Len(result.Attempts, 3)
	s.Equal([]int{1, 2}, s.backoffs)
	s.Contains(result.Message, "temporarily unavailable")
	s.generator.AssertNumberOfCalls(s.T(), "Generate", 3)
}

func (s *PipelineTestSuite) TestInvalidInput_ShortCircuits() {
	tests := []struct {
		name  string
		input ai.GenerationInput
		field string
	}{
		{"blank name", ai.GenerationInput{Name: "   ", Servings: 2}, "name"},
		{"too many servings", ai.GenerationInput{Name: "Soup", Servings: 21}, "servings"},
		{"too many restrictions", ai.GenerationInput{Name: "Soup", Servings: 2, DietaryRestrictions: strings.Split("a,b,c,d,e,f,g,h,i,j,k", ",")}, "dietary_restrictions"},
		{"empty restriction", ai.GenerationInput{Name: "Soup", Servings: 2, DietaryRestrictions: []string{""}}, "dietary_restrictions"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			result := s.pipeline(s.recipes).CreateRecipeWithAIRetry(s.ctx, inbound.GenerateRecipeCommand{Input: tt.input})
			s.False(result.Success)
			s.Empty(result.Attempts)
			s.Require().NotEmpty(result.Errors)
			s.Equal(tt.field, result.Errors[0].Field)
		})
	}
	s.generator.AssertNotCalled(s.T(), "Generate", mock.Anything, mock.Anything)
}

func (s *PipelineTestSuite) TestDefaultServings() {
	input := ai.GenerationInput{Name: "Rice"}
	expected := input
	expected.Servings = ai.DefaultServings
	s.generator.On("Generate", mock.Anything, expected).Return(testutils.ValidPayload(expected), nil).Once()

	result := s.pipeline(s.recipes).CreateRecipeWithAIRetry(s.ctx, inbound.GenerateRecipeCommand{Input: input})
	s.Require().True(result.Success, result.Message)
	s.Equal(ai.DefaultServings, result.Recipe.Servings)
}

func (s *PipelineTestSuite) TestPersistFailure_IsTerminal() {
	input := fullInput("Satay")
	s.generator.On("Generate", mock.Anything, mock.Anything).Return(testutils.ValidPayload(input), nil)

	store := &testutils.MockRecipeService{}
	store.On("Create", mock.Anything, mock.Anything).
		Return(nil, errors.NewDatabaseError("create recipe", fmt.Errorf("disk full"))).Once()

	result := s.pipeline(store).CreateRecipeWithAIRetry(s.ctx, inbound.GenerateRecipeCommand{Input: input})

	s.False(result.Success)
	s.Equal(ai.StateFailed, result.State)
	s.Len(result.Attempts, 1)
	s.Equal(ai.StateValid, result.Attempts[0].State)
	store.AssertExpectations(s.T())
}

func (s *PipelineTestSuite) TestCancelledDuringBackoff() {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	called := make(chan struct{}, 1)
	generator := generatorFunc(func(context.Context, ai.GenerationInput) (*ai.RecipePayload, error) {
		select {
		case called <- struct{}{}:
		default:
		}
		return nil, fmt.Errorf("unavailable")
	})

	policy := appai.DefaultRetryPolicy(2, time.Hour, 3)
	pipeline := appai.NewIntakePipeline(generator, s.recipes, appai.PipelineConfig{Policy: policy}, nil, zaptest.NewLogger(s.T()))

	done := make(chan *inbound.IntakeResult, 1)
	go func() {
		done <- pipeline.CreateRecipeWithAIRetry(ctx, inbound.GenerateRecipeCommand{Input: fullInput("Khao soi")})
	}()

	// the first attempt fails fast and the pipeline parks in a two-hour backoff
	<-called
	cancel()

	select {
	case result := <-done:
		s.False(result.Success)
		s.Equal(ai.StateFailed, result.State)
		s.Len(result.Attempts, 1)
	case <-time.After(5 * time.Second):
		s.Fail("pipeline did not stop after cancellation")
	}
}

func (s *PipelineTestSuite) TestBatch_SettlesEveryItem() {
	s.generator.On("Generate", mock.Anything, mock.MatchedBy(func(in ai.GenerationInput) bool {
		return strings.HasPrefix(in.Name, "Broken")
	})).Return(nil, errors.NewValidationError("name", "generator refused"))
	s.generator.On("Generate", mock.Anything, mock.Anything).Return(
		func(_ context.Context, in ai.GenerationInput) *ai.RecipePayload { return testutils.ValidPayload(in) },
		nil,
	)

	cmds := []inbound.GenerateRecipeCommand{
		{Input: ai.GenerationInput{Name: "Dal", Servings: 2}},
		{Input: ai.GenerationInput{Name: "Broken stew", Servings: 2}},
		{Input: ai.GenerationInput{Name: "Naan", Servings: 2}},
	}
	results, err := s.pipeline(s.recipes).CreateMultipleRecipesWithAI(s.ctx, cmds)
	s.Require().NoError(err)
	s.Require().Len(results, 3)

	s.True(results[0].Success)
	s.Equal("Dal", results[0].Recipe.Name)
	s.False(results[1].Success)
	s.Equal("name", results[1].Errors[0].Field)
	s.True(results[2].Success)
	s.Equal("Naan", results[2].Recipe.Name)
}

func (s *PipelineTestSuite) TestBatch_Limits() {
	pipeline := s.pipeline(s.recipes)

	_, err := pipeline.CreateMultipleRecipesWithAI(s.ctx, nil)
	testutils.AssertFieldError(s.T(), err, "recipes")

	cmds := make([]inbound.GenerateRecipeCommand, 11)
	_, err = pipeline.CreateMultipleRecipesWithAI(s.ctx, cmds)
	appErr := testutils.AssertAppError(s.T(), err, errors.CodeValidationFailed)
	s.Equal(10, appErr.Metadata["limit"])
	s.generator.AssertNotCalled(s.T(), "Generate", mock.Anything, mock.Anything)
}

func TestBatch_PanicIsIsolated(t *testing.T) {
	repos := testutils.NewRepositories(testutils.NewSQLiteDB(t))
	recipes := apprecipe.NewRecipeService(repos.Recipes, repos.Tx, nil, 0, nil, zaptest.NewLogger(t))

	generator := generatorFunc(func(_ context.Context, in ai.GenerationInput) (*ai.RecipePayload, error) {
		if in.Name == "Explodes" {
			panic("generator bug")
		}
		return testutils.ValidPayload(in), nil
	})
	pipeline := appai.NewIntakePipeline(generator, recipes, appai.PipelineConfig{
		Policy:      appai.DefaultRetryPolicy(0, 0, 3),
		Concurrency: 2,
	}, nil, zaptest.NewLogger(t))

	results, err := pipeline.CreateMultipleRecipesWithAI(context.Background(), []inbound.GenerateRecipeCommand{
		{Input: ai.GenerationInput{Name: "Explodes", Servings: 1}},
		{Input: ai.GenerationInput{Name: "Fine", Servings: 1}},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.False(t, results[0].Success)
	assert.Equal(t, ai.StateFailed, results[0].State)
	assert.True(t, results[1].Success)
}

func TestNewGeneratorLimiter(t *testing.T) {
	unlimited := appai.NewGeneratorLimiter(0, 0)
	for i := 0; i < 100; i++ {
		assert.True(t, unlimited.Allow())
	}

	limited := appai.NewGeneratorLimiter(60, 2)
	assert.True(t, limited.Allow())
	assert.True(t, limited.Allow())
	assert.False(t, limited.Allow())
}
