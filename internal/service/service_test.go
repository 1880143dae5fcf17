package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/Dan9191/daily-diet/internal/metrics"
	"github.com/Dan9191/daily-diet/internal/models"
	"github.com/Dan9191/daily-diet/internal/repository"
	"github.com/Dan9191/daily-diet/internal/service/servicetest"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Store = (*servicetest.MemoryStore)(nil)

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *recordingMailer) SendWelcome(to, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	return m.err
}

func newTestService(t *testing.T, mailer Mailer) (*Service, *servicetest.MemoryStore) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	store := servicetest.NewMemoryStore()
	return NewService(store, log, metrics.New(), mailer), store
}

func meal(onDiet bool) models.Meal {
	return models.Meal{IsOnDiet: onDiet}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name  string
		meals []models.Meal
		want  models.MealMetrics
	}{
		{
			name: "empty",
			want: models.MealMetrics{},
		},
		{
			name:  "all on diet",
			meals: []models.Meal{meal(true), meal(true), meal(true)},
			want:  models.MealMetrics{Meals: 3, MealsIsOnDiet: 3, BestOnDietSequence: 3},
		},
		{
			name:  "all off diet",
			meals: []models.Meal{meal(false), meal(false)},
			want:  models.MealMetrics{Meals: 2, MealsIsOutDiet: 2},
		},
		{
			// descending order of on, on, off (created in that order)
			name:  "two on then off",
			meals: []models.Meal{meal(false), meal(true), meal(true)},
			want:  models.MealMetrics{Meals: 3, MealsIsOnDiet: 2, MealsIsOutDiet: 1, BestOnDietSequence: 2},
		},
		{
			// descending order of on, on, off, on
			name:  "streak broken then resumed",
			meals: []models.Meal{meal(true), meal(false), meal(true), meal(true)},
			want:  models.MealMetrics{Meals: 4, MealsIsOnDiet: 3, MealsIsOutDiet: 1, BestOnDietSequence: 2},
		},
		{
			name:  "longest run in the middle",
			meals: []models.Meal{meal(true), meal(false), meal(true), meal(true), meal(true), meal(false), meal(true)},
			want:  models.MealMetrics{Meals: 7, MealsIsOnDiet: 5, MealsIsOutDiet: 2, BestOnDietSequence: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.meals)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got.Meals, got.MealsIsOnDiet+got.MealsIsOutDiet)
		})
	}
}

func TestRegisterSendsWelcomeMail(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("smtp down")}
	svc, store := newTestService(t, mailer)

	user, err := svc.Register(context.Background(), "s1", "John Doe", "john@test.com")
	require.NoError(t, err)
	require.NoError(t, svc.Close(context.Background()))

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "s1", user.SessionID)
	assert.Len(t, store.Users(), 1)
	assert.Equal(t, []string{"john@test.com"}, mailer.sent)
}

type blockingMailer struct {
	release chan struct{}
}

func (m *blockingMailer) SendWelcome(string, string) error {
	<-m.release
	return nil
}

func TestCloseGivesUpOnHangingMail(t *testing.T) {
	mailer := &blockingMailer{release: make(chan struct{})}
	defer close(mailer.release)
	svc, _ := newTestService(t, mailer)

	_, err := svc.Register(context.Background(), "s1", "John", "john@test.com")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, svc.Close(ctx), context.DeadlineExceeded)
}

func TestRegisterAllowsDuplicateEmails(t *testing.T) {
	svc, store := newTestService(t, nil)
	ctx := context.Background()

	first, err := svc.Register(ctx, "s1", "John", "john@test.com")
	require.NoError(t, err)
	second, err := svc.Register(ctx, "s1", "John", "john@test.com")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, store.Users(), 2)

	resolved, err := svc.ResolveSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, resolved.ID)
}

func TestResolveUnknownSession(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.ResolveSession(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestMealLifecycle(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	date := time.Date(2025, 6, 8, 19, 30, 0, 0, time.UTC)

	created, err := svc.CreateMeal(ctx, "u1", "Dinner", "Salad", date, false)
	require.NoError(t, err)
	assert.Equal(t, date.UnixMilli(), created.Date)

	name := "Lunch"
	require.NoError(t, svc.UpdateMeal(ctx, "u1", created.ID, models.MealUpdate{Name: &name}))

	got, err := svc.GetMeal(ctx, "u1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lunch", got.Name)
	assert.Equal(t, "Salad", got.Description)
	assert.Equal(t, date.UnixMilli(), got.Date)
	assert.False(t, got.IsOnDiet)
	assert.Equal(t, "u1", got.UserID)

	require.NoError(t, svc.DeleteMeal(ctx, "u1", created.ID))
	_, err = svc.GetMeal(ctx, "u1", created.ID)
	assert.ErrorIs(t, err, ErrMealNotFound)
}

func TestMealsAreScopedToOwner(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	created, err := svc.CreateMeal(ctx, "owner", "Dinner", "Soup", time.Now(), true)
	require.NoError(t, err)

	_, err = svc.GetMeal(ctx, "intruder", created.ID)
	assert.ErrorIs(t, err, ErrMealNotFound)
	assert.ErrorIs(t, svc.UpdateMeal(ctx, "intruder", created.ID, models.MealUpdate{}), ErrMealNotFound)
	assert.ErrorIs(t, svc.DeleteMeal(ctx, "intruder", created.ID), ErrMealNotFound)

	meals, err := svc.ListMeals(ctx, "intruder")
	require.NoError(t, err)
	assert.Empty(t, meals)
}

func TestUpdateRaceIsSilentNoop(t *testing.T) {
	svc, store := newTestService(t, nil)
	ctx := context.Background()

	created, err := svc.CreateMeal(ctx, "u1", "Dinner", "Soup", time.Now(), true)
	require.NoError(t, err)

	name := "Lunch"
	store.SetErr("UpdateMeal", repository.ErrNotFound)
	assert.NoError(t, svc.UpdateMeal(ctx, "u1", created.ID, models.MealUpdate{Name: &name}))
}

func TestApplyMealUpdateSkipsLookup(t *testing.T) {
	svc, store := newTestService(t, nil)
	ctx := context.Background()

	created, err := svc.CreateMeal(ctx, "u1", "Dinner", "Soup", time.Now(), true)
	require.NoError(t, err)

	diet := false
	require.NoError(t, svc.ApplyMealUpdate(ctx, created, models.MealUpdate{IsOnDiet: &diet}))
	require.NoError(t, svc.ApplyMealUpdate(ctx, created, models.MealUpdate{}))

	assert.Equal(t, 0, store.Calls("FindMeal"))
	assert.Equal(t, 1, store.Calls("UpdateMeal"))
	got, err := svc.GetMeal(ctx, "u1", created.ID)
	require.NoError(t, err)
	assert.False(t, got.IsOnDiet)
}

func TestStoreErrorsPropagate(t *testing.T) {
	svc, store := newTestService(t, nil)
	boom := errors.New("db down")

	store.SetErr("ListMeals", boom)
	_, err := svc.Metrics(context.Background(), "u1")
	assert.ErrorIs(t, err, boom)

	store.SetErr("CountMeals", boom)
	_, err = svc.Stats(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestMetricsUsesDateOrder(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	for i, onDiet := range []bool{true, true, false, true} {
		_, err := svc.CreateMeal(ctx, "u1", "Meal", "", base.Add(time.Duration(i)*time.Hour), onDiet)
		require.NoError(t, err)
	}

	got, err := svc.Metrics(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.MealMetrics{Meals: 4, MealsIsOnDiet: 3, MealsIsOutDiet: 1, BestOnDietSequence: 2}, got)
}

func TestStats(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "s1", "John", "john@test.com")
	require.NoError(t, err)
	_, err = svc.CreateMeal(ctx, "u1", "Dinner", "", time.Now(), true)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Stats{Users: 1, Meals: 1}, stats)
}
