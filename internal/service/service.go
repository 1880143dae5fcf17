package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Dan9191/daily-diet/internal/metrics"
	"github.com/Dan9191/daily-diet/internal/models"
	"github.com/Dan9191/daily-diet/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrMealNotFound is returned when a meal does not exist or belongs to another user
	ErrMealNotFound = errors.New("meal not found")
	// ErrUnknownSession is returned when no user was registered with a session
	ErrUnknownSession = errors.New("no user registered for session")
)

// Store is the persistence contract implemented by repository.Repository
type Store interface {
	Ping(ctx context.Context) error
	CreateUser(ctx context.Context, user *models.User) error
	FindUserBySession(ctx context.Context, sessionID string) (*models.User, error)
	ListUsersBySession(ctx context.Context, sessionID string) ([]models.User, error)
	CreateMeal(ctx context.Context, meal *models.Meal) error
	ListMeals(ctx context.Context, userID string) ([]models.Meal, error)
	FindMeal(ctx context.Context, id, userID string) (*models.Meal, error)
	UpdateMeal(ctx context.Context, id, userID string, upd models.MealUpdate) error
	DeleteMeal(ctx context.Context, id, userID string) error
	CountUsers(ctx context.Context) (int64, error)
	CountMeals(ctx context.Context) (int64, error)
}

var _ Store = (*repository.Repository)(nil)

// Mailer sends registration mail
type Mailer interface {
	SendWelcome(to, name string) error
}

// Service handles business logic
type Service struct {
	store   Store
	log     *logrus.Logger
	metrics *metrics.Metrics
	mailer  Mailer
	mail    sync.WaitGroup
}

// NewService initializes a new service. mailer may be nil to disable welcome mail.
func NewService(store Store, log *logrus.Logger, m *metrics.Metrics, mailer Mailer) *Service {
	return &Service{store: store, log: log, metrics: m, mailer: mailer}
}

// Close waits for pending welcome mails until ctx is done
func (s *Service) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.mail.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("pending welcome mails abandoned: %w", ctx.Err())
	}
}

// Ping checks the backing store
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Register creates a new user bound to sessionID
func (s *Service) Register(ctx context.Context, sessionID, name, email string) (*models.User, error) {
	user := &models.User{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Name:      name,
		Email:     email,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.metrics.UserRegistered()
	s.log.WithField("user_id", user.ID).Infof("User registered: %s", user.Email)

	if s.mailer != nil {
		s.mail.Add(1)
		go func(to, name string) {
			defer s.mail.Done()
			// Failures are logged by the mailer and never surface to the caller.
			_ = s.mailer.SendWelcome(to, name)
		}(user.Email, user.Name)
	}
	return user, nil
}

// ResolveSession returns the user the session was issued for
func (s *Service) ResolveSession(ctx context.Context, sessionID string) (*models.User, error) {
	user, err := s.store.FindUserBySession(ctx, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnknownSession
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers returns every user registered with the session
func (s *Service) ListUsers(ctx context.Context, sessionID string) ([]models.User, error) {
	return s.store.ListUsersBySession(ctx, sessionID)
}

// CreateMeal records a meal for the user
func (s *Service) CreateMeal(ctx context.Context, userID, name, description string, date time.Time, isOnDiet bool) (*models.Meal, error) {
	meal := &models.Meal{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Description: description,
		Date:        date.UnixMilli(),
		IsOnDiet:    isOnDiet,
	}

	if err := s.store.CreateMeal(ctx, meal); err != nil {
		return nil, err
	}
	s.metrics.MealCreated()
	s.log.WithFields(logrus.Fields{"user_id": userID, "meal_id": meal.ID}).Info("Meal created")
	return meal, nil
}

// ListMeals returns the user's meals, most recent first
func (s *Service) ListMeals(ctx context.Context, userID string) ([]models.Meal, error) {
	return s.store.ListMeals(ctx, userID)
}

// GetMeal returns a meal owned by the user
func (s *Service) GetMeal(ctx context.Context, userID, id string) (*models.Meal, error) {
	meal, err := s.store.FindMeal(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrMealNotFound
	}
	if err != nil {
		return nil, err
	}
	return meal, nil
}

// UpdateMeal applies a partial update to a meal owned by the user
func (s *Service) UpdateMeal(ctx context.Context, userID, id string, upd models.MealUpdate) error {
	meal, err := s.GetMeal(ctx, userID, id)
	if err != nil {
		return err
	}
	return s.ApplyMealUpdate(ctx, meal, upd)
}

// ApplyMealUpdate writes upd to a meal already loaded through GetMeal.
// A meal deleted since it was loaded is a silent no-op.
func (s *Service) ApplyMealUpdate(ctx context.Context, meal *models.Meal, upd models.MealUpdate) error {
	if upd.Empty() {
		return nil
	}

	err := s.store.UpdateMeal(ctx, meal.ID, meal.UserID, upd)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.WithField("meal_id", meal.ID).Debug("Meal vanished before update")
		return nil
	}
	if err != nil {
		return err
	}
	s.metrics.MealUpdated()
	s.log.WithFields(logrus.Fields{"user_id": meal.UserID, "meal_id": meal.ID}).Info("Meal updated")
	return nil
}

// DeleteMeal removes a meal owned by the user
func (s *Service) DeleteMeal(ctx context.Context, userID, id string) error {
	if _, err := s.GetMeal(ctx, userID, id); err != nil {
		return err
	}

	err := s.store.DeleteMeal(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.WithField("meal_id", id).Debug("Meal vanished before delete")
		return nil
	}
	if err != nil {
		return err
	}
	s.metrics.MealDeleted()
	s.log.WithFields(logrus.Fields{"user_id": userID, "meal_id": id}).Info("Meal deleted")
	return nil
}

// Metrics computes diet adherence for the user
func (s *Service) Metrics(ctx context.Context, userID string) (models.MealMetrics, error) {
	meals, err := s.store.ListMeals(ctx, userID)
	if err != nil {
		return models.MealMetrics{}, err
	}
	return Summarize(meals), nil
}

// Stats returns store-wide totals
func (s *Service) Stats(ctx context.Context) (models.Stats, error) {
	users, err := s.store.CountUsers(ctx)
	if err != nil {
		return models.Stats{}, fmt.Errorf("failed to collect stats: %w", err)
	}
	meals, err := s.store.CountMeals(ctx)
	if err != nil {
		return models.Stats{}, fmt.Errorf("failed to collect stats: %w", err)
	}
	return models.Stats{Users: users, Meals: meals}, nil
}

// Summarize scans meals in the given order and counts them.
// BestOnDietSequence is the longest run of adjacent on-diet meals.
func Summarize(meals []models.Meal) models.MealMetrics {
	var (
		out     models.MealMetrics
		current int
	)
	for _, meal := range meals {
		out.Meals++
		if meal.IsOnDiet {
			out.MealsIsOnDiet++
			current++
		} else {
			out.MealsIsOutDiet++
			current = 0
		}
		if current > out.BestOnDietSequence {
			out.BestOnDietSequence = current
		}
	}
	return out
}
