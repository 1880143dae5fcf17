// Package servicetest provides an in-memory service.Store for tests.
package servicetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Dan9191/daily-diet/internal/models"
	"github.com/Dan9191/daily-diet/internal/repository"
)

type storedMeal struct {
	meal models.Meal
	seq  int
}

// MemoryStore keeps users and meals in maps and mirrors the repository's ordering and errors
type MemoryStore struct {
	mu sync.Mutex

	users []models.User
	meals map[string]*storedMeal
	seq   int

	nextErr map[string]error
	calls   map[string]int
}

// NewMemoryStore returns an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		meals:   make(map[string]*storedMeal),
		nextErr: make(map[string]error),
		calls:   make(map[string]int),
	}
}

// SetErr makes the next call to op fail with err
func (s *MemoryStore) SetErr(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextErr[op] = err
}

// Calls returns how many times op has been invoked
func (s *MemoryStore) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *MemoryStore) takeErr(op string) error {
	s.calls[op]++
	if err, ok := s.nextErr[op]; ok {
		delete(s.nextErr, op)
		return err
	}
	return nil
}

// Users returns a copy of every stored user
func (s *MemoryStore) Users() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.User(nil), s.users...)
}

func (s *MemoryStore) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.takeErr("Ping")
}

func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("CreateUser"); err != nil {
		return err
	}
	s.seq++
	user.CreatedAt = time.Unix(int64(s.seq), 0).UTC()
	s.users = append(s.users, *user)
	return nil
}

func (s *MemoryStore) FindUserBySession(_ context.Context, sessionID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("FindUserBySession"); err != nil {
		return nil, err
	}
	for _, u := range s.users {
		if u.SessionID == sessionID {
			out := u
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *MemoryStore) ListUsersBySession(_ context.Context, sessionID string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("ListUsersBySession"); err != nil {
		return nil, err
	}
	out := []models.User{}
	for _, u := range s.users {
		if u.SessionID == sessionID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateMeal(_ context.Context, meal *models.Meal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("CreateMeal"); err != nil {
		return err
	}
	s.seq++
	meal.CreatedAt = time.Unix(int64(s.seq), 0).UTC()
	s.meals[meal.ID] = &storedMeal{meal: *meal, seq: s.seq}
	return nil
}

func (s *MemoryStore) ListMeals(_ context.Context, userID string) ([]models.Meal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("ListMeals"); err != nil {
		return nil, err
	}
	var owned []*storedMeal
	for _, m := range s.meals {
		if m.meal.UserID == userID {
			owned = append(owned, m)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if owned[i].meal.Date != owned[j].meal.Date {
			return owned[i].meal.Date > owned[j].meal.Date
		}
		return owned[i].seq > owned[j].seq
	})
	out := make([]models.Meal, 0, len(owned))
	for _, m := range owned {
		out = append(out, m.meal)
	}
	return out, nil
}

func (s *MemoryStore) FindMeal(_ context.Context, id, userID string) (*models.Meal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("FindMeal"); err != nil {
		return nil, err
	}
	m, ok := s.meals[id]
	if !ok || m.meal.UserID != userID {
		return nil, repository.ErrNotFound
	}
	out := m.meal
	return &out, nil
}

func (s *MemoryStore) UpdateMeal(_ context.Context, id, userID string, upd models.MealUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("UpdateMeal"); err != nil {
		return err
	}
	m, ok := s.meals[id]
	if !ok || m.meal.UserID != userID {
		return repository.ErrNotFound
	}
	if upd.Name != nil {
		m.meal.Name = *upd.Name
	}
	if upd.Description != nil {
		m.meal.Description = *upd.Description
	}
	if upd.Date != nil {
		m.meal.Date = *upd.Date
	}
	if upd.IsOnDiet != nil {
		m.meal.IsOnDiet = *upd.IsOnDiet
	}
	return nil
}

func (s *MemoryStore) DeleteMeal(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("DeleteMeal"); err != nil {
		return err
	}
	m, ok := s.meals[id]
	if !ok || m.meal.UserID != userID {
		return repository.ErrNotFound
	}
	delete(s.meals, id)
	return nil
}

func (s *MemoryStore) CountUsers(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("CountUsers"); err != nil {
		return 0, err
	}
	return int64(len(s.users)), nil
}

func (s *MemoryStore) CountMeals(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("CountMeals"); err != nil {
		return 0, err
	}
	return int64(len(s.meals)), nil
}
