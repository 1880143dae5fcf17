package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dan9191/daily-diet/internal/models"
	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a row does not exist or is not owned by the caller
var ErrNotFound = errors.New("not found")

// Repository provides database operations
type Repository struct {
	db *sqlx.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Ping checks database connectivity
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, session_id, name, email)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`
	err := r.db.QueryRowxContext(ctx, query, user.ID, user.SessionID, user.Name, user.Email).
		Scan(&user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserBySession retrieves the earliest user registered with the session
func (r *Repository) FindUserBySession(ctx context.Context, sessionID string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, session_id, name, email, created_at
		FROM users
		WHERE session_id = $1
		ORDER BY created_at, id
		LIMIT 1`
	err := r.db.GetContext(ctx, user, query, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// ListUsersBySession retrieves every user registered with the session
func (r *Repository) ListUsersBySession(ctx context.Context, sessionID string) ([]models.User, error) {
	users := []models.User{}
	query := `
		SELECT id, session_id, name, email, created_at
		FROM users
		WHERE session_id = $1
		ORDER BY created_at, id`
	if err := r.db.SelectContext(ctx, &users, query, sessionID); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// CreateMeal creates a new meal in the database
func (r *Repository) CreateMeal(ctx context.Context, meal *models.Meal) error {
	query := `
		INSERT INTO meals (id, user_id, name, description, date, is_on_diet)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`
	err := r.db.QueryRowxContext(ctx, query, meal.ID, meal.UserID, meal.Name, meal.Description, meal.Date, meal.IsOnDiet).
		Scan(&meal.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create meal: %w", err)
	}
	return nil
}

// ListMeals retrieves a user's meals, most recent first
func (r *Repository) ListMeals(ctx context.Context, userID string) ([]models.Meal, error) {
	meals := []models.Meal{}
	query := `
		SELECT id, user_id, name, description, date, is_on_diet, created_at
		FROM meals
		WHERE user_id = $1
		ORDER BY date DESC, created_at DESC`
	if err := r.db.SelectContext(ctx, &meals, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}
	return meals, nil
}

// FindMeal retrieves a meal owned by the user
func (r *Repository) FindMeal(ctx context.Context, id, userID string) (*models.Meal, error) {
	meal := &models.Meal{}
	query := `
		SELECT id, user_id, name, description, date, is_on_diet, created_at
		FROM meals
		WHERE id = $1 AND user_id = $2`
	err := r.db.GetContext(ctx, meal, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find meal: %w", err)
	}
	return meal, nil
}

// UpdateMeal applies a partial update to a meal owned by the user.
// Nil fields keep their stored value.
func (r *Repository) UpdateMeal(ctx context.Context, id, userID string, upd models.MealUpdate) error {
	query := `
		UPDATE meals
		SET name = COALESCE($3, name),
			description = COALESCE($4, description),
			date = COALESCE($5, date),
			is_on_diet = COALESCE($6, is_on_diet)
		WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, userID, upd.Name, upd.Description, upd.Date, upd.IsOnDiet)
	if err != nil {
		return fmt.Errorf("failed to update meal: %w", err)
	}
	return expectAffected(res)
}

// DeleteMeal removes a meal owned by the user
func (r *Repository) DeleteMeal(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM meals WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete meal: %w", err)
	}
	return expectAffected(res)
}

// CountUsers returns the number of registered users
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// CountMeals returns the number of recorded meals
func (r *Repository) CountMeals(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM meals`); err != nil {
		return 0, fmt.Errorf("failed to count meals: %w", err)
	}
	return n, nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
