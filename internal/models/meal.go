package models

import "time"

// Meal represents a recorded meal. Date is stored as epoch milliseconds.
type Meal struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Date        int64     `json:"date" db:"date"`
	IsOnDiet    bool      `json:"is_on_diet" db:"is_on_diet"`
	CreatedAt   time.Time `json:"-" db:"created_at"`
}

// Time returns the meal date as a UTC time.Time
func (m Meal) Time() time.Time {
	return time.UnixMilli(m.Date).UTC()
}

// MealUpdate carries a partial update. Nil fields are left unchanged.
type MealUpdate struct {
	Name        *string
	Description *string
	Date        *int64
	IsOnDiet    *bool
}

// Empty reports whether the update changes nothing
func (u MealUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Date == nil && u.IsOnDiet == nil
}
