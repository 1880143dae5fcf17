package models

// MealMetrics represents diet adherence statistics for a user
type MealMetrics struct {
	Meals              int `json:"meals"`
	MealsIsOnDiet      int `json:"mealsIsOnDiet"`
	MealsIsOutDiet     int `json:"mealsIsOutDiet"`
	BestOnDietSequence int `json:"bestOnDietSequence"`
}

// Stats represents store-wide totals
type Stats struct {
	Users int64 `json:"users"`
	Meals int64 `json:"meals"`
}
