package entities

import "time"

// Recipe difficulty levels as stored in the backend.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Recipe is a row in the backend "recipes" table. Column names follow the
// backend schema, hence the snake_case JSON tags.
type Recipe struct {
	ID           string    `json:"id,omitempty"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Ingredients  string    `json:"ingredients"`
	Instructions string    `json:"instructions"`
	CookingTime  int       `json:"cooking_time"`
	Servings     int       `json:"servings"`
	Difficulty   string    `json:"difficulty"`
	Category     string    `json:"category"`
	ImageURL     string    `json:"image_url,omitempty"`
	IsPublished  bool      `json:"is_published"`
	UserID       string    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

// ValidDifficulty reports whether d is one of the accepted difficulty values.
func ValidDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}
