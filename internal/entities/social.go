package entities

import "time"

// Comment is a row in the backend "recipe_comments" table.
type Comment struct {
	ID        string    `json:"id,omitempty"`
	RecipeID  string    `json:"recipe_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Like is a row in the backend "recipe_likes" table. A user's liked recipes
// double as their saved recipes list.
type Like struct {
	ID        string    `json:"id,omitempty"`
	RecipeID  string    `json:"recipe_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}
