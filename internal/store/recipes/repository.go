// Package recipes is the data access layer for the recipes table. All reads
// and writes go through the backend's REST API with the caller's access
// token; the backend's row-level rules decide what the token may touch, the
// repository only adds ownership filters so a stale client fails fast.
package recipes

import (
	"context"
	"errors"
	"fmt"

	"github.com/galleyapp/galley/internal/backend"
	"github.com/galleyapp/galley/internal/entities"
	"github.com/galleyapp/galley/internal/security"
)

const table = "recipes"

// browseLimit caps the public recipe listing.
const browseLimit = 50

// searchColumns are the columns the free-text search matches against.
var searchColumns = []string{"title", "description", "ingredients", "category"}

var (
	ErrTitleRequired        = errors.New("recipe title is required")
	ErrInstructionsRequired = errors.New("recipe instructions are required")
	ErrInvalidDifficulty    = errors.New("difficulty must be easy, medium or hard")
)

// Repository provides access to recipes.
type Repository struct {
	client    *backend.Client
	sanitizer *security.Sanitizer
}

// New creates a recipe repository.
func New(client *backend.Client, sanitizer *security.Sanitizer) *Repository {
	return &Repository{client: client, sanitizer: sanitizer}
}

// ListPublished returns published recipes, newest first. A non-empty search
// term narrows the result with a case-insensitive match over title,
// description, ingredients and category.
func (r *Repository) ListPublished(ctx context.Context, accessToken, search string) ([]entities.Recipe, error) {
	q := r.client.From(table).
		Select("*").
		Eq("is_published", "true").
		Order("created_at", false).
		Limit(browseLimit)
	if search != "" {
		q.OrIlike(searchColumns, search)
	}

	var recipes []entities.Recipe
	if err := q.Get(ctx, accessToken, &recipes); err != nil {
		return nil, fmt.Errorf("listing recipes: %w", err)
	}
	return recipes, nil
}

// Get fetches a single recipe by id.
func (r *Repository) Get(ctx context.Context, accessToken, id string) (*entities.Recipe, error) {
	var recipe entities.Recipe
	err := r.client.From(table).
		Select("*").
		Eq("id", id).
		Single().
		Get(ctx, accessToken, &recipe)
	if err != nil {
		return nil, fmt.Errorf("fetching recipe %s: %w", id, err)
	}
	return &recipe, nil
}

// ListByUser returns every recipe owned by the user, drafts included,
// newest first.
func (r *Repository) ListByUser(ctx context.Context, accessToken, userID string) ([]entities.Recipe, error) {
	var recipes []entities.Recipe
	err := r.client.From(table).
		Select("*").
		Eq("user_id", userID).
		Order("created_at", false).
		Get(ctx, accessToken, &recipes)
	if err != nil {
		return nil, fmt.Errorf("listing recipes for user: %w", err)
	}
	return recipes, nil
}

// ListByIDs fetches the given recipes, newest first. Used by the saved
// recipes page, which resolves the id list from the user's likes.
func (r *Repository) ListByIDs(ctx context.Context, accessToken string, ids []string) ([]entities.Recipe, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var recipes []entities.Recipe
	err := r.client.From(table).
		Select("*").
		In("id", ids).
		Order("created_at", false).
		Get(ctx, accessToken, &recipes)
	if err != nil {
		return nil, fmt.Errorf("listing recipes by ids: %w", err)
	}
	return recipes, nil
}

// Create validates and sanitizes the recipe and stores it for the user.
// The created row, with its generated id and timestamps, is returned.
func (r *Repository) Create(ctx context.Context, accessToken, userID string, recipe entities.Recipe) (*entities.Recipe, error) {
	if err := r.prepare(&recipe); err != nil {
		return nil, err
	}
	cols := writeColumns(&recipe)
	cols["user_id"] = userID

	var created entities.Recipe
	err := r.client.From(table).
		Single().
		Insert(ctx, accessToken, cols, &created)
	if err != nil {
		return nil, fmt.Errorf("creating recipe: %w", err)
	}
	return &created, nil
}

// Update overwrites the user's recipe. The user_id filter makes a
// non-owner's update match zero rows even before the backend's own rules
// reject it.
func (r *Repository) Update(ctx context.Context, accessToken, id, userID string, recipe entities.Recipe) error {
	if err := r.prepare(&recipe); err != nil {
		return err
	}

	err := r.client.From(table).
		Eq("id", id).
		Eq("user_id", userID).
		Update(ctx, accessToken, writeColumns(&recipe))
	if err != nil {
		return fmt.Errorf("updating recipe %s: %w", id, err)
	}
	return nil
}

// Delete removes the user's recipe.
func (r *Repository) Delete(ctx context.Context, accessToken, id, userID string) error {
	err := r.client.From(table).
		Eq("id", id).
		Eq("user_id", userID).
		Delete(ctx, accessToken)
	if err != nil {
		return fmt.Errorf("deleting recipe %s: %w", id, err)
	}
	return nil
}

// SetPublished flips the publication flag on the user's recipe.
func (r *Repository) SetPublished(ctx context.Context, accessToken, id, userID string, published bool) error {
	err := r.client.From(table).
		Eq("id", id).
		Eq("user_id", userID).
		Update(ctx, accessToken, map[string]bool{"is_published": published})
	if err != nil {
		return fmt.Errorf("publishing recipe %s: %w", id, err)
	}
	return nil
}

// writeColumns lists the columns the application is allowed to set. Bodies
// are built as maps rather than marshalled entities so id, user_id and the
// timestamps stay with the database: a zero created_at in a PATCH would
// silently overwrite the row's real creation time, and an empty user_id
// would be rejected by the uuid column.
func writeColumns(recipe *entities.Recipe) map[string]any {
	return map[string]any{
		"title":        recipe.Title,
		"description":  recipe.Description,
		"ingredients":  recipe.Ingredients,
		"instructions": recipe.Instructions,
		"cooking_time": recipe.CookingTime,
		"servings":     recipe.Servings,
		"difficulty":   recipe.Difficulty,
		"category":     recipe.Category,
		"image_url":    recipe.ImageURL,
		"is_published": recipe.IsPublished,
	}
}

func (r *Repository) prepare(recipe *entities.Recipe) error {
	recipe.Title = r.sanitizer.Plain(recipe.Title)
	recipe.Description = r.sanitizer.Rich(recipe.Description)
	recipe.Ingredients = r.sanitizer.Rich(recipe.Ingredients)
	recipe.Instructions = r.sanitizer.Rich(recipe.Instructions)
	recipe.Category = r.sanitizer.Plain(recipe.Category)
	recipe.ImageURL = r.sanitizer.Plain(recipe.ImageURL)

	if recipe.Title == "" {
		return ErrTitleRequired
	}
	if recipe.Instructions == "" {
		return ErrInstructionsRequired
	}
	if !entities.ValidDifficulty(recipe.Difficulty) {
		return ErrInvalidDifficulty
	}
	if recipe.CookingTime < 0 {
		recipe.CookingTime = 0
	}
	if recipe.Servings < 1 {
		recipe.Servings = 1
	}
	return nil
}
