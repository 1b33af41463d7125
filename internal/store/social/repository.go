// Package social is the data access layer for recipe likes and comments.
// Likes double as the user's saved recipes list.
package social

import (
	"context"
	"errors"
	"fmt"

	"github.com/galleyapp/galley/internal/backend"
	"github.com/galleyapp/galley/internal/entities"
	"github.com/galleyapp/galley/internal/security"
)

const (
	likesTable    = "recipe_likes"
	commentsTable = "recipe_comments"
)

// maxCommentLength bounds a single comment.
const maxCommentLength = 2000

var (
	ErrCommentRequired = errors.New("comment text is required")
	ErrCommentTooLong  = errors.New("comment is too long")
)

// Repository provides access to likes and comments.
type Repository struct {
	client    *backend.Client
	sanitizer *security.Sanitizer
}

// New creates a social repository.
func New(client *backend.Client, sanitizer *security.Sanitizer) *Repository {
	return &Repository{client: client, sanitizer: sanitizer}
}

// ListComments returns a recipe's comments, oldest first.
func (r *Repository) ListComments(ctx context.Context, accessToken, recipeID string) ([]entities.Comment, error) {
	var comments []entities.Comment
	err := r.client.From(commentsTable).
		Select("*").
		Eq("recipe_id", recipeID).
		Order("created_at", true).
		Get(ctx, accessToken, &comments)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	return comments, nil
}

// CountComments returns the number of comments on a recipe.
func (r *Repository) CountComments(ctx context.Context, accessToken, recipeID string) (int64, error) {
	return r.client.From(commentsTable).
		Eq("recipe_id", recipeID).
		Count(ctx, accessToken)
}

// AddComment stores a comment after stripping any markup from it.
func (r *Repository) AddComment(ctx context.Context, accessToken, userID, recipeID, content string) (*entities.Comment, error) {
	content = r.sanitizer.Plain(content)
	if content == "" {
		return nil, ErrCommentRequired
	}
	if len(content) > maxCommentLength {
		return nil, ErrCommentTooLong
	}

	// Column map rather than a marshalled entity: id and created_at belong
	// to the database, and a zero timestamp in the body would break the
	// oldest-first comment order.
	var created entities.Comment
	err := r.client.From(commentsTable).
		Single().
		Insert(ctx, accessToken, map[string]any{
			"recipe_id": recipeID,
			"user_id":   userID,
			"content":   content,
		}, &created)
	if err != nil {
		return nil, fmt.Errorf("adding comment: %w", err)
	}
	return &created, nil
}

// DeleteComment removes the user's own comment.
func (r *Repository) DeleteComment(ctx context.Context, accessToken, commentID, userID string) error {
	err := r.client.From(commentsTable).
		Eq("id", commentID).
		Eq("user_id", userID).
		Delete(ctx, accessToken)
	if err != nil {
		return fmt.Errorf("deleting comment %s: %w", commentID, err)
	}
	return nil
}

// CountLikes returns the number of likes on a recipe.
func (r *Repository) CountLikes(ctx context.Context, accessToken, recipeID string) (int64, error) {
	return r.client.From(likesTable).
		Eq("recipe_id", recipeID).
		Count(ctx, accessToken)
}

// Liked reports whether the user has liked the recipe.
func (r *Repository) Liked(ctx context.Context, accessToken, recipeID, userID string) (bool, error) {
	n, err := r.client.From(likesTable).
		Eq("recipe_id", recipeID).
		Eq("user_id", userID).
		Count(ctx, accessToken)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Like records the user's like. The backend's uniqueness constraint on
// (recipe_id, user_id) makes a repeat like fail, which callers may ignore.
func (r *Repository) Like(ctx context.Context, accessToken, userID, recipeID string) error {
	err := r.client.From(likesTable).Insert(ctx, accessToken, map[string]any{
		"recipe_id": recipeID,
		"user_id":   userID,
	}, nil)
	if err != nil {
		return fmt.Errorf("liking recipe %s: %w", recipeID, err)
	}
	return nil
}

// Unlike removes the user's like.
func (r *Repository) Unlike(ctx context.Context, accessToken, userID, recipeID string) error {
	err := r.client.From(likesTable).
		Eq("recipe_id", recipeID).
		Eq("user_id", userID).
		Delete(ctx, accessToken)
	if err != nil {
		return fmt.Errorf("unliking recipe %s: %w", recipeID, err)
	}
	return nil
}

// ListLikedRecipeIDs returns the ids of recipes the user has liked, most
// recently liked first.
func (r *Repository) ListLikedRecipeIDs(ctx context.Context, accessToken, userID string) ([]string, error) {
	var likes []entities.Like
	err := r.client.From(likesTable).
		Select("recipe_id,created_at").
		Eq("user_id", userID).
		Order("created_at", false).
		Get(ctx, accessToken, &likes)
	if err != nil {
		return nil, fmt.Errorf("listing liked recipes: %w", err)
	}

	ids := make([]string, 0, len(likes))
	for _, like := range likes {
		ids = append(ids, like.RecipeID)
	}
	return ids, nil
}
