package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/galleyapp/galley/internal/auth"
	"github.com/galleyapp/galley/internal/entities"
	"github.com/galleyapp/galley/internal/store/profiles"
	"github.com/galleyapp/galley/internal/store/recipes"
	"github.com/galleyapp/galley/internal/store/social"
)

// RecipesController serves the public recipe pages and the authenticated
// recipe management endpoints.
type RecipesController struct {
	recipes  *recipes.Repository
	social   *social.Repository
	profiles *profiles.Repository
	pages    pageRenderer
}

func NewRecipesController(r *recipes.Repository, s *social.Repository, p *profiles.Repository, templatesPath string) *RecipesController {
	return &RecipesController{
		recipes:  r,
		social:   s,
		profiles: p,
		pages:    newPageRenderer(templatesPath, "recipes"),
	}
}

// recipeView decorates a recipe with its author's display name for
// rendering. The name lives outside the entity because it is joined from
// the profiles table, not stored on the recipe row.
type recipeView struct {
	entities.Recipe
	AuthorName string `json:"author_name"`
}

type commentView struct {
	entities.Comment
	AuthorName string `json:"author_name"`
}

// BrowsePage lists published recipes, optionally narrowed by a search
// term. Anonymous visitors browse with the anonymous token; signed-in
// users with their own.
func (rc *RecipesController) BrowsePage(c *gin.Context) {
	search := c.Query("search")

	list, err := rc.recipes.ListPublished(c.Request.Context(), auth.AccessToken(c), search)
	if err != nil {
		respondBackendError(c, err, "browse recipes")
		return
	}

	rc.pages.render(c, http.StatusOK, "browse.html", gin.H{
		"Title":   "Recipes",
		"Search":  search,
		"Recipes": rc.withAuthors(c, list),
		"User":    currentUser(c),
	})
}

// DetailPage shows a recipe with its comments and like count.
func (rc *RecipesController) DetailPage(c *gin.Context) {
	id := c.Param("id")
	token := auth.AccessToken(c)
	ctx := c.Request.Context()

	recipe, err := rc.recipes.Get(ctx, token, id)
	if err != nil {
		respondBackendError(c, err, "fetch recipe")
		return
	}

	comments, err := rc.social.ListComments(ctx, token, id)
	if err != nil {
		respondBackendError(c, err, "list comments")
		return
	}

	likeCount, err := rc.social.CountLikes(ctx, token, id)
	if err != nil {
		respondBackendError(c, err, "count likes")
		return
	}

	liked := false
	if userID := auth.CurrentUserID(c); userID != "" {
		liked, err = rc.social.Liked(ctx, token, id, userID)
		if err != nil {
			respondBackendError(c, err, "check like")
			return
		}
	}

	recipeWithAuthor, commentsWithAuthors := rc.withCommentAuthors(c, recipe, comments)

	rc.pages.render(c, http.StatusOK, "detail.html", gin.H{
		"Title":     recipe.Title,
		"Recipe":    recipeWithAuthor,
		"Comments":  commentsWithAuthors,
		"LikeCount": likeCount,
		"Liked":     liked,
		"IsOwner":   recipe.UserID == auth.CurrentUserID(c),
		"User":      currentUser(c),
		"CSRFToken": auth.GetCSRFToken(c),
	})
}

// CreatePage renders the recipe creation form.
func (rc *RecipesController) CreatePage(c *gin.Context) {
	rc.pages.render(c, http.StatusOK, "create.html", gin.H{
		"Title":        "New recipe",
		"Difficulties": []string{entities.DifficultyEasy, entities.DifficultyMedium, entities.DifficultyHard},
		"User":         currentUser(c),
		"CSRFToken":    auth.GetCSRFToken(c),
	})
}

// Create stores a new recipe for the signed-in user.
func (rc *RecipesController) Create(c *gin.Context) {
	recipe := rc.recipeFromForm(c)

	created, err := rc.recipes.Create(c.Request.Context(), auth.AccessToken(c), auth.CurrentUserID(c), recipe)
	if err != nil {
		rc.respondRecipeError(c, err, "create recipe")
		return
	}

	c.Redirect(http.StatusFound, "/recipes/"+created.ID)
}

// EditPage renders the edit form for the owner's recipe.
func (rc *RecipesController) EditPage(c *gin.Context) {
	recipe, err := rc.recipes.Get(c.Request.Context(), auth.AccessToken(c), c.Param("id"))
	if err != nil {
		respondBackendError(c, err, "fetch recipe")
		return
	}
	if recipe.UserID != auth.CurrentUserID(c) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not your recipe"})
		return
	}

	rc.pages.render(c, http.StatusOK, "edit.html", gin.H{
		"Title":        "Edit " + recipe.Title,
		"Recipe":       recipe,
		"Difficulties": []string{entities.DifficultyEasy, entities.DifficultyMedium, entities.DifficultyHard},
		"User":         currentUser(c),
		"CSRFToken":    auth.GetCSRFToken(c),
	})
}

// Update overwrites the owner's recipe.
func (rc *RecipesController) Update(c *gin.Context) {
	id := c.Param("id")
	recipe := rc.recipeFromForm(c)

	err := rc.recipes.Update(c.Request.Context(), auth.AccessToken(c), id, auth.CurrentUserID(c), recipe)
	if err != nil {
		rc.respondRecipeError(c, err, "update recipe")
		return
	}

	c.Redirect(http.StatusFound, "/recipes/"+id)
}

// Delete removes the owner's recipe.
func (rc *RecipesController) Delete(c *gin.Context) {
	err := rc.recipes.Delete(c.Request.Context(), auth.AccessToken(c), c.Param("id"), auth.CurrentUserID(c))
	if err != nil {
		respondBackendError(c, err, "delete recipe")
		return
	}
	c.Redirect(http.StatusFound, "/dashboard")
}

// TogglePublish flips the publication flag on the owner's recipe.
func (rc *RecipesController) TogglePublish(c *gin.Context) {
	id := c.Param("id")
	published := c.PostForm("published") == "true"

	err := rc.recipes.SetPublished(c.Request.Context(), auth.AccessToken(c), id, auth.CurrentUserID(c), published)
	if err != nil {
		respondBackendError(c, err, "publish recipe")
		return
	}
	c.Redirect(http.StatusFound, "/recipes/"+id)
}

func (rc *RecipesController) recipeFromForm(c *gin.Context) entities.Recipe {
	cookingTime, _ := strconv.Atoi(c.PostForm("cooking_time"))
	servings, _ := strconv.Atoi(c.PostForm("servings"))

	return entities.Recipe{
		Title:        c.PostForm("title"),
		Description:  c.PostForm("description"),
		Ingredients:  c.PostForm("ingredients"),
		Instructions: c.PostForm("instructions"),
		CookingTime:  cookingTime,
		Servings:     servings,
		Difficulty:   c.PostForm("difficulty"),
		Category:     c.PostForm("category"),
		ImageURL:     c.PostForm("image_url"),
		IsPublished:  c.PostForm("is_published") == "true",
	}
}

// respondRecipeError distinguishes the repository's own validation errors
// from backend failures.
func (rc *RecipesController) respondRecipeError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, recipes.ErrTitleRequired),
		errors.Is(err, recipes.ErrInstructionsRequired),
		errors.Is(err, recipes.ErrInvalidDifficulty):
		respondBadRequest(c, err.Error())
	default:
		respondBackendError(c, err, context)
	}
}

// withAuthors joins profile display names onto the recipes. Author names
// are decoration; a failed lookup leaves the fallback name in place rather
// than failing the page.
func (rc *RecipesController) withAuthors(c *gin.Context, list []entities.Recipe) []recipeView {
	ids := make([]string, 0, len(list))
	for _, recipe := range list {
		ids = append(ids, recipe.UserID)
	}
	byID, _ := rc.profiles.GetMany(c.Request.Context(), auth.AccessToken(c), ids)

	views := make([]recipeView, 0, len(list))
	for _, recipe := range list {
		views = append(views, recipeView{
			Recipe:     recipe,
			AuthorName: displayName(byID, recipe.UserID),
		})
	}
	return views
}

func (rc *RecipesController) withCommentAuthors(c *gin.Context, recipe *entities.Recipe, comments []entities.Comment) (recipeView, []commentView) {
	ids := make([]string, 0, len(comments)+1)
	ids = append(ids, recipe.UserID)
	for _, comment := range comments {
		ids = append(ids, comment.UserID)
	}
	byID, _ := rc.profiles.GetMany(c.Request.Context(), auth.AccessToken(c), ids)

	commentViews := make([]commentView, 0, len(comments))
	for _, comment := range comments {
		commentViews = append(commentViews, commentView{
			Comment:    comment,
			AuthorName: displayName(byID, comment.UserID),
		})
	}
	return recipeView{Recipe: *recipe, AuthorName: displayName(byID, recipe.UserID)}, commentViews
}

func displayName(byID map[string]entities.Profile, userID string) string {
	if profile, ok := byID[userID]; ok {
		return profile.DisplayName()
	}
	return (*entities.Profile)(nil).DisplayName()
}

// currentUser returns the signed-in user for template context, or nil.
func currentUser(c *gin.Context) *entities.User {
	state, ok := auth.StateFromContext(c)
	if !ok || !state.Authenticated() {
		return nil
	}
	return state.User
}
