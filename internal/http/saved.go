package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/galleyapp/galley/internal/auth"
	"github.com/galleyapp/galley/internal/entities"
	"github.com/galleyapp/galley/internal/store/recipes"
	"github.com/galleyapp/galley/internal/store/social"
)

// SavedController serves the user's saved recipes, which are the recipes
// they have liked.
type SavedController struct {
	recipes *recipes.Repository
	social  *social.Repository
	pages   pageRenderer
}

func NewSavedController(r *recipes.Repository, s *social.Repository, templatesPath string) *SavedController {
	return &SavedController{
		recipes: r,
		social:  s,
		pages:   newPageRenderer(templatesPath, "saved"),
	}
}

// Page lists the liked recipes in the order they were liked, newest like
// first.
func (sc *SavedController) Page(c *gin.Context) {
	token := auth.AccessToken(c)
	ctx := c.Request.Context()

	ids, err := sc.social.ListLikedRecipeIDs(ctx, token, auth.CurrentUserID(c))
	if err != nil {
		respondBackendError(c, err, "saved recipes")
		return
	}

	list, err := sc.recipes.ListByIDs(ctx, token, ids)
	if err != nil {
		respondBackendError(c, err, "saved recipes")
		return
	}

	// ListByIDs orders by creation date; restore like order.
	byID := make(map[string]entities.Recipe, len(list))
	for _, recipe := range list {
		byID[recipe.ID] = recipe
	}
	ordered := make([]entities.Recipe, 0, len(list))
	for _, id := range ids {
		if recipe, ok := byID[id]; ok {
			ordered = append(ordered, recipe)
		}
	}

	sc.pages.render(c, http.StatusOK, "saved.html", gin.H{
		"Title":   "Saved recipes",
		"Recipes": ordered,
		"User":    currentUser(c),
	})
}
