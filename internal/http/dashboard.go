package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/galleyapp/galley/internal/auth"
	"github.com/galleyapp/galley/internal/entities"
	"github.com/galleyapp/galley/internal/store/recipes"
	"github.com/galleyapp/galley/internal/store/social"
)

// DashboardController serves the signed-in user's overview: their own
// recipes, drafts included, with like counts.
type DashboardController struct {
	recipes *recipes.Repository
	social  *social.Repository
	pages   pageRenderer
}

func NewDashboardController(r *recipes.Repository, s *social.Repository, templatesPath string) *DashboardController {
	return &DashboardController{
		recipes: r,
		social:  s,
		pages:   newPageRenderer(templatesPath, "dashboard"),
	}
}

type dashboardRecipe struct {
	entities.Recipe
	LikeCount int64 `json:"like_count"`
}

// Page renders the dashboard.
func (dc *DashboardController) Page(c *gin.Context) {
	userID := auth.CurrentUserID(c)
	token := auth.AccessToken(c)
	ctx := c.Request.Context()

	own, err := dc.recipes.ListByUser(ctx, token, userID)
	if err != nil {
		respondBackendError(c, err, "dashboard recipes")
		return
	}

	published := 0
	rows := make([]dashboardRecipe, 0, len(own))
	for _, recipe := range own {
		if recipe.IsPublished {
			published++
		}
		likeCount, err := dc.social.CountLikes(ctx, token, recipe.ID)
		if err != nil {
			// A failed count should not take down the whole page.
			likeCount = 0
		}
		rows = append(rows, dashboardRecipe{Recipe: recipe, LikeCount: likeCount})
	}

	dc.pages.render(c, http.StatusOK, "dashboard.html", gin.H{
		"Title":          "Dashboard",
		"Recipes":        rows,
		"TotalCount":     len(own),
		"PublishedCount": published,
		"DraftCount":     len(own) - published,
		"User":           currentUser(c),
		"CSRFToken":      auth.GetCSRFToken(c),
	})
}
