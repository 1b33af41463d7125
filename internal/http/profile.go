package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/galleyapp/galley/internal/auth"
	"github.com/galleyapp/galley/internal/entities"
	"github.com/galleyapp/galley/internal/store/profiles"
	"github.com/galleyapp/galley/internal/store/recipes"
)

// ProfileController serves the user's public identity page and its edit
// form.
type ProfileController struct {
	profiles *profiles.Repository
	recipes  *recipes.Repository
	pages    pageRenderer
}

func NewProfileController(p *profiles.Repository, r *recipes.Repository, templatesPath string) *ProfileController {
	return &ProfileController{
		profiles: p,
		recipes:  r,
		pages:    newPageRenderer(templatesPath, "profile"),
	}
}

// Page shows the signed-in user's profile and published recipes.
func (pc *ProfileController) Page(c *gin.Context) {
	userID := auth.CurrentUserID(c)
	token := auth.AccessToken(c)
	ctx := c.Request.Context()

	profile, err := pc.profiles.Get(ctx, token, userID)
	if err != nil {
		respondBackendError(c, err, "fetch profile")
		return
	}

	own, err := pc.recipes.ListByUser(ctx, token, userID)
	if err != nil {
		respondBackendError(c, err, "profile recipes")
		return
	}

	pc.pages.render(c, http.StatusOK, "profile.html", gin.H{
		"Title":       "Profile",
		"Profile":     profile,
		"DisplayName": profile.DisplayName(),
		"Recipes":     own,
		"User":        currentUser(c),
		"CSRFToken":   auth.GetCSRFToken(c),
		"Error":       c.Query("error"),
		"Notice":      c.Query("notice"),
	})
}

// Update changes the username and full name. A user saving a profile for
// the first time gets a row created instead.
func (pc *ProfileController) Update(c *gin.Context) {
	userID := auth.CurrentUserID(c)
	token := auth.AccessToken(c)
	ctx := c.Request.Context()
	username := c.PostForm("username")
	fullName := c.PostForm("full_name")

	existing, err := pc.profiles.Get(ctx, token, userID)
	if err != nil {
		respondBackendError(c, err, "fetch profile")
		return
	}

	if existing == nil {
		err = pc.profiles.Create(ctx, token, entities.Profile{
			ID:       userID,
			Username: username,
			FullName: fullName,
		})
	} else {
		err = pc.profiles.Update(ctx, token, userID, username, fullName)
	}
	if errors.Is(err, profiles.ErrUsernameRequired) {
		respondBadRequest(c, err.Error())
		return
	}
	if err != nil {
		respondBackendError(c, err, "update profile")
		return
	}

	c.Redirect(http.StatusFound, "/profile?notice=Profile+updated.")
}
