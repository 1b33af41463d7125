package http

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/galleyapp/galley/internal/auth"
	"github.com/galleyapp/galley/internal/store/social"
)

// SocialController handles likes and comments on recipes.
type SocialController struct {
	social *social.Repository
}

func NewSocialController(s *social.Repository) *SocialController {
	return &SocialController{social: s}
}

// AddComment posts a comment on a recipe and returns to its page.
func (sc *SocialController) AddComment(c *gin.Context) {
	recipeID := c.Param("id")

	_, err := sc.social.AddComment(
		c.Request.Context(),
		auth.AccessToken(c),
		auth.CurrentUserID(c),
		recipeID,
		c.PostForm("content"),
	)
	switch {
	case errors.Is(err, social.ErrCommentRequired), errors.Is(err, social.ErrCommentTooLong):
		respondBadRequest(c, err.Error())
		return
	case err != nil:
		respondBackendError(c, err, "add comment")
		return
	}

	c.Redirect(http.StatusFound, "/recipes/"+recipeID)
}

// DeleteComment removes the user's own comment.
func (sc *SocialController) DeleteComment(c *gin.Context) {
	err := sc.social.DeleteComment(
		c.Request.Context(),
		auth.AccessToken(c),
		c.Param("commentID"),
		auth.CurrentUserID(c),
	)
	if err != nil {
		respondBackendError(c, err, "delete comment")
		return
	}

	redirectBack(c)
}

// Like saves a recipe to the user's liked list.
func (sc *SocialController) Like(c *gin.Context) {
	recipeID := c.Param("id")

	err := sc.social.Like(c.Request.Context(), auth.AccessToken(c), auth.CurrentUserID(c), recipeID)
	if err != nil {
		respondBackendError(c, err, "like recipe")
		return
	}

	c.Redirect(http.StatusFound, "/recipes/"+recipeID)
}

// Unlike removes the recipe from the user's liked list.
func (sc *SocialController) Unlike(c *gin.Context) {
	recipeID := c.Param("id")

	err := sc.social.Unlike(c.Request.Context(), auth.AccessToken(c), auth.CurrentUserID(c), recipeID)
	if err != nil {
		respondBackendError(c, err, "unlike recipe")
		return
	}

	c.Redirect(http.StatusFound, "/recipes/"+recipeID)
}

// redirectBack returns to the referring page, or home when there is none.
// The Referer header is attacker-influenced, so only its local path
// survives; anything else falls back to home.
func redirectBack(c *gin.Context) {
	target := "/"
	if referer := c.Request.Referer(); referer != "" {
		if u, err := url.Parse(referer); err == nil {
			target = auth.SafeLocalPath(u.RequestURI(), "/")
		}
	}
	c.Redirect(http.StatusFound, target)
}
