package http

import (
	"errors"
	"html/template"
	"log"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/galleyapp/galley/internal/backend"
)

// ErrorResponse is the standard error response format for API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error and sends a 500 response. The actual
// error is logged (with the request ID) but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("internal error (%s) [%s]: %v", context, RequestID(c), err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondBackendError translates a backend failure into the closest HTTP
// response: missing rows become 404, permission rejections 403, an
// unreachable backend 502, anything else 500.
func respondBackendError(c *gin.Context, err error, context string) {
	var transportErr *backend.TransportError
	if errors.As(err, &transportErr) {
		log.Printf("backend unreachable (%s): %v", context, err)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "the recipe service is unreachable"})
		return
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusNotFound, http.StatusNotAcceptable:
			// PostgREST answers 406 when a single-object request matches no
			// rows.
			respondNotFound(c, "resource")
			return
		case http.StatusUnauthorized, http.StatusForbidden:
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "not allowed"})
			return
		}
	}

	respondInternalError(c, err, context)
}

// pageRenderer renders a controller's HTML templates, falling back to JSON
// when the templates are not on disk (which is how the tests run).
type pageRenderer struct {
	templates *template.Template
}

// newPageRenderer parses the page templates under dir. Missing templates
// are not an error.
func newPageRenderer(templatesPath, dir string) pageRenderer {
	tmpl, err := template.ParseGlob(filepath.Join(templatesPath, dir, "*.html"))
	if err != nil {
		tmpl = nil
	}
	return pageRenderer{templates: tmpl}
}

func (p pageRenderer) render(c *gin.Context, status int, name string, data gin.H) {
	if p.templates == nil {
		c.JSON(status, data)
		return
	}

	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := p.templates.ExecuteTemplate(c.Writer, name, data); err != nil {
		c.String(http.StatusInternalServerError, "Template error: %v", err)
	}
}
