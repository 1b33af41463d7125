// Package security provides input sanitization for user-generated content.
//
// Recipe bodies allow a small amount of formatting; everything else a user
// types (comments, usernames, titles) is stripped down to plain text. Both
// policies are allow-list based, so new markup is rejected by default.
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans user-provided content before it is stored or rendered.
// The underlying policies are safe for concurrent use.
type Sanitizer struct {
	rich  *bluemonday.Policy
	plain *bluemonday.Policy
}

// NewSanitizer builds the sanitizer with two policies:
//
//   - rich: basic formatting for recipe descriptions and instructions
//     (paragraphs, lists, emphasis, links). Links get target="_blank" and
//     rel="noopener noreferrer" appended; script, style and event handler
//     attributes are removed.
//   - plain: no markup at all, for comments and profile fields.
func NewSanitizer() *Sanitizer {
	rich := bluemonday.NewPolicy()
	rich.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "strong", "em",
	)
	rich.AllowAttrs("href").OnElements("a")
	rich.AllowStandardURLs()
	rich.AllowRelativeURLs(false)
	rich.AddTargetBlankToFullyQualifiedLinks(true)
	rich.RequireNoReferrerOnLinks(true)

	return &Sanitizer{
		rich:  rich,
		plain: bluemonday.StrictPolicy(),
	}
}

// Rich sanitizes formatted recipe content, keeping the allowed tags.
func (s *Sanitizer) Rich(raw string) string {
	return strings.TrimSpace(s.rich.Sanitize(raw))
}

// Plain strips all markup, returning text only.
func (s *Sanitizer) Plain(raw string) string {
	return strings.TrimSpace(s.plain.Sanitize(raw))
}
