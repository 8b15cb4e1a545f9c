package vcs

import (
	"strings"

	"github.com/treeci/treeci/internal"
)

// TryDirective extracts the "try:" directive from a commit description.
// The directive runs from the marker to the end of its line. Returns an
// empty string when the description has no directive.
func TryDirective(comment string) string {
	idx := strings.Index(comment, internal.TryDirectiveMarker)
	if idx == -1 {
		return ""
	}
	directive := comment[idx:]
	if nl := strings.IndexByte(directive, '\n'); nl != -1 {
		directive = directive[:nl]
	}
	return directive
}
