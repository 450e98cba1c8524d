package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a markdown renderer for terminal output. The style
// adapts to the detected light/dark background.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		// Fall back to passing markdown through untouched.
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}
