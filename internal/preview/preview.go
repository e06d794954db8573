// Package preview renders the active preview markdown for display.
package preview

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
)

// Render converts preview markdown to HTML.
func Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render preview: %w", err)
	}
	return buf.String(), nil
}
