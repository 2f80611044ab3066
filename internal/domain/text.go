package domain

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const wordsPerMinute = 200

var stripPolicy = bluemonday.StrictPolicy()

// PlainText strips markup from rich article content.
func PlainText(content string) string {
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(content)))
}

// ReadingTime estimates minutes to read content, rounded up, never below one.
func ReadingTime(content string) int {
	words := len(strings.Fields(PlainText(content)))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}
