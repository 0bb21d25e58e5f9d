package utils

import "github.com/microcosm-cc/bluemonday"

var sanitizer = bluemonday.UGCPolicy()

// Sanitize cleans rich-text post bodies fetched from gateways before they are served to a UI.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
