package utils

import "github.com/microcosm-cc/bluemonday"

var sanitizer = bluemonday.StrictPolicy()

// Sanitize strips markup from client-supplied text to prevent stored XSS.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
