package mail

import (
	"html"
	"strings"
)

// RenderHTML wraps a plain-text body for the HTML part of a message.
// The body is escaped and newlines become <br> so line breaks survive clients
// that ignore the pre-wrap style.
func RenderHTML(body string) string {
	escaped := html.EscapeString(body)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	escaped = strings.ReplaceAll(escaped, "\n", "<br>")
	return `<div style="white-space: pre-wrap;">` + escaped + `</div>`
}
