// Package markup strips terminal escapes and HTML line breaks from text
// received from the NetGeo server.
package markup

import (
	"regexp"
	"strings"
)

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// lineBreak matches the HTML line breaks the NetGeo server appends to lines.
var lineBreak = regexp.MustCompile(`(?i)<br\s*/?>`)

// StripANSI removes ANSI escape sequences from external data.
func StripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}

// Strip removes ANSI escapes and <br> markup from s and trims surrounding whitespace.
func Strip(s string) string {
	return strings.TrimSpace(lineBreak.ReplaceAllString(StripANSI(s), ""))
}
