// Package textx provides small text utilities used across the project.
package textx

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	reControl       = regexp.MustCompile("[\u0001-\u0008\u000B\u000C\u000E-\u001F\u007F]")
	reBlankRun      = regexp.MustCompile(`[ \t]+`)
	reLeadingBlank  = regexp.MustCompile(`\n[ \t]+`)
	reTrailingBlank = regexp.MustCompile(`[ \t]+\n`)
	reNewlineRun    = regexp.MustCompile(`\n{3,}`)
)

// Sanitize normalizes raw extracted document text so downstream parsing is
// encoding-safe. Control characters are dropped, line endings become LF,
// horizontal whitespace is collapsed, and blank line runs are capped at one
// empty line. The result is stable under repeated application.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\x00", "")
	s = reControl.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = reBlankRun.ReplaceAllString(s, " ")
	s = reLeadingBlank.ReplaceAllString(s, "\n")
	s = reTrailingBlank.ReplaceAllString(s, "\n")
	s = reNewlineRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
