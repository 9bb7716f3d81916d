// Package fsname turns arbitrary note titles and content types into file
// names that are safe to put into a zip archive.
package fsname

import (
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/backupdecrypt/internal/common"
)

const txtExt = ".txt"

var reserved = strings.NewReplacer(
	".", "_",
	`\`, "_",
	"/", "_",
	":", "_",
	`"`, "_",
	"?", "_",
	"*", "_",
	"|", "_",
	"<", "_",
	">", "_",
)

// Sanitize trims surrounding whitespace and replaces every character of
// . \ / : " ? * | < > with an underscore.
func Sanitize(name string) string {
	return reserved.Replace(strings.TrimSpace(name))
}

// BoundedTxtName sanitizes name and appends suffix + ".txt", truncating the
// sanitized part so the result is at most common.MaxFileNameLength bytes.
// Truncation never splits a UTF-8 sequence. If the ending alone exceeds the
// limit, the result is just the ending.
func BoundedTxtName(name, suffix string) string {
	sanitized := Sanitize(name)
	ending := suffix + txtExt

	keep := common.MaxFileNameLength - len(ending)
	if keep < 0 {
		keep = 0
	}
	if len(sanitized) > keep {
		sanitized = truncate(sanitized, keep)
	}
	return sanitized + ending
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
