package util

import (
	"regexp"
	"strings"
)

// MaxLogFieldLength caps client-supplied values written to logs.
const MaxLogFieldLength = 128

var controlChars = regexp.MustCompile(`[\x00-\x1F\x7F]+`)

// SanitizeForLog makes a client-supplied value safe for a single log line:
// runs of control characters become one space and long values are cut.
func SanitizeForLog(s string) string {
	if s == "" {
		return s
	}
	s = controlChars.ReplaceAllString(s, " ")
	if len(s) > MaxLogFieldLength {
		s = strings.ToValidUTF8(s[:MaxLogFieldLength], "") + "..."
	}
	return s
}
