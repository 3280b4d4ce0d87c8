package middleware

import (
	"net/http"
	"strings"

	"github.com/Wikid82/formguard/internal/util"
)

// sensitiveHeaders are never written to logs.
var sensitiveHeaders = map[string]struct{}{
	"authorization":       {},
	"cookie":              {},
	"set-cookie":          {},
	"proxy-authorization": {},
	"x-api-key":           {},
	"x-auth-token":        {},
	"x-forwarded-for":     {},
	"client-ip":           {},
	"forwarded":           {},
}

// SanitizeHeaders returns header values safe for logging. Sensitive headers
// are redacted and the rest go through util.SanitizeForLog.
func SanitizeHeaders(h http.Header) map[string][]string {
	if h == nil {
		return nil
	}
	out := make(map[string][]string, len(h))
	for k, vals := range h {
		if _, ok := sensitiveHeaders[strings.ToLower(k)]; ok {
			out[k] = []string{"<redacted>"}
			continue
		}
		clean := make([]string, 0, len(vals))
		for _, v := range vals {
			clean = append(clean, util.SanitizeForLog(v))
		}
		out[k] = clean
	}
	return out
}

// SanitizePath strips the query string from a request path and makes the
// rest safe for logging.
func SanitizePath(p string) string {
	if i := strings.Index(p, "?"); i != -1 {
		p = p[:i]
	}
	return util.SanitizeForLog(p)
}

