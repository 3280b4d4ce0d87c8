package util

import (
	"net"
	"net/http"
	"strings"
	"unicode/utf8"
)

// UnknownIP is stored when no valid client address can be resolved.
const UnknownIP = "Unknown"

// MaxUserAgentLength is the column width of the stored user agent.
const MaxUserAgentLength = 255

// clientIPHeaders are consulted in order before falling back to RemoteAddr.
var clientIPHeaders = []string{
	"Client-IP",
	"X-Forwarded-For",
	"X-Forwarded",
	"Forwarded-For",
	"Forwarded",
}

// ClientIP returns the first valid IP found in the forwarding headers or the
// connection's remote address, or UnknownIP.
func ClientIP(r *http.Request) string {
	if r == nil {
		return UnknownIP
	}
	for _, h := range clientIPHeaders {
		if ip := firstValidIP(r.Header.Get(h)); ip != "" {
			return ip
		}
	}
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if ip := firstValidIP(host); ip != "" {
		return ip
	}
	return UnknownIP
}

func firstValidIP(v string) string {
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		part = strings.TrimPrefix(part, "for=")
		part = strings.Trim(part, `"[]`)
		if ip := net.ParseIP(part); ip != nil {
			return ip.String()
		}
	}
	return ""
}

// NormalizeIP returns v if it parses as an IP address, otherwise UnknownIP.
func NormalizeIP(v string) string {
	if ip := net.ParseIP(strings.TrimSpace(v)); ip != nil {
		return ip.String()
	}
	return UnknownIP
}

// TruncateUserAgent cuts ua to MaxUserAgentLength bytes without splitting a
// multi-byte rune.
func TruncateUserAgent(ua string) string {
	if len(ua) <= MaxUserAgentLength {
		return ua
	}
	cut := MaxUserAgentLength
	for cut > 0 && !utf8.RuneStart(ua[cut]) {
		cut--
	}
	return ua[:cut]
}
