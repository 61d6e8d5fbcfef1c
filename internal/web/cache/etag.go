package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

// GenerateETag generates a strong ETag for the given content
func GenerateETag(content []byte) string {
	hash := sha256.Sum256(content)
	// Truncate to 16 bytes for shorter ETags
	return `"` + hex.EncodeToString(hash[:16]) + `"`
}

// ParseIfNoneMatch splits an If-None-Match header into its entity tags
func ParseIfNoneMatch(header string) []string {
	var etags []string
	for _, part := range strings.Split(header, ",") {
		if part = strings.TrimSpace(part); part != "" {
			etags = append(etags, part)
		}
	}
	return etags
}

// MatchesETag reports whether etag matches any of etags using the weak
// comparison If-None-Match requires
func MatchesETag(etag string, etags []string) bool {
	for _, e := range etags {
		if e == "*" || strings.TrimPrefix(e, "W/") == strings.TrimPrefix(etag, "W/") {
			return true
		}
	}
	return false
}

// NotModified writes 304 and returns true when the request already holds etag
func NotModified(w http.ResponseWriter, r *http.Request, etag string) bool {
	header := r.Header.Get("If-None-Match")
	if header == "" || !MatchesETag(etag, ParseIfNoneMatch(header)) {
		return false
	}
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusNotModified)
	return true
}
