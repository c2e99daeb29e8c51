package pipeline

import (
	"fmt"
	"net/url"
	"strings"
)

// InputError reports a request that was rejected before any work was done.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return e.Reason
}

// NormalizeURL checks that raw is an absolute http(s) URL and returns the
// form used as the cache key: trimmed, scheme and host lowercased, no
// fragment.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &InputError{Reason: "URL is required"}
	}
	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return "", &InputError{Reason: "URL must start with http:// or https://"}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", &InputError{Reason: fmt.Sprintf("invalid URL: %v", err)}
	}
	if u.Host == "" {
		return "", &InputError{Reason: "URL has no host"}
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}
