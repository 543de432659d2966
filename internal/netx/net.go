package netx

import (
	"fmt"
	"net/url"
	"strings"
)

// JoinURL appends escaped path segments to base, keeping any base path.
func JoinURL(base string, segments ...string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("base url %q must be absolute", base)
	}
	return u.JoinPath(segments...).String(), nil
}
