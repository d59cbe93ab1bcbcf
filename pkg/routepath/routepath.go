// Package routepath normalizes and classifies route path patterns.
//
// Route tables are matched by exact path, so every non-wildcard pattern must
// already be in canonical form when it is registered. Canonical means:
//   - starts with "/"
//   - no trailing slash (except the root "/")
//   - no empty, "." or ".." segments
//   - no backslash, NUL byte, query string or malformed percent-escape
//
// A single wildcard pattern may be registered as the fallback. The accepted
// wildcard spellings are "*", "/*", "/*name" and "/:name(.*)*".
package routepath

import (
	"errors"
	"strings"
)

// Pattern errors.
var (
	ErrEmptyPattern         = errors.New("empty path pattern")
	ErrBackslashInPath      = errors.New("path contains backslash")
	ErrNullByteInPath       = errors.New("path contains null byte")
	ErrQueryInPattern       = errors.New("path pattern contains a query string")
	ErrInvalidPercentEscape = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot      = errors.New("path escapes root via ..")
	ErrDynamicSegment       = errors.New("dynamic segments are not supported")
	ErrNotCanonical         = errors.New("path pattern is not canonical")
)

// Canonicalize returns the canonical form of a path. The query string, if any,
// is dropped. Empty input canonicalizes to "/".
func Canonicalize(input string) (string, error) {
	path, _, _ := strings.Cut(input, "?")
	if path == "" {
		return "/", nil
	}
	if strings.Contains(path, "\\") {
		return "", ErrBackslashInPath
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return "", ErrNullByteInPath
	}
	if strings.Contains(path, "%") {
		if err := validatePercentEscapes(path); err != nil {
			return "", err
		}
	}

	var out []string
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(out) == 0 {
				return "", ErrPathEscapesRoot
			}
			out = out[:len(out)-1]
		default:
			out = append(out, seg)
		}
	}
	return "/" + strings.Join(out, "/"), nil
}

// ValidatePattern checks that an exact-match pattern is canonical and has no
// dynamic segments. Wildcards are not accepted here; use IsWildcard first.
func ValidatePattern(pattern string) error {
	if pattern == "" {
		return ErrEmptyPattern
	}
	if strings.Contains(pattern, "?") {
		return ErrQueryInPattern
	}
	canon, err := Canonicalize(pattern)
	if err != nil {
		return err
	}
	if canon != pattern {
		return ErrNotCanonical
	}
	for _, seg := range Segments(pattern) {
		if strings.HasPrefix(seg, ":") || strings.Contains(seg, "*") {
			return ErrDynamicSegment
		}
	}
	return nil
}

// IsWildcard reports whether pattern is one of the catch-all spellings.
func IsWildcard(pattern string) bool {
	switch {
	case pattern == "*" || pattern == "/*":
		return true
	case strings.HasPrefix(pattern, "/*"):
		return !strings.Contains(pattern[2:], "/")
	case strings.HasPrefix(pattern, "/:") && strings.HasSuffix(pattern, "(.*)*"):
		name := strings.TrimSuffix(pattern[2:], "(.*)*")
		return name != "" && !strings.ContainsAny(name, "/()")
	}
	return false
}

// Segments splits a path into its non-empty segments.
func Segments(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func validatePercentEscapes(path string) error {
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		if i+2 >= len(path) || !isHexDigit(path[i+1]) || !isHexDigit(path[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 2
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
