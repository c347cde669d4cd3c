// Package pattern turns glob patterns into case-insensitive matchers.
//
// Only two wildcards are recognised: '*' matches any sequence of characters,
// including path separators, and '?' matches exactly one character.
//
// Every other character, brackets included, is matched literally. A match
// must cover the whole candidate string.
package pattern

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Ning0612/fstools/internal/domain"
)

// Matcher is a compiled glob pattern
type Matcher struct {
	pattern string
	re      *regexp.Regexp
}

// Compile translates a glob pattern into a Matcher
func Compile(pattern string) (*Matcher, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty pattern", domain.ErrInvalidArgument)
	}

	re, err := regexp.Compile(Translate(pattern))
	if err != nil {
		return nil, fmt.Errorf("%w: pattern %q: %w", domain.ErrInvalidArgument, pattern, err)
	}

	return &Matcher{pattern: pattern, re: re}, nil
}

// MustCompile is like Compile but panics on error
func MustCompile(pattern string) *Matcher {
	m, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return m
}

// ForExtension builds the pattern "*.<ext>". A leading dot on ext is ignored.
func ForExtension(ext string) string {
	return "*." + strings.TrimPrefix(ext, ".")
}

// Translate converts a glob pattern to an anchored, case-insensitive regular
// expression string.
func Translate(pattern string) string {
	var b strings.Builder
	b.WriteString("(?is:^") // i: case-insensitive, s: . also matches newlines

	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteByte('.')
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}

	b.WriteString("$)")
	return b.String()
}

// Match reports whether candidate matches the whole pattern
func (m *Matcher) Match(candidate string) bool {
	return m.re.MatchString(candidate)
}

// String returns the source glob pattern
func (m *Matcher) String() string {
	return m.pattern
}
