package logger

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Sanitizer masks secrets and personal path segments in log output.
//
// Messages and string values pass through the pattern rules. Values of
// sensitive keys (password, token and the like) are additionally masked
// whole. A secret embedded in a non-sensitive value is only caught if a
// pattern rule matches it.
type Sanitizer struct {
	mu    sync.RWMutex
	rules []SanitizeRule
}

// SanitizeRule replaces every match of Pattern with Replacement
type SanitizeRule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

var sensitiveKeys = []string{
	"password", "passwd", "pwd",
	"token", "secret", "api_key", "apikey",
	"credential", "auth",
}

// NewSanitizer creates a sanitizer with the default rules
func NewSanitizer() *Sanitizer {
	return &Sanitizer{rules: defaultRules()}
}

func defaultRules() []SanitizeRule {
	return []SanitizeRule{
		{regexp.MustCompile(`(?i)(password|passwd|pwd|token|api[_-]?key)=\S+`), "$1=***"},
		{regexp.MustCompile(`(?i)bearer\s+\S+`), "bearer ***"},

		// Inline payloads of data URLs can be megabytes long
		{regexp.MustCompile(`(data:[^,\s]*;base64,)[A-Za-z0-9+/=]{16,}`), "${1}***"},

		// Home directories
		{regexp.MustCompile(`(?i)[A-Z]:\\Users\\[^\\]+`), `***:\Users\***`},
		{regexp.MustCompile(`/home/[^/\s]+`), "/home/***"},
		{regexp.MustCompile(`/Users/[^/\s]+`), "/Users/***"},
	}
}

// Sanitize applies every rule to input
func (s *Sanitizer) Sanitize(input string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rule := range s.rules {
		input = rule.Pattern.ReplaceAllString(input, rule.Replacement)
	}
	return input
}

// SanitizeValue masks value entirely when key is sensitive, otherwise
// applies the rules
func (s *Sanitizer) SanitizeValue(key, value string) string {
	if isSensitiveKey(key) {
		return maskValue(value)
	}
	return s.Sanitize(value)
}

// AddRule appends a custom rule
func (s *Sanitizer) AddRule(pattern, replacement string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, SanitizeRule{Pattern: re, Replacement: replacement})
	return nil
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, k := range sensitiveKeys {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// maskValue keeps at most the first and last character
func maskValue(value string) string {
	switch {
	case len(value) <= 2:
		return "***"
	case len(value) <= 8:
		return value[:1] + "***"
	default:
		return value[:1] + "***" + value[len(value)-1:]
	}
}
