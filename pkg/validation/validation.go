package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MinQueryLength = 10
	MaxQueryLength = 500
)

// injectionPatterns are prompt-injection markers rejected before the query
// ever reaches a search or LLM collaborator.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+previous`),
	regexp.MustCompile(`(?i)disregard`),
	regexp.MustCompile(`(?i)system\s*:`),
	regexp.MustCompile(`(?i)assistant\s*:`),
	regexp.MustCompile(`(?i)<\s*script`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)eval\s*\(`),
	regexp.MustCompile(`(?i)exec\s*\(`),
	regexp.MustCompile(`(?i)__import__`),
}

var whitespaceRe = regexp.MustCompile(`\s+`)

var sessionIDRe = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ValidationError marks input rejected before the pipeline runs. The HTTP
// layer maps it to a 400 response.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// SanitizeQuery normalizes and validates a research query. It strips control
// characters, collapses whitespace runs to single spaces, trims, enforces the
// 10-500 char bounds on the normalized form, and rejects injection patterns.
func SanitizeQuery(query string) (string, error) {
	var b strings.Builder
	for _, r := range query {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	normalized := strings.TrimSpace(whitespaceRe.ReplaceAllString(b.String(), " "))

	// Bounds are in characters, not bytes, so multi-byte queries count the
	// same as ASCII ones.
	length := utf8.RuneCountInString(normalized)
	if length < MinQueryLength {
		return "", &ValidationError{Reason: fmt.Sprintf("query too short (min %d chars)", MinQueryLength)}
	}
	if length > MaxQueryLength {
		return "", &ValidationError{Reason: fmt.Sprintf("query too long (max %d chars)", MaxQueryLength)}
	}

	for _, pattern := range injectionPatterns {
		if pattern.MatchString(normalized) {
			return "", &ValidationError{Reason: "query contains blocked pattern"}
		}
	}

	return normalized, nil
}

// ValidateSessionID checks the UUID format of a client-supplied session ID,
// or generates a fresh one when none is given.
func ValidateSessionID(sessionID string) (string, error) {
	if sessionID == "" {
		return uuid.New().String(), nil
	}
	if !sessionIDRe.MatchString(strings.ToLower(sessionID)) {
		return "", &ValidationError{Reason: "invalid session ID format"}
	}
	return strings.ToLower(sessionID), nil
}
