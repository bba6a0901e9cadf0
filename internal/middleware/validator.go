package middleware

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bryanwahyu/fraudwatch/internal/domain/fraud"
)

// Input validation and sanitization utilities

var accountIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

const maxNameLen = 100

// ValidateAgentName sanitizes and checks an agent display name
func ValidateAgentName(name string) (string, error) {
	name = SanitizeString(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", fraud.ErrValidation)
	}
	if len([]rune(name)) > maxNameLen {
		return "", fmt.Errorf("%w: name longer than %d characters", fraud.ErrValidation, maxNameLen)
	}
	return name, nil
}

// SplitAccountIDs parses the comma-separated form field
func SplitAccountIDs(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidateAccountIDs trims, drops blanks and rejects malformed ids
func ValidateAccountIDs(ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if !accountIDPattern.MatchString(id) {
			return nil, fmt.Errorf("%w: invalid account id %q", fraud.ErrValidation, id)
		}
		out = append(out, id)
	}
	return out, nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ValidateLimit clamps a pagination limit
func ValidateLimit(limit, def, maxLimit int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
