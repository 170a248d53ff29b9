package middleware

import (
	"fmt"
	"strconv"
	"strings"

	domain "github.com/bryanwahyu/website-intel/internal/domain/scans"
)

// Input validation and sanitization utilities

// ParseScanID validates the {id} path parameter.
func ParseScanID(raw string) (domain.ScanID, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid scan ID %q", raw)
	}
	return domain.ScanID(id), nil
}

// ValidatePage normalizes the ?page= query value (default 1)
func ValidatePage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}
