package http

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"canteen/internal/core"
)

// parseDate parses a calendar date (YYYY-MM-DD) at midnight in loc, or a
// full RFC 3339 timestamp.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// authorized reports whether r carries "Bearer <secret>". An empty secret
// disables the check.
func authorized(r *http.Request, secret string) bool {
	if secret == "" {
		return true
	}
	got := r.Header.Get("Authorization")
	want := "Bearer " + secret
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// isValidationError reports whether err comes from record validation.
func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidDate,
		core.ErrEmptyDescription,
		core.ErrDescriptionTooLong,
		core.ErrInvalidCategory,
		core.ErrInvalidTransactionType,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
