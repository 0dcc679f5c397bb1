package services

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/thoughtboard/internal/common"
	"github.com/dmitrijs2005/thoughtboard/internal/server/auth"
)

// Input limits for accounts and thoughts.
const (
	MinPasswordBytes = 8
	MaxContentRunes  = 1000
	DefaultPageLimit = 100
	MaxPageLimit     = 100
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,32}$`)

// ValidateRegistration checks a new account's username and password.
func ValidateRegistration(username, password string) error {
	v := &common.ValidationError{}

	if !usernamePattern.MatchString(username) {
		v.Add("username", "must be 3 to 32 characters of letters, digits, '_', '.' or '-'")
	}
	switch {
	case len(password) < MinPasswordBytes:
		v.Add("password", "must be at least 8 bytes")
	case len(password) > auth.MaxPasswordBytes:
		v.Add("password", "must be at most 4096 bytes")
	}

	return v.OrNil()
}

// ValidateThought trims content and checks its length. It returns the
// trimmed content to store.
func ValidateThought(content string) (string, error) {
	v := &common.ValidationError{}

	trimmed := strings.TrimSpace(content)
	switch n := utf8.RuneCountInString(trimmed); {
	case !utf8.ValidString(trimmed):
		v.Add("content", "must be valid UTF-8")
	case n == 0:
		v.Add("content", "must not be empty")
	case n > MaxContentRunes:
		v.Add("content", "must be at most 1000 characters")
	}

	if err := v.OrNil(); err != nil {
		return "", err
	}
	return trimmed, nil
}

// NormalizePage validates offset paging. A zero limit selects
// DefaultPageLimit and larger limits are capped at MaxPageLimit.
func NormalizePage(skip, limit int) (int, int, error) {
	v := &common.ValidationError{}
	if skip < 0 {
		v.Add("skip", "must not be negative")
	}
	if limit < 0 {
		v.Add("limit", "must not be negative")
	}
	if err := v.OrNil(); err != nil {
		return 0, 0, err
	}

	switch {
	case limit == 0:
		limit = DefaultPageLimit
	case limit > MaxPageLimit:
		limit = MaxPageLimit
	}
	return skip, limit, nil
}
