// Package validation holds input rules shared by the API, the services and the onboarding flow.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MinPasswordLength = 6
	// bcrypt ignores input past 72 bytes.
	MaxPasswordBytes = 72
	MaxEmailLength   = 254
	MinUsername      = 3
	MaxUsername      = 30
	MaxBioLength     = 500
)

// onboardingEmailRegex is the loose check used by the sign-up form.
var onboardingEmailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var usernameRegex = regexp.MustCompile(`^[a-z0-9_.]+$`)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]`)

var reservedUsernames = map[string]struct{}{
	"admin":         {},
	"api":           {},
	"auth":          {},
	"crwn":          {},
	"settings":      {},
	"support":       {},
	"stylists":      {},
	"users":         {},
	"posts":         {},
	"notifications": {},
	"onboard":       {},
	"storage":       {},
	"ws":            {},
	"swagger":       {},
	"metrics":       {},
	"login":         {},
	"signup":        {},
}

// IsEmail reports whether s looks like an e-mail address.
func IsEmail(s string) bool {
	return onboardingEmailRegex.MatchString(s)
}

// ValidateEmail checks format and length.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > MaxEmailLength {
		return fmt.Errorf("email must be at most %d characters", MaxEmailLength)
	}
	if !IsEmail(email) {
		return fmt.Errorf("please enter a valid email")
	}
	return nil
}

// ValidatePassword enforces the sign-up password length rules.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("password must be at most %d bytes", MaxPasswordBytes)
	}
	return nil
}

// NormalizeUsername trims and lower-cases a username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// ValidateUsername validates an already normalized username.
func ValidateUsername(username string) error {
	if len(username) < MinUsername || len(username) > MaxUsername {
		return fmt.Errorf("username must be %d-%d characters", MinUsername, MaxUsername)
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username may only contain lowercase letters, numbers, dots and underscores")
	}
	if _, reserved := reservedUsernames[username]; reserved {
		return fmt.Errorf("username is reserved")
	}
	return nil
}

// UsernameFromEmail derives a default username from the local part of an address:
// lower-cased with everything outside [a-z0-9] removed.
func UsernameFromEmail(email string) string {
	local := email
	if i := strings.Index(email, "@"); i >= 0 {
		local = email[:i]
	}
	return nonAlnum.ReplaceAllString(strings.ToLower(local), "")
}

// NormalizeTags lower-cases, trims and de-duplicates tags, keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "#")))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
