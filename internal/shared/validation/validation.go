// Package validation holds the field checks shared by the registration and account forms.
package validation

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var (
	phonePattern = regexp.MustCompile(`^01[3-9]\d{8}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// MinPasswordLength is the shortest password accepted by the account forms.
const MinPasswordLength = 8

// ValidPhone reports whether s is an 11 digit mobile number starting with 01 and a 3-9 operator digit.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// ValidEmail performs the loose address check used by the signup form.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// PasswordRequirements lists which password rules an input meets.
type PasswordRequirements struct {
	MinLength  bool `json:"minLength"`
	HasUpper   bool `json:"hasUppercase"`
	HasLower   bool `json:"hasLowercase"`
	HasDigit   bool `json:"hasNumber"`
	HasSpecial bool `json:"hasSpecialChar"`
}

// Satisfied is true when every rule passes.
func (r PasswordRequirements) Satisfied() bool {
	return r.MinLength && r.HasUpper && r.HasLower && r.HasDigit && r.HasSpecial
}

// CheckPassword evaluates each password rule independently.
func CheckPassword(password string) PasswordRequirements {
	req := PasswordRequirements{MinLength: len([]rune(password)) >= MinPasswordLength}
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			req.HasUpper = true
		case unicode.IsLower(r):
			req.HasLower = true
		case unicode.IsDigit(r):
			req.HasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			req.HasSpecial = true
		}
	}
	return req
}

// FieldErrors maps a form field name to the inline message shown next to it.
type FieldErrors map[string]string

// Add records msg for field unless the field already has a message.
func (f FieldErrors) Add(field, msg string) {
	if _, exists := f[field]; exists {
		return
	}
	f[field] = msg
}

// Empty reports whether no field failed.
func (f FieldErrors) Empty() bool {
	return len(f) == 0
}

// Fields returns the failing field names in stable order.
func (f FieldErrors) Fields() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
