package model

import (
	"regexp"
	"time"
)

// User roles
const (
	RoleAdmin     = "admin"
	RoleUser      = "user"
	RoleLeadGuide = "lead-guide"
	RoleGuide     = "guide"
)

// MinPasswordLength is the minimum accepted password length
const MinPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// User is the typed view of a user document. PasswordHash and the reset
// token fields never serialize; reads through the API project them away.
type User struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Photo             string     `json:"photo,omitempty"`
	Role              string     `json:"role"`
	Active            bool       `json:"-"`
	PasswordHash      string     `json:"-"`
	PasswordChangedAt *time.Time `json:"-"`
	ResetTokenHash    string     `json:"-"`
	ResetTokenExpires *time.Time `json:"-"`
}

// PasswordChangedAfter reports whether the password changed after the
// given token issue time (unix seconds).
func (u *User) PasswordChangedAfter(issuedAt int64) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return issuedAt < u.PasswordChangedAt.Unix()
}

// ValidRole reports whether role is one of the known user roles
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleUser, RoleLeadGuide, RoleGuide:
		return true
	}
	return false
}

// ValidEmail reports whether the address looks like an email
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidateUser checks user fields against the schema constraints.
// Password material is validated by the auth service, not here; writes
// through the generic factory never carry password fields.
func ValidateUser(fields Record, partial bool) []FieldError {
	var errs []FieldError

	if name, ok := stringField(fields, "name"); (!ok || name == "") && !partial {
		errs = append(errs, FieldError{Field: "name", Message: "Please tell us your name"})
	}

	email, hasEmail := stringField(fields, "email")
	switch {
	case !hasEmail && !partial:
		errs = append(errs, FieldError{Field: "email", Message: "Please provide an email"})
	case hasEmail && !ValidEmail(email):
		errs = append(errs, FieldError{Field: "email", Message: "Please insert correct email"})
	}

	if role, ok := stringField(fields, "role"); ok && !ValidRole(role) {
		errs = append(errs, FieldError{Field: "role", Message: "role must be admin, user, lead-guide or guide"})
	}

	return errs
}
