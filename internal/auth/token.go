// Package auth derives the requesting user from the Authorization credential.
//
// The credential is the base64 encoding of the user's email address. This is a
// reversible encoding, not a signature: anyone who knows an email can forge its
// token. It identifies users, it does not authenticate them.
package auth

import (
	"encoding/base64"
	"errors"
	"net/mail"
	"strings"
)

// ErrInvalidCredential is returned when a token does not decode to an email address.
var ErrInvalidCredential = errors.New("invalid credential")

// ErrInvalidEmail is returned for syntactically invalid email addresses.
var ErrInvalidEmail = errors.New("invalid email address")

// EncodeToken returns the token for email.
func EncodeToken(email string) string {
	return base64.StdEncoding.EncodeToString([]byte(email))
}

// DecodeToken reverses EncodeToken and validates the result.
func DecodeToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidCredential
	}
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", ErrInvalidCredential
	}
	email := string(raw)
	if err := ValidateEmail(email); err != nil {
		return "", ErrInvalidCredential
	}
	return email, nil
}

// ValidateEmail accepts bare addresses only: no display name, no angle brackets.
func ValidateEmail(email string) error {
	if email == "" || strings.TrimSpace(email) != email {
		return ErrInvalidEmail
	}
	parsed, err := mail.ParseAddress(email)
	if err != nil || parsed.Name != "" || parsed.Address != email {
		return ErrInvalidEmail
	}
	return nil
}
