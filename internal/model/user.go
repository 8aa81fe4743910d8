package model

import (
	"net/mail"
	"strings"
)

// UserInfo is the profile shown on the account page.
type UserInfo struct {
	Username string `json:"-"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// ProfileUpdate carries an edit to the profile. A nil Password leaves the
// stored password unchanged.
type ProfileUpdate struct {
	Username string
	Name     string
	Email    string
	Password *string
}

// Validate checks the name and email.
func (p ProfileUpdate) Validate() error {
	var verr ValidationError
	if strings.TrimSpace(p.Name) == "" {
		verr.add("name", "name is required")
	}
	checkEmail(&verr, p.Email)
	if p.Password != nil && *p.Password == "" {
		verr.add("password", "password cannot be empty")
	}
	return verr.orNil()
}

// Credentials are used to sign in.
type Credentials struct {
	Username string
	Password string
}

// Validate requires both fields.
func (c Credentials) Validate() error {
	var verr ValidationError
	if strings.TrimSpace(c.Username) == "" {
		verr.add("username", "username is required")
	}
	if c.Password == "" {
		verr.add("password", "password is required")
	}
	return verr.orNil()
}

// Registration is a new account request.
type Registration struct {
	Name     string
	Username string
	Email    string
	Password string
	Confirm  string
}

// Validate checks every field. Mismatched passwords are reported with the
// same wording the web client uses.
func (r Registration) Validate() error {
	var verr ValidationError
	if strings.TrimSpace(r.Name) == "" {
		verr.add("name", "name is required")
	}
	if strings.TrimSpace(r.Username) == "" {
		verr.add("username", "username is required")
	}
	checkEmail(&verr, r.Email)
	if r.Password == "" {
		verr.add("password", "password is required")
	} else if r.Password != r.Confirm {
		verr.add("confirm", "Passwords do not match.")
	}
	return verr.orNil()
}

func checkEmail(verr *ValidationError, email string) {
	email = strings.TrimSpace(email)
	if email == "" {
		verr.add("email", "email is required")
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		verr.add("email", "email is not valid")
	}
}
