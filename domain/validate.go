package domain

import (
	"net/mail"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxTitleLen       = 100
	maxDescriptionLen = 500
	maxNotesLen       = 1000
	minPasswordLen    = 6
)

// FieldErrors maps field names to human readable validation messages. It is
// returned before any store or provider call is made.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	fields := make([]string, 0, len(f))
	for name := range f {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, name := range fields {
		parts = append(parts, name+": "+f[name])
	}
	return strings.Join(parts, "; ")
}

// ValidateTaskInput checks a new task against the task schema.
func ValidateTaskInput(in TaskInput) error {
	errs := FieldErrors{}
	switch {
	case in.Title == "":
		errs["title"] = "Title is required."
	case utf8.RuneCountInString(in.Title) > maxTitleLen:
		errs["title"] = "Title must be 100 characters or less."
	}
	if utf8.RuneCountInString(in.Description) > maxDescriptionLen {
		errs["description"] = "Description must be 500 characters or less."
	}
	if !validDueDate(in.DueDate) {
		errs["dueDate"] = "Invalid date format."
	}
	if utf8.RuneCountInString(in.Notes) > maxNotesLen {
		errs["notes"] = "Notes must be 1000 characters or less."
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateTaskPatch checks the fields a partial update actually carries.
func ValidateTaskPatch(p TaskPatch) error {
	errs := FieldErrors{}
	if p.Title != nil {
		switch {
		case *p.Title == "":
			errs["title"] = "Title is required."
		case utf8.RuneCountInString(*p.Title) > maxTitleLen:
			errs["title"] = "Title must be 100 characters or less."
		}
	}
	if p.Description != nil && utf8.RuneCountInString(*p.Description) > maxDescriptionLen {
		errs["description"] = "Description must be 500 characters or less."
	}
	if p.DueDate != nil && !validDueDate(*p.DueDate) {
		errs["dueDate"] = "Invalid date format."
	}
	if p.Notes != nil && utf8.RuneCountInString(*p.Notes) > maxNotesLen {
		errs["notes"] = "Notes must be 1000 characters or less."
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateRegistration checks registration credentials. The confirmation
// mismatch is reported here so it never reaches the provider.
func ValidateRegistration(email, password, confirmPassword string) error {
	errs := credentialErrors(email, password)
	if confirmPassword != password {
		errs["confirmPassword"] = "Passwords don't match."
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateLogin checks login credentials.
func ValidateLogin(email, password string) error {
	errs := credentialErrors(email, password)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func credentialErrors(email, password string) FieldErrors {
	errs := FieldErrors{}
	if !validEmail(email) {
		errs["email"] = "Invalid email address."
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		errs["password"] = "Password must be at least 6 characters."
	}
	return errs
}

func validEmail(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// validDueDate accepts the empty string ("not set") or any parseable date.
func validDueDate(s string) bool {
	if s == "" {
		return true
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, time.RFC3339Nano} {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
