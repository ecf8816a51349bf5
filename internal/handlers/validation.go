// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"codeberg.org/oliverandrich/hdnotes/internal/models"
	"github.com/labstack/echo/v4"
)

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type fieldErrors []FieldError

func (f *fieldErrors) add(field, msg string) {
	*f = append(*f, FieldError{Field: field, Message: msg})
}

func (f fieldErrors) respond(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, map[string]any{"errors": f})
}

// email validates and normalizes an address. Display names are rejected.
func (f *fieldErrors) email(field, value string) string {
	value = models.NormalizeEmail(value)
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value || !strings.Contains(value[strings.LastIndex(value, "@")+1:], ".") {
		f.add(field, "Please provide a valid email")
		return ""
	}
	return value
}

// length trims value and checks its length in characters.
func (f *fieldErrors) length(field, label, value string, minLen, maxLen int) string {
	value = strings.TrimSpace(value)
	n := utf8.RuneCountInString(value)
	switch {
	case n == 0 && minLen > 0:
		f.add(field, label+" is required")
	case n < minLen:
		f.add(field, fmt.Sprintf("%s must be between %d and %d characters", label, minLen, maxLen))
	case n > maxLen:
		if minLen <= 1 {
			f.add(field, fmt.Sprintf("%s must be at most %d characters", label, maxLen))
		} else {
			f.add(field, fmt.Sprintf("%s must be between %d and %d characters", label, minLen, maxLen))
		}
	}
	return value
}

// required checks that value is not blank.
func (f *fieldErrors) required(field, label, value string) {
	if strings.TrimSpace(value) == "" {
		f.add(field, label+" is required")
	}
}

// date parses an ISO 8601 calendar date or timestamp in the past.
func (f *fieldErrors) date(field, label, value string, now time.Time) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range []string{time.DateOnly, time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, value); err == nil {
			if t.After(now) {
				f.add(field, label+" must be in the past")
				return time.Time{}
			}
			return t
		}
	}
	f.add(field, label+" must be a valid date")
	return time.Time{}
}
