// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	authsvc "codeberg.org/oliverandrich/hdnotes/internal/services/auth"
	"github.com/labstack/echo/v4"
)

// domainErrors maps expected outcomes to their HTTP response.
var domainErrors = []struct {
	err     error
	status  int
	message string
}{
	{authsvc.ErrDuplicateEmail, http.StatusBadRequest, "User already exists with this email"},
	{authsvc.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{authsvc.ErrNoChallenge, http.StatusBadRequest, "No OTP found. Please request a new one."},
	{authsvc.ErrExpired, http.StatusBadRequest, "OTP has expired. Please request a new one."},
	{authsvc.ErrMismatch, http.StatusBadRequest, "Invalid OTP"},
	{authsvc.ErrAlreadyVerified, http.StatusBadRequest, "Email is already verified"},
	{authsvc.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
	{authsvc.ErrEmailNotVerified, http.StatusUnauthorized, "Please verify your email first"},
	{authsvc.ErrInvalidAssertion, http.StatusBadRequest, "Invalid Google token"},
	{authsvc.ErrInvalidToken, http.StatusUnauthorized, "Unauthenticated"},
}

func message(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"message": msg})
}

// respondError writes the response for err. Unknown errors are logged and
// reported as a generic internal error.
func respondError(c echo.Context, err error) error {
	for _, d := range domainErrors {
		if errors.Is(err, d.err) {
			return message(c, d.status, d.message)
		}
	}
	return internalError(c, err)
}

func internalError(c echo.Context, err error) error {
	req := c.Request()
	slog.ErrorContext(req.Context(), "request_failed",
		"method", req.Method,
		"uri", req.RequestURI,
		"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		"error", err,
	)
	return message(c, http.StatusInternalServerError, "Internal server error")
}

// ErrorHandler renders errors that escape handlers and middleware as JSON.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok || msg == "" {
			msg = http.StatusText(he.Code)
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(he.Code)
		} else {
			err = message(c, he.Code, msg)
		}
	} else {
		err = respondError(c, err)
	}

	if err != nil {
		slog.Error("error_response_failed", "error", err)
	}
}
