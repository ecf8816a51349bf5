// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"time"

	"codeberg.org/oliverandrich/hdnotes/internal/models"
	authsvc "codeberg.org/oliverandrich/hdnotes/internal/services/auth"
	"github.com/labstack/echo/v4"
)

// AuthHandlers contains handlers for authentication.
type AuthHandlers struct {
	auth *authsvc.Service
	now  func() time.Time
}

// NewAuth creates a new AuthHandlers instance.
func NewAuth(svc *authsvc.Service) *AuthHandlers {
	return &AuthHandlers{auth: svc, now: time.Now}
}

// SignupRequest is the request body for signup.
type SignupRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	DateOfBirth string `json:"dateOfBirth"`
	Password    string `json:"password"`
}

// VerifyOTPRequest is the request body for OTP verification.
type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// ResendOTPRequest is the request body for requesting a new OTP.
type ResendOTPRequest struct {
	Email string `json:"email"`
}

// LoginRequest is the request body for password login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GoogleRequest carries a Google ID token.
type GoogleRequest struct {
	Token string `json:"token"`
}

type sessionResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    models.User `json:"user"`
}

func invalidBody(c echo.Context) error {
	return message(c, http.StatusBadRequest, "Invalid request body")
}

// Signup registers a new user and mails an OTP.
func (h *AuthHandlers) Signup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	var errs fieldErrors
	name := errs.length("name", "Name", req.Name, 2, 50)
	email := errs.email("email", req.Email)
	dob := errs.date("dateOfBirth", "Date of birth", req.DateOfBirth, h.now())
	for _, v := range h.auth.PasswordValidator().Validate(req.Password).Errors {
		errs.add("password", v.Message)
	}
	if len(errs) > 0 {
		return errs.respond(c)
	}

	user, err := h.auth.Signup(c.Request().Context(), authsvc.SignupParams{
		Name:        name,
		Email:       email,
		Password:    req.Password,
		DateOfBirth: dob,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]string{
		"message": "User created successfully. Please verify your email with the OTP sent.",
		"userId":  user.ID,
	})
}

// VerifyOTP checks the emailed code and starts the first session.
func (h *AuthHandlers) VerifyOTP(c echo.Context) error {
	var req VerifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	var errs fieldErrors
	email := errs.email("email", req.Email)
	errs.required("otp", "OTP", req.OTP)
	if len(errs) > 0 {
		return errs.respond(c)
	}

	sess, err := h.auth.VerifyOTP(c.Request().Context(), email, req.OTP)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, sessionResponse{
		Message: "Email verified successfully",
		Token:   sess.Token,
		User:    sess.User,
	})
}

// ResendOTP mails a fresh code to an unverified user.
func (h *AuthHandlers) ResendOTP(c echo.Context) error {
	var req ResendOTPRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	var errs fieldErrors
	email := errs.email("email", req.Email)
	if len(errs) > 0 {
		return errs.respond(c)
	}

	if err := h.auth.ResendOTP(c.Request().Context(), email); err != nil {
		return respondError(c, err)
	}

	return message(c, http.StatusOK, "OTP sent successfully")
}

// Login authenticates with email and password.
func (h *AuthHandlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	var errs fieldErrors
	email := errs.email("email", req.Email)
	if req.Password == "" {
		errs.add("password", "Password is required")
	}
	if len(errs) > 0 {
		return errs.respond(c)
	}

	sess, err := h.auth.Login(c.Request().Context(), email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, sessionResponse{
		Message: "Login successful",
		Token:   sess.Token,
		User:    sess.User,
	})
}

// Google signs in with a Google ID token.
func (h *AuthHandlers) Google(c echo.Context) error {
	var req GoogleRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	var errs fieldErrors
	errs.required("token", "Token", req.Token)
	if len(errs) > 0 {
		return errs.respond(c)
	}

	sess, err := h.auth.GoogleLogin(c.Request().Context(), req.Token)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, sessionResponse{
		Message: "Google authentication successful",
		Token:   sess.Token,
		User:    sess.User,
	})
}
