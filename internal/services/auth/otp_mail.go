// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"strings"

	"codeberg.org/oliverandrich/hdnotes/internal/i18n"
	"codeberg.org/oliverandrich/hdnotes/internal/services/otp"
)

type otpMail struct {
	Subject string
	Body    string
}

// otpMessage builds the verification mail in the locale carried by ctx.
func otpMessage(ctx context.Context, name, code string) otpMail {
	lines := []string{
		i18n.TData(ctx, "otp_email_greeting", map[string]any{"Name": name}),
		"",
		i18n.TData(ctx, "otp_email_code", map[string]any{"Code": code}),
		i18n.TData(ctx, "otp_email_expiry", map[string]any{"Minutes": int(otp.TTL.Minutes())}),
		"",
		i18n.T(ctx, "otp_email_ignore"),
	}
	return otpMail{
		Subject: i18n.T(ctx, "otp_email_subject"),
		Body:    strings.Join(lines, "\n"),
	}
}
