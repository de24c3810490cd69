package email

import (
	"fmt"
	"time"
)

// message es un correo de texto plano ya renderizado.
type message struct {
	subject string
	body    string
}

func verificationMessage(code string, expiresAt time.Time) message {
	return message{
		subject: "Account verification code",
		body: fmt.Sprintf(
			"Your verification code is %s.\nIt expires at %s UTC.\n",
			code,
			expiresAt.UTC().Format(time.RFC3339),
		),
	}
}

func resetMessage(code string, expiresAt time.Time) message {
	return message{
		subject: "Password reset code",
		body: fmt.Sprintf(
			"Your password reset code is %s.\nIt expires at %s UTC.\nIf you did not request a reset, ignore this email.\n",
			code,
			expiresAt.UTC().Format(time.RFC3339),
		),
	}
}

func welcomeMessage(name string) message {
	if name == "" {
		name = "there"
	}
	return message{
		subject: "Welcome to Our Service!",
		body: fmt.Sprintf(
			"Hello %s,\n\nWelcome to our service! We're excited to have you on board.\n\nBest regards,\nThe Team\n",
			name,
		),
	}
}
