package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

func TestTemplateRegistry_RenderVerifyEmail(t *testing.T) {
	tr := NewTemplateRegistry()
	require.NoError(t, tr.LoadBuiltin("verify_email"))

	vars := map[string]any{
		"Email":      "a@example.com",
		"VerifyLink": "http://localhost:3000/api/users/verify/abc",
	}

	email, err := tr.RenderTemplate("verify_email", vars, vars)
	require.NoError(t, err)
	assert.Equal(t, "Email verification", email.Subject)
	assert.Contains(t, email.Body, "http://localhost:3000/api/users/verify/abc")
	assert.Contains(t, email.Body, "a@example.com")

	msg, err := email.Message("noreply@example.com", "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"Email verification"}, msg.GetGenHeader(mail.HeaderSubject))
	assert.Equal(t, []string{"auto-generated"}, msg.GetGenHeader(mail.Header("Auto-Submitted")))
	assert.Equal(t, []string{userAgent}, msg.GetGenHeader(mail.HeaderUserAgent))

	rcpts, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com"}, rcpts)
}

func TestTemplateRegistry_UnknownTemplate(t *testing.T) {
	tr := NewTemplateRegistry()

	_, err := tr.RenderTemplate("missing", nil, nil)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestEmail_MessageRejectsBadAddress(t *testing.T) {
	email := Email{Subject: "s", Body: "b"}

	_, err := email.Message("noreply@example.com", "not an address")
	assert.ErrorContains(t, err, "recipient address")

	_, err = email.Message("", "a@example.com")
	assert.ErrorContains(t, err, "sender address")
}
