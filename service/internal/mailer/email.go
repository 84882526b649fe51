package mailer

import (
	"fmt"

	"github.com/wneessen/go-mail"
)

const userAgent = "accounts-mailer"

// Email is a rendered template that has not been addressed yet.
type Email struct {
	Subject string
	Body    string
}

// Message addresses the email. It is flagged as automated so auto-responders
// do not answer it.
func (e Email) Message(from string, to string) (*mail.Msg, error) {
	msg := mail.NewMsg()

	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("sender address: %w", err)
	}

	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("recipient address: %w", err)
	}

	msg.Subject(e.Subject)
	msg.SetDate()
	msg.SetMessageID()
	msg.SetUserAgent(userAgent)
	msg.SetGenHeader(mail.Header("Auto-Submitted"), "auto-generated")
	msg.SetBodyString(mail.TypeTextPlain, e.Body)

	return msg, nil
}
