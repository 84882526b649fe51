package config

import "errors"

var _ Validator = (*MailConfig)(nil)
var _ Defaults = (*MailConfig)(nil)

// MailConfig holds the SMTP settings. Mail is disabled while Host is empty.
type MailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	SSL      bool   `mapstructure:"ssl"`
	AuthType string `mapstructure:"auth_type"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

func (m MailConfig) Defaults() map[string]any {
	return map[string]any{
		"port":      465,
		"ssl":       true,
		"auth_type": "plain",
	}
}

func (m MailConfig) Validate() error {
	if !m.Enabled() {
		return nil
	}
	if m.Username == "" {
		return errors.New("core.mail.username is required")
	}
	if m.Password == "" {
		return errors.New("core.mail.password is required")
	}
	return nil
}

func (m MailConfig) Enabled() bool {
	return m.Host != ""
}

// Sender is the From address, defaulting to the SMTP username.
func (m MailConfig) Sender() string {
	if m.From != "" {
		return m.From
	}
	return m.Username
}
