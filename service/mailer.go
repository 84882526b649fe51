package service

import (
	"errors"
	"strings"

	"github.com/wneessen/go-mail"
	"go.lumeweb.com/accounts/config"
	"go.lumeweb.com/accounts/core"
	"go.lumeweb.com/accounts/service/internal/mailer"
)

var ErrMailerDisabled = errors.New("mailer is not configured")

var _ core.MailerService = (*Mailer)(nil)

func init() {
	core.RegisterService(core.ServiceInfo{
		ID: core.MAILER_SERVICE,
		Factory: func() (core.Service, []core.ContextBuilderOption, error) {
			return NewMailerService(NewMailerTemplateRegistry())
		},
	})
}

type Mailer struct {
	cfg              config.MailConfig
	client           *mail.Client
	templateRegistry *mailer.TemplateRegistry
}

func (m *Mailer) ID() string {
	return core.MAILER_SERVICE
}

func (m *Mailer) TemplateSend(template string, subjectVars core.MailerTemplateData, bodyVars core.MailerTemplateData, to string) error {
	if m.client == nil {
		return ErrMailerDisabled
	}

	email, err := m.templateRegistry.RenderTemplate(template, subjectVars, bodyVars)
	if err != nil {
		return err
	}

	msg, err := email.Message(m.cfg.Sender(), to)
	if err != nil {
		return err
	}

	return m.client.DialAndSend(msg)
}

func (m *Mailer) TemplateRegister(name string, template core.MailerTemplate) error {
	m.templateRegistry.RegisterTemplate(name, template)
	return nil
}

func NewMailerService(templateRegistry *mailer.TemplateRegistry) (*Mailer, []core.ContextBuilderOption, error) {
	m := &Mailer{
		templateRegistry: templateRegistry,
	}

	if err := templateRegistry.LoadBuiltin(core.MAILER_TPL_VERIFY_EMAIL); err != nil {
		return nil, nil, err
	}

	opts := core.ContextOptions(
		core.ContextWithStartupFunc(func(ctx core.Context) error {
			m.cfg = ctx.Config().Config().Core.Mail

			if !m.cfg.Enabled() {
				ctx.ServiceLogger(m).Warn("mail host not configured, outgoing mail is disabled")
				return nil
			}

			client, err := newMailClient(m.cfg)
			if err != nil {
				return err
			}

			m.client = client

			return nil
		}),
		core.ContextWithExitFunc(func(ctx core.Context) error {
			if m.client == nil {
				return nil
			}

			err := m.client.Close()
			if err != nil && !errors.Is(err, mail.ErrNoActiveConnection) {
				return err
			}

			return nil
		}),
	)

	return m, opts, nil
}

func newMailClient(cfg config.MailConfig) (*mail.Client, error) {
	var options []mail.Option

	if cfg.Port != 0 {
		options = append(options, mail.WithPort(cfg.Port))
	}

	if cfg.AuthType != "" {
		options = append(options, mail.WithSMTPAuth(mail.SMTPAuthType(strings.ToUpper(cfg.AuthType))))
	}

	if cfg.SSL {
		options = append(options, mail.WithSSLPort(true))
	}

	options = append(options, mail.WithUsername(cfg.Username))
	options = append(options, mail.WithPassword(cfg.Password))

	return mail.NewClient(cfg.Host, options...)
}

func NewMailerTemplateRegistry() *mailer.TemplateRegistry {
	return mailer.NewTemplateRegistry()
}
