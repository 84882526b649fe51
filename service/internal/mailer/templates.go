package mailer

import (
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"go.lumeweb.com/accounts/core"
)

const EMAIL_FS_PREFIX = "templates/"

//go:embed templates/*.tmpl
var templateFS embed.FS

var _ core.MailerTemplate = (*EmailTemplate)(nil)

type EmailTemplate struct {
	subject *template.Template
	body    *template.Template
}

func (et *EmailTemplate) Subject() *template.Template {
	return et.subject
}

func (et *EmailTemplate) Body() *template.Template {
	return et.body
}

func NewMailerTemplate(subject *template.Template, body *template.Template) *EmailTemplate {
	return &EmailTemplate{
		subject: subject,
		body:    body,
	}
}

var ErrTemplateNotFound = errors.New("template not found")

type TemplateRegistry struct {
	templates   map[string]core.MailerTemplate
	templatesMu sync.RWMutex
}

func NewTemplateRegistry() *TemplateRegistry {
	return &TemplateRegistry{
		templates: make(map[string]core.MailerTemplate),
	}
}

// LoadBuiltin parses the embedded {name}_subject.tmpl and {name}_body.tmpl pair and registers it.
func (tr *TemplateRegistry) LoadBuiltin(name string) error {
	subject, err := template.ParseFS(templateFS, fmt.Sprintf("%s%s_subject.tmpl", EMAIL_FS_PREFIX, name))
	if err != nil {
		return err
	}

	body, err := template.ParseFS(templateFS, fmt.Sprintf("%s%s_body.tmpl", EMAIL_FS_PREFIX, name))
	if err != nil {
		return err
	}

	tr.RegisterTemplate(name, NewMailerTemplate(subject, body))

	return nil
}

func (tr *TemplateRegistry) RegisterTemplate(name string, template core.MailerTemplate) {
	tr.templatesMu.Lock()
	defer tr.templatesMu.Unlock()
	tr.templates[name] = template
}

func (tr *TemplateRegistry) RenderTemplate(templateName string, subjectVars core.MailerTemplateData, bodyVars core.MailerTemplateData) (Email, error) {
	tr.templatesMu.RLock()
	tmpl, ok := tr.templates[templateName]
	tr.templatesMu.RUnlock()

	if !ok {
		return Email{}, ErrTemplateNotFound
	}

	var subjectBuilder strings.Builder
	err := tmpl.Subject().Execute(&subjectBuilder, subjectVars)
	if err != nil {
		return Email{}, err
	}

	var bodyBuilder strings.Builder
	err = tmpl.Body().Execute(&bodyBuilder, bodyVars)
	if err != nil {
		return Email{}, err
	}

	return Email{
		Subject: strings.TrimSpace(subjectBuilder.String()),
		Body:    bodyBuilder.String(),
	}, nil
}
