package core

import (
	"context"
	"text/template"
)

const MAILER_SERVICE = "mailer"
const MAIL_QUEUE_SERVICE = "mail_queue"

const MAILER_TPL_VERIFY_EMAIL = "verify_email"

type MailerTemplateData = map[string]any

type MailerTemplate interface {
	Subject() *template.Template
	Body() *template.Template
}

type MailerService interface {
	TemplateSend(template string, subjectVars MailerTemplateData, bodyVars MailerTemplateData, to string) error
	TemplateRegister(name string, template MailerTemplate) error

	Service
}

// MailJob is one templated message waiting in the queue.
type MailJob struct {
	ID          string             `json:"id"`
	Template    string             `json:"template"`
	To          string             `json:"to"`
	SubjectVars MailerTemplateData `json:"subject_vars"`
	BodyVars    MailerTemplateData `json:"body_vars"`
	Attempts    int                `json:"attempts"`
}

type MailQueue interface {
	// Enqueue hands a job to the background workers. It never waits for delivery.
	Enqueue(ctx context.Context, job MailJob) error

	Service
}
