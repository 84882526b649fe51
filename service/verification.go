package service

import (
	"context"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.lumeweb.com/accounts/core"
	"go.lumeweb.com/accounts/db/models"
	"go.lumeweb.com/accounts/event"
	"go.uber.org/zap"
)

var _ core.VerificationService = (*VerificationServiceDefault)(nil)

func init() {
	core.RegisterService(core.ServiceInfo{
		ID: core.VERIFICATION_SERVICE,
		Factory: func() (core.Service, []core.ContextBuilderOption, error) {
			return NewVerificationService()
		},
		Depends: []string{core.ACCOUNT_STORE_SERVICE, core.MAIL_QUEUE_SERVICE},
	})
}

type VerificationServiceDefault struct {
	ctx        core.Context
	store      core.AccountStore
	queue      core.MailQueue
	logger     *zap.Logger
	publicURL  string
	verifyPath string
}

func NewVerificationService() (*VerificationServiceDefault, []core.ContextBuilderOption, error) {
	verification := &VerificationServiceDefault{}

	opts := core.ContextOptions(
		core.ContextWithStartupFunc(func(ctx core.Context) error {
			cfg := ctx.Config().Config().Core
			verification.ctx = ctx
			verification.store = core.GetService[core.AccountStore](ctx, core.ACCOUNT_STORE_SERVICE)
			verification.queue = core.GetService[core.MailQueue](ctx, core.MAIL_QUEUE_SERVICE)
			verification.logger = ctx.ServiceLogger(verification)
			verification.publicURL = cfg.PublicURL()
			verification.verifyPath = cfg.Account.VerifyPath
			return nil
		}),
	)

	return verification, opts, nil
}

func (v *VerificationServiceDefault) ID() string {
	return core.VERIFICATION_SERVICE
}

func (v *VerificationServiceDefault) Issue(ctx context.Context, account *models.Account) (string, error) {
	token, err := gonanoid.New()
	if err != nil {
		return "", core.NewAccountError(core.ErrKeyTokenGenerationFailed, err)
	}

	if err := v.store.SetVerificationToken(ctx, account.ID, token); err != nil {
		return "", err
	}

	account.VerificationToken = &token

	v.sendMail(ctx, account.Email, token)

	return token, nil
}

func (v *VerificationServiceDefault) Reissue(ctx context.Context, email string) (string, error) {
	account, err := v.store.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	if account.Verify {
		return "", core.NewAccountError(core.ErrKeyAccountAlreadyVerified, nil)
	}

	return v.Issue(ctx, account)
}

func (v *VerificationServiceDefault) Consume(ctx context.Context, token string) (*models.Account, error) {
	account, err := v.store.ConsumeVerificationToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := event.FireAccountVerifiedEvent(v.ctx, account); err != nil {
		v.logger.Error("failed to fire account verified event", zap.String("account", account.ID), zap.Error(err))
	}

	return account, nil
}

// VerifyLink is the URL mailed to the account owner.
func (v *VerificationServiceDefault) VerifyLink(token string) string {
	return fmt.Sprintf("%s%s/%s", v.publicURL, v.verifyPath, token)
}

// sendMail never fails the caller. The token stays usable and can be mailed again.
func (v *VerificationServiceDefault) sendMail(ctx context.Context, email string, token string) {
	vars := core.MailerTemplateData{
		"Email":      email,
		"VerifyLink": v.VerifyLink(token),
	}

	err := v.queue.Enqueue(ctx, core.MailJob{
		Template:    core.MAILER_TPL_VERIFY_EMAIL,
		To:          email,
		SubjectVars: vars,
		BodyVars:    vars,
	})
	if err != nil {
		v.logger.Error("failed to queue verification mail", zap.String("email", email), zap.Error(err))
	}
}
