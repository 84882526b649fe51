package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/samber/lo"
	"go.lumeweb.com/accounts/core"
	"go.lumeweb.com/accounts/db/models"
	"go.lumeweb.com/accounts/event"
	"go.uber.org/zap"
)

var _ core.AccountService = (*AccountServiceDefault)(nil)

func init() {
	core.RegisterService(core.ServiceInfo{
		ID: core.ACCOUNT_SERVICE,
		Factory: func() (core.Service, []core.ContextBuilderOption, error) {
			return NewAccountService()
		},
		Depends: []string{
			core.ACCOUNT_STORE_SERVICE,
			core.PASSWORD_SERVICE,
			core.TOKEN_SERVICE,
			core.VERIFICATION_SERVICE,
			core.AVATAR_SERVICE,
		},
	})
}

type AccountServiceDefault struct {
	ctx          core.Context
	store        core.AccountStore
	password     core.PasswordService
	token        core.TokenService
	verification core.VerificationService
	avatar       core.AvatarService
	logger       *zap.Logger

	placeholderOnce sync.Once
	placeholderHash string
}

// Unknown emails are checked against a hash of this so a failed login costs
// the same whether or not the account exists.
const placeholderPassword = "accounts-login-placeholder"

func NewAccountService() (*AccountServiceDefault, []core.ContextBuilderOption, error) {
	account := &AccountServiceDefault{}

	opts := core.ContextOptions(
		core.ContextWithStartupFunc(func(ctx core.Context) error {
			account.ctx = ctx
			account.store = core.GetService[core.AccountStore](ctx, core.ACCOUNT_STORE_SERVICE)
			account.password = core.GetService[core.PasswordService](ctx, core.PASSWORD_SERVICE)
			account.token = core.GetService[core.TokenService](ctx, core.TOKEN_SERVICE)
			account.verification = core.GetService[core.VerificationService](ctx, core.VERIFICATION_SERVICE)
			account.avatar = core.GetService[core.AvatarService](ctx, core.AVATAR_SERVICE)
			account.logger = ctx.ServiceLogger(account)
			return nil
		}),
	)

	return account, opts, nil
}

func (s *AccountServiceDefault) ID() string {
	return core.ACCOUNT_SERVICE
}

func (s *AccountServiceDefault) Register(ctx context.Context, email string, password string) (*core.AccountSummary, error) {
	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return nil, core.NewAccountError(core.ErrKeyEmailAlreadyExists, nil)
	} else if !core.IsNotFound(err) {
		return nil, err
	}

	hash, err := s.password.Hash(password)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		Email:        email,
		PasswordHash: hash,
		Subscription: models.SubscriptionStarter,
		AvatarURL:    GravatarURL(email),
	}

	// Insert still fails with a conflict when a concurrent registration wins the race.
	if err := s.store.Insert(ctx, account); err != nil {
		return nil, err
	}

	if _, err := s.verification.Issue(ctx, account); err != nil {
		return nil, err
	}

	if err := event.FireAccountCreatedEvent(s.ctx, account); err != nil {
		s.logger.Error("failed to fire account created event", zap.String("account", account.ID), zap.Error(err))
	}

	summary := core.NewAccountSummary(account)
	summary.VerificationToken = account.VerificationToken

	return summary, nil
}

func (s *AccountServiceDefault) Login(ctx context.Context, email string, password string) (string, *core.AccountSummary, error) {
	account, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if core.IsNotFound(err) {
			s.password.Verify(password, s.loginPlaceholderHash())
			return "", nil, core.NewAccountError(core.ErrKeyInvalidLogin, nil)
		}
		return "", nil, err
	}

	if !s.password.Verify(password, account.PasswordHash) || !account.Verify {
		return "", nil, core.NewAccountError(core.ErrKeyInvalidLogin, nil)
	}

	token, err := s.token.Issue(account.ID, account.Email, account.Subscription)
	if err != nil {
		return "", nil, err
	}

	if err := s.store.UpdateFields(ctx, account.ID, map[string]any{"token": token}); err != nil {
		return "", nil, err
	}

	account.Token = &token

	return token, core.NewAccountSummary(account), nil
}

func (s *AccountServiceDefault) loginPlaceholderHash() string {
	s.placeholderOnce.Do(func() {
		hash, err := s.password.Hash(placeholderPassword)
		if err != nil {
			s.logger.Error("failed to hash login placeholder", zap.Error(err))
			return
		}
		s.placeholderHash = hash
	})

	return s.placeholderHash
}

func (s *AccountServiceDefault) Logout(ctx context.Context, id string) error {
	return s.store.UpdateFields(ctx, id, map[string]any{"token": nil})
}

func (s *AccountServiceDefault) Authenticate(ctx context.Context, token string) (*core.AccountSummary, error) {
	claims, err := s.token.Parse(token)
	if err != nil {
		return nil, err
	}

	account, err := s.store.FindByToken(ctx, token)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, core.NewAccountError(core.ErrKeyUnauthorized, nil)
		}
		return nil, err
	}

	if account.ID != claims.ID {
		return nil, core.NewAccountError(core.ErrKeyUnauthorized, nil)
	}

	return core.NewAccountSummary(account), nil
}

func (s *AccountServiceDefault) Verify(ctx context.Context, token string) (*core.AccountSummary, error) {
	account, err := s.verification.Consume(ctx, token)
	if err != nil {
		return nil, err
	}

	return core.NewAccountSummary(account), nil
}

func (s *AccountServiceDefault) ResendVerification(ctx context.Context, email string) error {
	_, err := s.verification.Reissue(ctx, email)
	return err
}

func (s *AccountServiceDefault) UpdateProfile(ctx context.Context, id string, update core.ProfileUpdate) (*core.AccountSummary, error) {
	if update.Subscription != nil && !update.Subscription.Valid() {
		return nil, core.NewValidationError(fmt.Sprintf("subscription must be one of: %s", subscriptionList()))
	}

	if _, err := s.store.FindByID(ctx, id); err != nil {
		return nil, err
	}

	if err := s.store.UpdateFields(ctx, id, update.Fields()); err != nil {
		return nil, err
	}

	return s.GetOne(ctx, id, id)
}

func (s *AccountServiceDefault) UpdateSubscription(ctx context.Context, id string, tier models.Subscription) (*core.AccountSummary, error) {
	if !tier.Valid() {
		return nil, core.NewValidationError(fmt.Sprintf("subscription must be one of: %s", subscriptionList()))
	}

	return s.UpdateProfile(ctx, id, core.ProfileUpdate{Subscription: &tier})
}

func (s *AccountServiceDefault) UpdateAvatar(ctx context.Context, id string, upload core.AvatarUpload) (string, error) {
	return s.avatar.Update(ctx, id, upload)
}

func (s *AccountServiceDefault) Remove(ctx context.Context, id string) error {
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return err
	}

	if err := event.FireAccountRemovedEvent(s.ctx, id); err != nil {
		s.logger.Error("account removed event handler failed", zap.String("account", id), zap.Error(err))
	}

	return nil
}

func (s *AccountServiceDefault) ListAll(ctx context.Context) ([]core.AccountSummary, error) {
	accounts, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	return lo.Map(accounts, func(account models.Account, _ int) core.AccountSummary {
		return *core.NewAccountSummary(&account)
	}), nil
}

func (s *AccountServiceDefault) ListPage(all []core.AccountSummary, start int, end int) []core.AccountSummary {
	return lo.Slice(all, start, end)
}

func (s *AccountServiceDefault) GetOne(ctx context.Context, id string, _ string) (*core.AccountSummary, error) {
	account, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return core.NewAccountSummary(account), nil
}

// GravatarURL is the placeholder avatar derived from the email address.
func GravatarURL(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))

	query := url.Values{}
	query.Set("s", "250")
	query.Set("r", "pg")
	query.Set("d", "mp")

	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?%s", hex.EncodeToString(sum[:]), query.Encode())
}

func subscriptionList() string {
	return strings.Join(lo.Map(models.Subscriptions, func(s models.Subscription, _ int) string {
		return string(s)
	}), ", ")
}
