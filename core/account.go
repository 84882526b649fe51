package core

import (
	"context"

	"go.lumeweb.com/accounts/db/models"
)

// AccountSummary is the caller facing view of an account. The password hash never leaves the service layer
// and the verification token is only filled in on registration.
type AccountSummary struct {
	ID                string              `json:"id"`
	Email             string              `json:"email"`
	Subscription      models.Subscription `json:"subscription"`
	AvatarURL         string              `json:"avatarURL"`
	Verify            bool                `json:"verify"`
	VerificationToken *string             `json:"verificationToken,omitempty"`
}

func NewAccountSummary(account *models.Account) *AccountSummary {
	if account == nil {
		return nil
	}

	return &AccountSummary{
		ID:           account.ID,
		Email:        account.Email,
		Subscription: account.Subscription,
		AvatarURL:    account.AvatarURL,
		Verify:       account.Verify,
	}
}

// ProfileUpdate carries the mutable profile fields. Nil fields are left untouched.
type ProfileUpdate struct {
	Subscription *models.Subscription `json:"subscription,omitempty"`
	AvatarURL    *string              `json:"avatarURL,omitempty"`
}

func (p ProfileUpdate) Fields() map[string]any {
	fields := make(map[string]any)

	if p.Subscription != nil {
		fields["subscription"] = *p.Subscription
	}
	if p.AvatarURL != nil {
		fields["avatar_url"] = *p.AvatarURL
	}

	return fields
}

type AccountService interface {
	// Register creates an unverified account and sends the verification mail.
	// The returned summary includes the verification token.
	Register(ctx context.Context, email string, password string) (*AccountSummary, error)

	// Login checks the credentials of a verified account and stores a fresh session token.
	// Unknown email, wrong password and unverified account fail with the same error.
	Login(ctx context.Context, email string, password string) (string, *AccountSummary, error)

	// Logout clears the stored session token.
	Logout(ctx context.Context, id string) error

	// Authenticate resolves a bearer token to the account currently holding it.
	Authenticate(ctx context.Context, token string) (*AccountSummary, error)

	// Verify consumes a verification token.
	Verify(ctx context.Context, token string) (*AccountSummary, error)

	// ResendVerification issues a new verification token for an unverified account.
	ResendVerification(ctx context.Context, email string) error

	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*AccountSummary, error)
	UpdateSubscription(ctx context.Context, id string, tier models.Subscription) (*AccountSummary, error)
	UpdateAvatar(ctx context.Context, id string, upload AvatarUpload) (string, error)

	// Remove deletes the account record.
	Remove(ctx context.Context, id string) error

	ListAll(ctx context.Context) ([]AccountSummary, error)

	// ListPage slices an already fetched listing. Out of range bounds yield a shorter or empty page.
	ListPage(all []AccountSummary, start int, end int) []AccountSummary

	// GetOne fetches any account by id. requesterID is accepted but not used for scoping.
	GetOne(ctx context.Context, id string, requesterID string) (*AccountSummary, error)

	Service
}
