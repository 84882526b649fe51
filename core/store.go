package core

import (
	"context"

	"go.lumeweb.com/accounts/db/models"
)

// AccountStore persists accounts. Lookups that match nothing fail with ErrKeyAccountNotFound.
type AccountStore interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByVerificationToken(ctx context.Context, token string) (*models.Account, error)
	FindByToken(ctx context.Context, token string) (*models.Account, error)

	// Insert fails with ErrKeyEmailAlreadyExists when the email is taken.
	Insert(ctx context.Context, account *models.Account) error

	UpdateFields(ctx context.Context, id string, fields map[string]any) error

	// SetVerificationToken only touches unverified accounts and fails with
	// ErrKeyAccountAlreadyVerified otherwise.
	SetVerificationToken(ctx context.Context, id string, token string) error

	// ConsumeVerificationToken marks the holder of token verified and clears the
	// token in one conditional write. Only one caller can win a given token.
	ConsumeVerificationToken(ctx context.Context, token string) (*models.Account, error)

	DeleteByID(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]models.Account, error)

	Service
}
