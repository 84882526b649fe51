package core

import (
	"context"

	"go.lumeweb.com/accounts/db/models"
)

type VerificationService interface {
	// Issue stores a fresh token on a persisted account and queues the verification mail.
	Issue(ctx context.Context, account *models.Account) (string, error)

	// Reissue replaces the pending token of an unverified account. The previous token stops working.
	Reissue(ctx context.Context, email string) (string, error)

	// Consume marks the matching account verified and clears its token.
	Consume(ctx context.Context, token string) (*models.Account, error)

	Service
}
