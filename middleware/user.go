package middleware

import (
	"context"
	"errors"

	"go.lumeweb.com/accounts/core"
)

const DEFAULT_ACCOUNT_CONTEXT_KEY AccountContextKeyType = "account"
const AUTH_TOKEN_CONTEXT_KEY AuthTokenContextKeyType = "auth_token"

var (
	ErrorAccountContextInvalid   = errors.New("account stored in context is missing or of the wrong type")
	ErrorAuthTokenContextInvalid = errors.New("auth token stored in context is not of type string")
)

// GetAccountFromContext returns the account the auth middleware resolved for the request.
func GetAccountFromContext(ctx context.Context) (*core.AccountSummary, error) {
	account, ok := ctx.Value(DEFAULT_ACCOUNT_CONTEXT_KEY).(*core.AccountSummary)

	if !ok || account == nil {
		return nil, ErrorAccountContextInvalid
	}

	return account, nil
}

func GetAccountIDFromContext(ctx context.Context) (string, error) {
	account, err := GetAccountFromContext(ctx)
	if err != nil {
		return "", err
	}

	return account.ID, nil
}

func GetAuthTokenFromContext(ctx context.Context) (string, error) {
	authToken, ok := ctx.Value(AUTH_TOKEN_CONTEXT_KEY).(string)

	if !ok {
		return "", ErrorAuthTokenContextInvalid
	}

	return authToken, nil
}
