package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.lumeweb.com/accounts/core"
	"go.lumeweb.com/accounts/db/models"
)

// SessionTokenDuration is the fixed validity of a session token.
const SessionTokenDuration = time.Hour

var (
	ErrTokenUnexpectedClaims = errors.New("unexpected claims type")
	ErrTokenNotConfigured    = errors.New("token signing secret is not configured")
)

var _ core.TokenService = (*TokenServiceDefault)(nil)

func init() {
	core.RegisterService(core.ServiceInfo{
		ID: core.TOKEN_SERVICE,
		Factory: func() (core.Service, []core.ContextBuilderOption, error) {
			return NewTokenService()
		},
	})
}

type TokenServiceDefault struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewTokenService() (*TokenServiceDefault, []core.ContextBuilderOption, error) {
	token := &TokenServiceDefault{now: time.Now}

	opts := core.ContextOptions(
		core.ContextWithStartupFunc(func(ctx core.Context) error {
			cfg := ctx.Config().Config().Core.Account
			token.secret = []byte(cfg.SecretKey)
			token.issuer = cfg.Issuer
			return nil
		}),
	)

	return token, opts, nil
}

func (t TokenServiceDefault) ID() string {
	return core.TOKEN_SERVICE
}

func (t TokenServiceDefault) Issue(id string, email string, subscription models.Subscription) (string, error) {
	if len(t.secret) == 0 {
		return "", core.NewAccountError(core.ErrKeyTokenGenerationFailed, ErrTokenNotConfigured)
	}

	now := t.now()
	claims := core.SessionClaims{
		ID:           id,
		Email:        email,
		Subscription: subscription,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    t.issuer,
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTokenDuration)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", core.NewAccountError(core.ErrKeyTokenGenerationFailed, err)
	}

	return signed, nil
}

func (t TokenServiceDefault) Parse(token string) (*core.SessionClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &core.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, opts...)
	if err != nil {
		return nil, core.NewAccountError(core.ErrKeyUnauthorized, err)
	}

	claims, ok := parsed.Claims.(*core.SessionClaims)
	if !ok || !parsed.Valid {
		return nil, core.NewAccountError(core.ErrKeyUnauthorized, ErrTokenUnexpectedClaims)
	}

	return claims, nil
}
