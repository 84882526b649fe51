package core

import (
	"github.com/golang-jwt/jwt/v5"
	"go.lumeweb.com/accounts/db/models"
)

type SessionClaims struct {
	ID           string              `json:"id"`
	Email        string              `json:"email"`
	Subscription models.Subscription `json:"subscription"`
	jwt.RegisteredClaims
}

type TokenService interface {
	// Issue signs a session token valid for one hour.
	Issue(id string, email string, subscription models.Subscription) (string, error)

	// Parse checks signature and expiry. It does not check that the token is still stored.
	Parse(token string) (*SessionClaims, error)

	Service
}
