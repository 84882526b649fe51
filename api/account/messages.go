package account

import (
	"go.lumeweb.com/accounts/core"
	"go.lumeweb.com/accounts/db/models"
)

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ReverifyRequest struct {
	Email string `json:"email"`
}

type SubscriptionRequest struct {
	Subscription string `json:"subscription"`
}

// Response is the envelope every success body and most error bodies share.
type Response struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ValidationErrorResponse is the body of a 400 raised by input validation.
type ValidationErrorResponse struct {
	Error string `json:"error"`
}

type RegisterData struct {
	User    *core.AccountSummary `json:"user"`
	Message string               `json:"message"`
}

// LoginUser is the reduced account view returned with a session token.
type LoginUser struct {
	ID           string              `json:"id"`
	Email        string              `json:"email"`
	Subscription models.Subscription `json:"subscription"`
}

type LoginData struct {
	Token string    `json:"token"`
	User  LoginUser `json:"user"`
}

type UserData struct {
	User *core.AccountSummary `json:"user"`
}

type UsersData struct {
	Users []core.AccountSummary `json:"users"`
}

type AvatarData struct {
	AvatarURL string `json:"avatarURL"`
}

type RemovedData struct {
	User string `json:"user"`
}
