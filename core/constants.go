package core

const (
	PASSWORD_SERVICE      = "password"
	TOKEN_SERVICE         = "token"
	VERIFICATION_SERVICE  = "verification"
	AVATAR_SERVICE        = "avatar"
	ACCOUNT_SERVICE       = "account"
	ACCOUNT_STORE_SERVICE = "account_store"
	VALIDATION_SERVICE    = "validation"
)

const AUTH_COOKIE_NAME = "auth_token"
const AUTH_TOKEN_NAME = "auth_token"
