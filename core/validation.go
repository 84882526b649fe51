package core

type ValidationService interface {
	ValidateRegister(email string, password string) error
	ValidateReverify(email string) error
	ValidateLogin(email string, password string) error
	ValidateLogout(body map[string]any) error
	ValidateSubscription(tier string) error
	ValidateAvatarFilename(name string) error

	Service
}
