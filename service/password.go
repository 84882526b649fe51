package service

import (
	"go.lumeweb.com/accounts/core"
	"golang.org/x/crypto/bcrypt"
)

var _ core.PasswordService = (*PasswordServiceDefault)(nil)

func init() {
	core.RegisterService(core.ServiceInfo{
		ID: core.PASSWORD_SERVICE,
		Factory: func() (core.Service, []core.ContextBuilderOption, error) {
			return NewPasswordService()
		},
	})
}

type PasswordServiceDefault struct {
	cost int
}

func NewPasswordService() (*PasswordServiceDefault, []core.ContextBuilderOption, error) {
	return &PasswordServiceDefault{cost: bcrypt.DefaultCost}, nil, nil
}

func (p PasswordServiceDefault) ID() string {
	return core.PASSWORD_SERVICE
}

func (p PasswordServiceDefault) Hash(plaintext string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", core.NewAccountError(core.ErrKeyHashingFailed, err)
	}
	return string(bytes), nil
}

func (p PasswordServiceDefault) Verify(plaintext string, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
