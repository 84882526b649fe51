package config

import "errors"

var _ Defaults = (*AccountConfig)(nil)
var _ Validator = (*AccountConfig)(nil)

type AccountConfig struct {
	SecretKey           string `mapstructure:"secret_key"`
	Issuer              string `mapstructure:"issuer"`
	VerifyPath          string `mapstructure:"verify_path"`
	PurgeAvatarOnRemove bool   `mapstructure:"purge_avatar_on_remove"`
}

func (a AccountConfig) Defaults() map[string]any {
	return map[string]any{
		"issuer":                 "accounts",
		"verify_path":            "/api/users/verify",
		"purge_avatar_on_remove": false,
	}
}

func (a AccountConfig) Validate() error {
	if a.SecretKey == "" {
		return errors.New("core.account.secret_key is required")
	}
	return nil
}
