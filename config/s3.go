package config

import (
	"errors"
)

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

func (s S3Config) validate() error {
	if s.Bucket == "" {
		return errors.New("core.storage.avatar.s3.bucket is required")
	}
	if s.Endpoint == "" {
		return errors.New("core.storage.avatar.s3.endpoint is required")
	}
	if s.Region == "" {
		return errors.New("core.storage.avatar.s3.region is required")
	}
	if s.AccessKey == "" {
		return errors.New("core.storage.avatar.s3.access_key is required")
	}
	if s.SecretKey == "" {
		return errors.New("core.storage.avatar.s3.secret_key is required")
	}
	return nil
}
