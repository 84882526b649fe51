package config

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/docker/go-units"
	"github.com/go-viper/mapstructure/v2"
)

var _ Defaults = (*AvatarStorageConfig)(nil)
var _ Validator = (*AvatarStorageConfig)(nil)

type AvatarBackend string

const (
	AvatarBackendLocal AvatarBackend = "local"
	AvatarBackendS3    AvatarBackend = "s3"
)

type StorageConfig struct {
	Avatar AvatarStorageConfig `mapstructure:"avatar"`
}

type AvatarStorageConfig struct {
	Backend       AvatarBackend `mapstructure:"backend"`
	Dir           string        `mapstructure:"dir"`
	UploadDir     string        `mapstructure:"upload_dir"`
	MaxUploadSize ByteSize      `mapstructure:"max_upload_size"`
	Size          int           `mapstructure:"size"`
	StaleUpload   time.Duration `mapstructure:"stale_upload"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	S3            S3Config      `mapstructure:"s3"`
}

func (a AvatarStorageConfig) Defaults() map[string]any {
	return map[string]any{
		"backend":         string(AvatarBackendLocal),
		"dir":             "public/avatars",
		"upload_dir":      "tmp",
		"max_upload_size": "5MB",
		"size":            250,
		"stale_upload":    "1h",
		"sweep_interval":  "15m",
	}
}

func (a AvatarStorageConfig) Validate() error {
	if a.UploadDir == "" {
		return errors.New("core.storage.avatar.upload_dir is required")
	}
	if a.Size <= 0 {
		return errors.New("core.storage.avatar.size must be positive")
	}
	if a.MaxUploadSize <= 0 {
		return errors.New("core.storage.avatar.max_upload_size must be positive")
	}

	switch a.Backend {
	case AvatarBackendLocal:
		if a.Dir == "" {
			return errors.New("core.storage.avatar.dir is required")
		}
	case AvatarBackendS3:
		return a.S3.validate()
	default:
		return errors.New("core.storage.avatar.backend must be one of: local, s3")
	}

	return nil
}

// ByteSize is a size in bytes that decodes from human readable strings such as "5MB".
type ByteSize int64

func (b ByteSize) String() string {
	return units.BytesSize(float64(b))
}

func byteSizeHook() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if t != reflect.TypeOf(ByteSize(0)) || f.Kind() != reflect.String {
			return data, nil
		}

		size, err := units.RAMInBytes(data.(string))
		if err != nil {
			return nil, fmt.Errorf("invalid size %q: %w", data, err)
		}

		return ByteSize(size), nil
	}
}
