package config

import (
	"errors"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
)

var _ Defaults = (*CacheConfig)(nil)
var _ Validator = (*CacheConfig)(nil)

type CacheMode string

const (
	CacheModeMemory CacheMode = "memory"
	CacheModeRedis  CacheMode = "redis"
	CacheModeNone   CacheMode = "none"
)

type CacheConfig struct {
	Mode    CacheMode `mapstructure:"mode"`
	Options any       `mapstructure:"options"`
}

func (c CacheConfig) Defaults() map[string]any {
	return map[string]any{
		"mode": string(CacheModeMemory),
	}
}

func (c CacheConfig) Validate() error {
	switch c.Mode {
	case CacheModeRedis:
		if _, ok := c.Options.(RedisConfig); !ok {
			return errors.New("core.db.cache.options must hold redis settings in redis mode")
		}
	case CacheModeMemory, CacheModeNone:
	default:
		return errors.New("core.db.cache.mode must be one of: memory, redis, none")
	}

	return nil
}

type MemoryConfig struct {
}

// cacheConfigHook decodes the untyped options block according to the cache mode.
func cacheConfigHook() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.Map || t != reflect.TypeOf(CacheConfig{}) {
			return data, nil
		}

		raw, ok := data.(map[string]any)
		if !ok {
			return data, nil
		}

		var cacheConfig CacheConfig
		if mode, ok := raw["mode"].(string); ok {
			cacheConfig.Mode = CacheMode(mode)
		}

		switch cacheConfig.Mode {
		case CacheModeRedis:
			redisOptions := RedisConfig{Address: defaultRedisAddress}
			if opts, ok := raw["options"].(map[string]any); ok && opts != nil {
				decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
					Result:           &redisOptions,
					WeaklyTypedInput: true,
				})
				if err != nil {
					return nil, err
				}
				if err := decoder.Decode(opts); err != nil {
					return nil, err
				}
			}
			cacheConfig.Options = redisOptions
		case CacheModeMemory:
			cacheConfig.Options = MemoryConfig{}
		case "false", "":
			cacheConfig.Mode = CacheModeNone
			cacheConfig.Options = nil
		default:
			cacheConfig.Options = nil
		}

		return cacheConfig, nil
	}
}
