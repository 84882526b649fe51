package config

import "errors"

var _ Defaults = (*MailQueueConfig)(nil)
var _ Validator = (*MailQueueConfig)(nil)

type MailQueueBackend string

const (
	MailQueueBackendMemory MailQueueBackend = "memory"
	MailQueueBackendRedis  MailQueueBackend = "redis"
)

type MailQueueConfig struct {
	Backend    MailQueueBackend `mapstructure:"backend"`
	Name       string           `mapstructure:"name"`
	Workers    int              `mapstructure:"workers"`
	MaxRetries int              `mapstructure:"max_retries"`
	BufferSize int              `mapstructure:"buffer_size"`
}

func (m MailQueueConfig) Defaults() map[string]any {
	return map[string]any{
		"backend":     string(MailQueueBackendMemory),
		"name":        "mail",
		"workers":     2,
		"max_retries": 3,
		"buffer_size": 100,
	}
}

func (m MailQueueConfig) Validate() error {
	switch m.Backend {
	case MailQueueBackendMemory, MailQueueBackendRedis:
	default:
		return errors.New("core.mail_queue.backend must be one of: memory, redis")
	}
	if m.Workers < 1 {
		return errors.New("core.mail_queue.workers must be at least 1")
	}
	if m.MaxRetries < 0 {
		return errors.New("core.mail_queue.max_retries must not be negative")
	}
	return nil
}
