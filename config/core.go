package config

import (
	"errors"
	"fmt"
	"strings"
)

var _ Defaults = (*CoreConfig)(nil)
var _ Validator = (*CoreConfig)(nil)

type CoreConfig struct {
	Domain    string          `mapstructure:"domain"`
	Port      uint            `mapstructure:"port"`
	BaseURL   string          `mapstructure:"base_url"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DatabaseConfig  `mapstructure:"db"`
	Mail      MailConfig      `mapstructure:"mail"`
	MailQueue MailQueueConfig `mapstructure:"mail_queue"`
	Account   AccountConfig   `mapstructure:"account"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Cron      CronConfig      `mapstructure:"cron"`
	Clustered ClusterConfig   `mapstructure:"clustered"`
}

func (c CoreConfig) Validate() error {
	if c.Domain == "" {
		return errors.New("core.domain is required")
	}
	if c.Port == 0 {
		return errors.New("core.port is required")
	}

	return nil
}

func (c CoreConfig) Defaults() map[string]any {
	return map[string]any{
		"domain": "localhost",
		"port":   3000,
	}
}

// PublicURL is the externally reachable root used for avatar and verification links.
// It falls back to http://domain:port when base_url is not set.
func (c CoreConfig) PublicURL() string {
	if c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}

	return fmt.Sprintf("http://%s:%d", c.Domain, c.Port)
}
