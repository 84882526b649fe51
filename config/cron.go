package config

var _ Defaults = (*CronConfig)(nil)

type CronConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func (c CronConfig) Defaults() map[string]any {
	return map[string]any{
		"enabled": true,
	}
}
