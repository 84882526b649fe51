package config

// Defaults is implemented by config sections that seed missing keys before decoding.
// Keys are relative to the section's own prefix.
type Defaults interface {
	Defaults() map[string]any
}

// Validator is implemented by config sections that check themselves after decoding.
type Validator interface {
	Validate() error
}

type Manager interface {
	// Init applies defaults, decodes the loaded sources into Config and validates the result.
	Init() error

	// Config returns the decoded root configuration. It is nil before Init.
	Config() *Config

	// Save writes the current configuration back to the config file.
	Save() error

	// ConfigFile returns the path of the file the configuration was loaded from.
	ConfigFile() string

	// ConfigDir returns the directory holding the config file.
	ConfigDir() string
}
