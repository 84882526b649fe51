package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	EnvPrefix    = "ACCOUNTS_"
	envSeparator = "__"
)

var (
	configFilePaths = []string{
		"/etc/lumeweb/accounts/config.yaml",
		"/etc/lumeweb/accounts/config.yml",
		"$HOME/.lumeweb/accounts/config.yaml",
		"$HOME/.lumeweb/accounts/config.yml",
		"./accounts.yaml",
		"./accounts.yml",
	}
	errConfigFileNotFound = errors.New("config file not found")
)

var _ Manager = (*ManagerDefault)(nil)

type Config struct {
	Core CoreConfig `mapstructure:"core"`
}

type ManagerDefault struct {
	config     *koanf.Koanf
	root       *Config
	configFile string
	changes    bool
}

// NewManager loads the first config file found in the well known locations.
// A missing file is not an error; one is written from defaults on Init.
func NewManager() (*ManagerDefault, error) {
	configFile := findConfigFile(false, false)
	if configFile == "" {
		configFile = findConfigFile(true, true)
	}

	return NewManagerWithFile(configFile)
}

// NewManagerWithFile loads the config from an explicit path. The file does not have to exist.
func NewManagerWithFile(configFile string) (*ManagerDefault, error) {
	k, err := newConfig(configFile)
	if err != nil && !errors.Is(err, errConfigFileNotFound) {
		return nil, err
	}

	exists := err == nil

	return &ManagerDefault{
		config:     k,
		configFile: configFile,
		changes:    !exists,
	}, nil
}

func (m *ManagerDefault) hooks() []mapstructure.DecodeHookFunc {
	return []mapstructure.DecodeHookFunc{
		cacheConfigHook(),
		byteSizeHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	}
}

func (m *ManagerDefault) Init() error {
	m.root = &Config{}

	err := m.setDefaultsForObject(&m.root.Core, "core")
	if err != nil {
		return err
	}
	err = m.maybeSave()
	if err != nil {
		return err
	}

	// Environment overrides are layered on a copy so they never end up in the saved file.
	merged := m.config.Copy()
	err = merged.Load(env.Provider(EnvPrefix, ".", envKey), nil)
	if err != nil {
		return fmt.Errorf("failed to load environment overrides: %w", err)
	}

	err = merged.UnmarshalWithConf("", m.root, koanf.UnmarshalConf{
		Tag: "mapstructure",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook:       mapstructure.ComposeDecodeHookFunc(m.hooks()...),
			Metadata:         nil,
			Result:           m.root,
			WeaklyTypedInput: true,
		},
	})
	if err != nil {
		return err
	}

	m.maybeConfigureCluster()

	return m.validateObject(m.root)
}

func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), strings.ToLower(envSeparator), ".")
}

func (m *ManagerDefault) setDefaultsForObject(obj any, prefix string) error {
	objValue := reflect.ValueOf(obj)
	objType := reflect.TypeOf(obj)

	if objValue.Kind() == reflect.Ptr {
		if objValue.IsNil() {
			return nil
		}
		objValue = objValue.Elem()
		objType = objType.Elem()
	}

	if setter, ok := obj.(Defaults); ok {
		err := m.applyDefaults(setter, prefix)
		if err != nil {
			return err
		}
	}

	if objValue.Kind() != reflect.Struct {
		return nil
	}

	for i := 0; i < objValue.NumField(); i++ {
		field := objValue.Field(i)
		fieldType := objType.Field(i)

		if !field.CanInterface() {
			continue
		}

		newPrefix := fieldPrefix(prefix, fieldType)

		switch {
		case field.Kind() == reflect.Struct:
			err := m.setDefaultsForObject(field.Addr().Interface(), newPrefix)
			if err != nil {
				return err
			}
		case field.Kind() == reflect.Ptr && !field.IsNil() && field.Elem().Kind() == reflect.Struct:
			err := m.setDefaultsForObject(field.Interface(), newPrefix)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func (m *ManagerDefault) validateObject(obj any) error {
	objValue := reflect.ValueOf(obj)

	if objValue.Kind() == reflect.Ptr {
		if objValue.IsNil() {
			return nil
		}
		objValue = objValue.Elem()
	}

	if validator, ok := obj.(Validator); ok {
		err := validator.Validate()
		if err != nil {
			return err
		}
	}

	if objValue.Kind() != reflect.Struct {
		return nil
	}

	for i := 0; i < objValue.NumField(); i++ {
		field := objValue.Field(i)

		if !field.CanInterface() {
			continue
		}

		switch {
		case field.Kind() == reflect.Struct:
			err := m.validateObject(field.Addr().Interface())
			if err != nil {
				return err
			}
		case field.Kind() == reflect.Ptr && !field.IsNil() && field.Elem().Kind() == reflect.Struct:
			err := m.validateObject(field.Interface())
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func fieldPrefix(prefix string, field reflect.StructField) string {
	tag := field.Tag.Get("mapstructure")
	if tag == "" || tag == "-" {
		return prefix
	}
	if prefix == "" {
		return tag
	}
	return prefix + "." + tag
}

func (m *ManagerDefault) applyDefaults(setter Defaults, prefix string) error {
	for key, value := range setter.Defaults() {
		fullKey := key
		if prefix != "" {
			fullKey = fmt.Sprintf("%s.%s", prefix, key)
		}

		set, err := m.setDefault(fullKey, value)
		if err != nil {
			return err
		}
		if set {
			m.changes = true
		}
	}

	return nil
}

func (m *ManagerDefault) setDefault(key string, value any) (bool, error) {
	if m.config.Exists(key) {
		return false, nil
	}

	if err := m.config.Set(key, value); err != nil {
		return false, err
	}

	return true, nil
}

func (m *ManagerDefault) maybeSave() error {
	if !m.changes || m.configFile == "" {
		return nil
	}

	data, err := m.config.Marshal(yaml.Parser())
	if err != nil {
		return err
	}

	err = os.MkdirAll(path.Dir(m.configFile), 0755)
	if err != nil {
		return err
	}

	err = os.WriteFile(m.configFile, data, 0644)
	if err != nil {
		return err
	}

	m.changes = false

	return nil
}

// maybeConfigureCluster points the query cache at the shared redis when running clustered.
func (m *ManagerDefault) maybeConfigureCluster() {
	if !m.root.Core.Clustered.Enabled {
		return
	}

	m.root.Core.DB.Cache.Mode = CacheModeRedis
	m.root.Core.DB.Cache.Options = m.root.Core.Clustered.Redis
}

func (m *ManagerDefault) Config() *Config {
	return m.root
}

func (m *ManagerDefault) Save() error {
	m.changes = true
	return m.maybeSave()
}

func (m *ManagerDefault) ConfigFile() string {
	return m.configFile
}

func (m *ManagerDefault) ConfigDir() string {
	return path.Dir(m.configFile)
}

func newConfig(configFile string) (*koanf.Koanf, error) {
	k := koanf.New(".")

	if configFile == "" {
		return k, errConfigFileNotFound
	}

	if _, err := os.Stat(configFile); err != nil {
		if os.IsNotExist(err) {
			return k, errConfigFileNotFound
		}
		return nil, err
	}

	if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, err
	}

	return k, nil
}

func findConfigFile(dirCheck bool, ignoreExist bool) string {
	for _, _path := range configFilePaths {
		expandedPath := os.ExpandEnv(_path)
		_, err := os.Stat(expandedPath)
		if err == nil {
			return expandedPath
		}
		if os.IsNotExist(err) && dirCheck {
			_, err := os.Stat(path.Dir(expandedPath))
			if err == nil {
				return expandedPath
			}
		}
	}

	if ignoreExist {
		return os.ExpandEnv(configFilePaths[len(configFilePaths)-2])
	}

	return ""
}
