package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"keel/pkg/logging"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvironmentSeparator separates hierarchy levels in environment variable names.
const EnvironmentSeparator = "__"

type source interface {
	load() (map[string]interface{}, error)
}

// Builder assembles a Configuration from ordered sources.
type Builder struct {
	sources   []source
	envPrefix string
	environ   func() []string
}

// NewBuilder returns a Builder without sources.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddDefaults adds an in-memory source.
func (b *Builder) AddDefaults(values map[string]interface{}) *Builder {
	b.sources = append(b.sources, mapSource(values))
	return b
}

// AddYAMLFile adds a YAML file source. A missing optional file is skipped.
func (b *Builder) AddYAMLFile(path string, optional bool) *Builder {
	b.sources = append(b.sources, &fileSource{path: path, optional: optional})
	return b
}

// AddYAML adds YAML content from memory.
func (b *Builder) AddYAML(data []byte) *Builder {
	b.sources = append(b.sources, yamlSource(data))
	return b
}

// AddEnvironment lets environment variables starting with prefix override
// every other source. "__" separates levels, so KEEL_HOST__SHUTDOWNTIMEOUT
// sets Host:ShutdownTimeout.
func (b *Builder) AddEnvironment(prefix string) *Builder {
	b.envPrefix = prefix
	b.environ = os.Environ
	return b
}

// Build loads every source in order and merges them, then binds the
// environment on top.
func (b *Builder) Build() (*Configuration, error) {
	v := newViper()
	for _, src := range b.sources {
		values, err := src.load()
		if err != nil {
			return nil, err
		}
		if len(values) == 0 {
			continue
		}
		if err := v.MergeConfigMap(values); err != nil {
			return nil, fmt.Errorf("failed to merge configuration: %w", err)
		}
	}

	if b.environ != nil {
		if err := bindEnvironment(v, b.envPrefix, b.environ()); err != nil {
			return nil, err
		}
	}
	return &Configuration{v: v}, nil
}

// bindEnvironment resolves known keys through AutomaticEnv. Keys that only
// exist in the environment (Modules:<Name>:* for modules without defaults)
// are unknown to viper, so the prefixed names are bound explicitly.
func bindEnvironment(v *viper.Viper, prefix string, environ []string) error {
	v.SetEnvPrefix(strings.TrimSuffix(prefix, "_"))
	v.SetEnvKeyReplacer(strings.NewReplacer(KeyDelimiter, EnvironmentSeparator))
	v.AutomaticEnv()

	for _, kv := range environ {
		name, _, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(strings.ToUpper(name), strings.ToUpper(prefix)) {
			continue
		}
		key, err := envKey(name[len(prefix):])
		if err != nil {
			return &ConfigurationError{Source: name, ErrorType: "parse", Err: err}
		}
		if err := v.BindEnv(key, name); err != nil {
			return &ConfigurationError{Source: name, ErrorType: "parse", Err: err}
		}
	}
	return nil
}

// envKey maps A__B to the configuration key a:b.
func envKey(name string) (string, error) {
	segments := strings.Split(name, EnvironmentSeparator)
	for i, segment := range segments {
		if segment == "" {
			return "", fmt.Errorf("empty key segment")
		}
		segments[i] = strings.ToLower(segment)
	}
	return strings.Join(segments, KeyDelimiter), nil
}

type mapSource map[string]interface{}

func (m mapSource) load() (map[string]interface{}, error) {
	return m, nil
}

type yamlSource []byte

func (y yamlSource) load() (map[string]interface{}, error) {
	values := map[string]interface{}{}
	if err := yaml.Unmarshal(y, &values); err != nil {
		return nil, &ConfigurationError{Source: "inline", ErrorType: "parse", Err: err}
	}
	return values, nil
}

type fileSource struct {
	path     string
	optional bool
}

func (f *fileSource) load() (map[string]interface{}, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && f.optional {
			logging.Info("ConfigLoader", "No configuration file found at %s, skipping", f.path)
			return nil, nil
		}
		return nil, &ConfigurationError{Source: f.path, ErrorType: "io", Err: err}
	}

	values := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, &ConfigurationError{Source: f.path, ErrorType: "parse", Err: err}
	}
	logging.Info("ConfigLoader", "Loaded configuration from %s", f.path)
	return values, nil
}
