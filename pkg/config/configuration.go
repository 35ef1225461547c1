package config

import (
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// KeyDelimiter separates hierarchy levels in configuration keys.
const KeyDelimiter = ":"

// Configuration is a read-only view over merged configuration values.
type Configuration struct {
	v *viper.Viper
}

func newViper() *viper.Viper {
	return viper.NewWithOptions(viper.KeyDelimiter(KeyDelimiter))
}

// New returns an empty Configuration.
func New() *Configuration {
	return &Configuration{v: newViper()}
}

// FromMap returns a Configuration holding values. Nested maps become sections.
func FromMap(values map[string]interface{}) *Configuration {
	v := newViper()
	_ = v.MergeConfigMap(values)
	return &Configuration{v: v}
}

// Get returns the raw value at key, or nil. Sections come back as maps
// with environment overrides applied.
func (c *Configuration) Get(key string) interface{} {
	value := c.v.Get(key)
	if _, ok := toStringMap(value); ok {
		return c.lookup(key)
	}
	return value
}

func (c *Configuration) GetString(key string) string {
	return c.v.GetString(key)
}

func (c *Configuration) GetBool(key string) bool {
	return c.v.GetBool(key)
}

func (c *Configuration) GetInt(key string) int {
	return c.v.GetInt(key)
}

func (c *Configuration) GetDuration(key string) time.Duration {
	return c.v.GetDuration(key)
}

// IsSet reports whether key holds a value.
func (c *Configuration) IsSet(key string) bool {
	return c.v.IsSet(key)
}

// Keys returns every leaf key, sorted.
func (c *Configuration) Keys() []string {
	keys := c.v.AllKeys()
	sort.Strings(keys)
	return keys
}

// AllSettings returns the full configuration tree.
func (c *Configuration) AllSettings() map[string]interface{} {
	return c.v.AllSettings()
}

// Section returns the subtree at path, or an empty map when path is missing
// or holds a scalar.
func (c *Configuration) Section(path string) map[string]interface{} {
	if path == "" {
		return c.v.AllSettings()
	}
	if m, ok := toStringMap(c.lookup(path)); ok {
		return m
	}
	return map[string]interface{}{}
}

// lookup walks AllSettings along path. Unlike viper's Get on a parent key,
// AllSettings resolves every leaf, so environment overrides are included.
func (c *Configuration) lookup(path string) interface{} {
	var node interface{} = c.v.AllSettings()
	for _, segment := range strings.Split(strings.ToLower(path), KeyDelimiter) {
		m, ok := toStringMap(node)
		if !ok {
			return nil
		}
		if node, ok = m[segment]; !ok {
			return nil
		}
	}
	return node
}

// Sub returns the subtree at path as its own Configuration. A missing path
// yields an empty Configuration.
func (c *Configuration) Sub(path string) *Configuration {
	return FromMap(c.Section(path))
}

// Bind decodes the subtree at path into out. A missing path leaves out untouched.
func (c *Configuration) Bind(path string, out interface{}) error {
	var data interface{}
	if path == "" {
		data = c.v.AllSettings()
	} else {
		data = c.lookup(path)
	}
	if data == nil {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook:       decodeHooks(),
	})
	if err != nil {
		return &ConfigurationError{Source: path, ErrorType: "bind", Err: err}
	}
	if err := decoder.Decode(data); err != nil {
		return &ConfigurationError{Source: path, ErrorType: "bind", Err: err}
	}
	return nil
}

func decodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// durationDecodeHook converts strings like "30s" and raw numbers to time.Duration.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(strings.TrimSpace(v))
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

func toStringMap(raw interface{}) (map[string]interface{}, bool) {
	switch m := raw.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, v := range m {
			if s, ok := k.(string); ok {
				out[s] = v
			}
		}
		return out, true
	default:
		return nil, false
	}
}
