// Package config provides layered, hierarchical configuration for keel.
//
// A Configuration is assembled by a Builder from ordered sources; later
// sources override earlier ones key by key:
//
//	cfg, err := config.NewBuilder().
//	    AddDefaults(map[string]interface{}{"Logging": map[string]interface{}{"Level": "info"}}).
//	    AddYAMLFile("keel.yaml", true).
//	    AddEnvironment("KEEL_").
//	    Build()
//
// Keys are case-insensitive and hierarchical, separated by ":" (for example
// "Modules:Diagnostics:Address"). Environment variables use "__" as the
// separator, so KEEL_MODULES__DIAGNOSTICS__ADDRESS sets the key above.
//
// Sections are bound to structs with Bind, which understands mapstructure
// tags and parses durations such as "5s".
package config
