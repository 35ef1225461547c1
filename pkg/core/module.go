package core

import (
	"context"
	"fmt"

	"keel/pkg/logging"
	"keel/pkg/services"
)

// ModulesSection is the configuration root for per-module sections.
const ModulesSection = "Modules"

// Module is a unit of functionality initialized once before startup.
type Module interface {
	Name() string
	Version() string
	Initialize(ctx context.Context, mc *ModuleContext) error
}

// ModuleContext is what a module sees while initializing.
type ModuleContext struct {
	app       *Context
	registrar services.Registrar
	config    ModuleConfig
	id        string
	logger    logging.Logger
}

// NewModuleContext builds the context for m.
func NewModuleContext(app *Context, registrar services.Registrar, m Module) *ModuleContext {
	return &ModuleContext{
		app:       app,
		registrar: registrar,
		config:    ModuleConfig{root: app.Config(), prefix: ModulesSection + ":" + m.Name()},
		id:        fmt.Sprintf("%s@%s", m.Name(), m.Version()),
		logger:    app.Logger(m.Name()),
	}
}

func (mc *ModuleContext) App() *Context {
	return mc.app
}

// Services lets the module register services for later participants.
func (mc *ModuleContext) Services() services.Registrar {
	return mc.registrar
}

// Config returns the module's "Modules:<Name>" section.
func (mc *ModuleContext) Config() ModuleConfig {
	return mc.config
}

// ID returns "<name>@<version>".
func (mc *ModuleContext) ID() string {
	return mc.id
}

func (mc *ModuleContext) Logger() logging.Logger {
	return mc.logger
}

// ModuleConfig is a view of one module's configuration section.
type ModuleConfig struct {
	root   Configuration
	prefix string
}

// Path returns the section's absolute path.
func (c ModuleConfig) Path() string {
	return c.prefix
}

// Get returns the value at key relative to the section.
func (c ModuleConfig) Get(key string) interface{} {
	return c.root.Get(c.prefix + ":" + key)
}

// Settings returns the whole section.
func (c ModuleConfig) Settings() map[string]interface{} {
	return c.root.Section(c.prefix)
}

// Bind decodes the section into out.
func (c ModuleConfig) Bind(out interface{}) error {
	return c.root.Bind(c.prefix, out)
}
