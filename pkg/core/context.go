package core

import (
	"context"
	"fmt"

	"keel/pkg/cancellation"
	"keel/pkg/features"
	"keel/pkg/logging"
	"keel/pkg/result"
	"keel/pkg/services"
)

// Configuration is the read side of the host configuration.
type Configuration interface {
	// Get returns the value at a ":"-separated key, or nil.
	Get(key string) interface{}
	// Section returns the subtree at path, empty when missing.
	Section(path string) map[string]interface{}
	// Bind decodes the subtree at path into out.
	Bind(path string, out interface{}) error
}

// Context is the immutable, process-wide handle given to every participant.
type Context struct {
	services   services.Resolver
	config     Configuration
	loggers    logging.Factory
	features   *features.Collection
	hub        *cancellation.Hub
	instanceID string
}

// NewContext validates and assembles a Context.
func NewContext(resolver services.Resolver, cfg Configuration, loggers logging.Factory, feats *features.Collection, hub *cancellation.Hub, instanceID string) (*Context, error) {
	missing := ""
	switch {
	case resolver == nil:
		missing = "service resolver"
	case cfg == nil:
		missing = "configuration"
	case loggers == nil:
		missing = "logger factory"
	case feats == nil:
		missing = "feature collection"
	case hub == nil:
		missing = "cancellation hub"
	case instanceID == "":
		missing = "instance id"
	}
	if missing != "" {
		return nil, result.Errorf(result.CodeValidation, "application context requires a %s", missing)
	}

	return &Context{
		services:   resolver,
		config:     cfg,
		loggers:    loggers,
		features:   feats,
		hub:        hub,
		instanceID: instanceID,
	}, nil
}

func (c *Context) Services() services.Resolver {
	return c.services
}

func (c *Context) Config() Configuration {
	return c.config
}

func (c *Context) Loggers() logging.Factory {
	return c.loggers
}

// Logger is shorthand for Loggers().CreateLogger(category).
func (c *Context) Logger(category string) logging.Logger {
	return c.loggers.CreateLogger(category)
}

func (c *Context) Features() *features.Collection {
	return c.features
}

func (c *Context) Cancellation() *cancellation.Hub {
	return c.hub
}

// ShutdownContext is cancelled when the host begins stopping.
func (c *Context) ShutdownContext() context.Context {
	return c.hub.Root()
}

// Stopping is closed when the host begins stopping.
func (c *Context) Stopping() <-chan struct{} {
	return c.hub.Done()
}

// InstanceID identifies this host instance.
func (c *Context) InstanceID() string {
	return c.instanceID
}

// Named is implemented by participants that report their own identity.
type Named interface {
	Name() string
}

// NameOf returns p's Name when it implements Named, else its dynamic type.
func NameOf(p interface{}) string {
	if n, ok := p.(Named); ok && n.Name() != "" {
		return n.Name()
	}
	return fmt.Sprintf("%T", p)
}
