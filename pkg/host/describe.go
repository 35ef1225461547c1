package host

import "keel/internal/modules"

// ModuleInfo identifies a registered module.
type ModuleInfo = modules.Info

// Description is a snapshot of what a host is made of.
type Description struct {
	State             State
	Options           Options
	Environment       Environment
	Modules           []ModuleInfo
	StartupFilters    int
	LifecycleHandlers []string
	BackgroundTasks   []string
	Services          []string
	Features          []string
}

// Describe reports the host's registrations without starting it.
func (h *Host) Describe() Description {
	return Description{
		State:             h.State(),
		Options:           h.opts,
		Environment:       h.env,
		Modules:           h.loader.Modules(),
		StartupFilters:    h.filters,
		LifecycleHandlers: h.handlers.Handlers(),
		BackgroundTasks:   h.runner.Tasks(),
		Services:          h.registry.Names(),
		Features:          h.app.Features().Names(),
	}
}
