// Package startup composes startup filters into a single action.
package startup

import (
	"context"

	"keel/pkg/core"
	"keel/pkg/result"
)

// terminal is the innermost action of every pipeline.
func terminal(context.Context, *core.Context) error {
	return nil
}

// Build folds filters into one action. The first filter is the outermost
// wrapper, so its pre-logic runs first and its post-logic runs last.
func Build(filters []core.StartupFilter) (core.StartupAction, error) {
	action := core.StartupAction(terminal)

	for i := len(filters) - 1; i >= 0; i-- {
		filter := filters[i]
		if filter == nil {
			return nil, result.Errorf(result.CodeValidation, "startup filter %d is nil", i)
		}

		next := filter.Configure(action)
		if next == nil {
			return nil, result.Errorf(result.CodeValidation, "startup filter %s returned a nil action", core.NameOf(filter))
		}
		action = next
	}

	return guarded(action), nil
}

// guarded converts a panic anywhere in the pipeline into an error.
func guarded(action core.StartupAction) core.StartupAction {
	return func(ctx context.Context, app *core.Context) error {
		return result.Guard(func() error {
			return action(ctx, app)
		})
	}
}
