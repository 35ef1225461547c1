// Package services provides the service resolver the host hands to its
// participants.
//
// Services are registered under a name, either as a ready instance or as a
// Factory that is invoked lazily on first resolution. Factories run once;
// the produced value is shared by every later Resolve call. A factory may
// resolve other services through the Resolver it receives; cycles are
// reported as a ResolutionError instead of deadlocking.
//
//	reg := services.NewRegistry()
//	_ = reg.RegisterInstance("clock", systemClock{})
//	_ = reg.RegisterFactory("cache", func(r services.Resolver) (interface{}, error) {
//	    clock, err := services.Resolve[Clock](r, "clock")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return newCache(clock), nil
//	})
//
//	cache, err := services.Resolve[*Cache](reg, "cache")
package services
