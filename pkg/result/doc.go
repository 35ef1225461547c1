// Package result provides the structured outcome values used at the host's
// orchestration boundaries.
//
// An Error carries a stable Code, a human readable message and an optional
// underlying cause. Result and Of[T] wrap either a success (with an optional
// value) or an Error, never both.
//
// Errors produced by the host packages implement a Code() method so they can
// be converted into an Error without losing their classification:
//
//	if err := h.Start(ctx); err != nil {
//	    e := result.FromError(err)
//	    if e.Code() == result.CodeModuleInitialization {
//	        // ...
//	    }
//	}
//
// Go errors remain the primary signalling mechanism. Result values are used
// where an outcome is stored or reported rather than returned, such as task
// fault records and startup errors captured by the host.
package result
