package background

import (
	"fmt"
	"time"

	"keel/pkg/result"
)

// Fault records a task that finished before shutdown was requested.
type Fault struct {
	Task string
	// Err is nil when the task returned early without an error.
	Err error
	At  time.Time
}

func (f Fault) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("background task %s exited before shutdown", f.Task)
	}
	return fmt.Sprintf("background task %s faulted: %v", f.Task, f.Err)
}

func (f Fault) Unwrap() error {
	return f.Err
}

// Code classifies the fault for result.FromError.
func (f Fault) Code() result.Code {
	return result.CodeBackgroundTaskFault
}

// Result returns the fault as a failed result.
func (f Fault) Result() result.Result {
	return result.Fail(result.Wrap(result.CodeBackgroundTaskFault, f.Error(), f.Err))
}
