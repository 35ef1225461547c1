package result

// Code is a stable, dotted identifier classifying an Error.
type Code string

const (
	CodeValidation           Code = "Host.Validation"
	CodeInvalidState         Code = "Host.InvalidState"
	CodeModuleInitialization Code = "Module.InitializationFailed"
	CodeStartupPipeline      Code = "Startup.PipelineFailed"
	CodeLifecycleHandler     Code = "Lifecycle.HandlerFailed"
	CodeCanceled             Code = "Operation.Canceled"
	CodeBackgroundTaskFault  Code = "BackgroundTask.Faulted"
	CodeServiceResolution    Code = "Services.ResolutionFailed"
	CodeConfiguration        Code = "Config.Invalid"
	CodeUnexpected           Code = "Unexpected"
)

// String makes Code satisfy the fmt.Stringer interface.
func (c Code) String() string {
	return string(c)
}

// Coder is implemented by errors that carry a Code.
type Coder interface {
	Code() Code
}
