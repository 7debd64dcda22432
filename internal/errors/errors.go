package errors

import "fmt"

type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches wrapped AppErrors against their sentinel by code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func New(code, message string, cause ...error) *AppError {
	var c error
	if len(cause) > 0 {
		c = cause[0]
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   c,
	}
}

var (
	ErrConfigInvalid = &AppError{Code: "CONFIG_001", Message: "invalid configuration"}

	ErrEngineNotFound   = &AppError{Code: "ENGINE_001", Message: "engine not found"}
	ErrInvocationFailed = &AppError{Code: "ENGINE_003", Message: "engine invocation failed"}
	ErrNoEngines        = &AppError{Code: "ENGINE_005", Message: "no OCR engines available"}

	ErrNoResults = &AppError{Code: "FUSE_001", Message: "no OCR results to fuse"}

	ErrBadInput = &AppError{Code: "GEN_001", Message: "bad request"}
)

func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}
