package scenario

import (
	"fmt"

	"cuelang.org/go/cue/token"
)

// Error codes shared by the loader and the CLI.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No scenario files found
	ErrCodeLoadFailed  = "E004" // File could not be read
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error

	ErrCodeParse        = "E201" // Malformed YAML/JSON
	ErrCodeUnsupported  = "E202" // Unsupported file extension
	ErrCodeShape        = "E203" // Document is not a string-keyed map
	ErrCodeUnknownKind  = "E204" // No fixture kind matches
	ErrCodeBadFilter    = "E205" // Invalid discovery glob
	ErrCodeRegistration = "E206" // Class could not be instantiated
	ErrCodeDuplicate    = "E207" // Two files share an identifier
)

// LoadError is a scenario loading failure with a stable code.
type LoadError struct {
	Code    string
	Path    string
	Message string
	Pos     token.Pos // CUE position if available
	Err     error
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error { return e.Err }

func loadError(code, path string, err error, format string, args ...any) *LoadError {
	return &LoadError{Code: code, Path: path, Message: fmt.Sprintf(format, args...), Err: err}
}
