package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Validation failure or unresolvable graph
	ExitCommandError = 2 // Command error (invalid paths, unreadable files, etc.)
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps err with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Response is the JSON envelope every command writes in json format.
type Response struct {
	Status string         `json:"status"` // "ok" or "error"
	Data   any            `json:"data,omitempty"`
	Error  *ResponseError `json:"error,omitempty"`
}

// ResponseError is the error part of a Response.
type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// OutputFormatter writes command results as text or JSON.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // verbose output; defaults to Writer
	Verbose   bool
}

func (f *OutputFormatter) json() bool { return f.Format == "json" }

func (f *OutputFormatter) encode(resp Response) error {
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(resp)
}

// Success writes data. In text format render draws it; a nil render prints
// data with fmt.Fprintln.
func (f *OutputFormatter) Success(data any, render func(w io.Writer)) error {
	if f.json() {
		return f.encode(Response{Status: "ok", Data: data})
	}
	if render == nil {
		_, err := fmt.Fprintln(f.Writer, data)
		return err
	}
	render(f.Writer)
	return nil
}

// Failure writes a result that carries both data and an error, such as a
// validation report, and returns an ExitError with exitCode.
func (f *OutputFormatter) Failure(exitCode int, code, message string, data any, render func(w io.Writer)) error {
	if f.json() {
		if err := f.encode(Response{
			Status: "error",
			Data:   data,
			Error:  &ResponseError{Code: code, Message: message},
		}); err != nil {
			return err
		}
	} else if render != nil {
		render(f.Writer)
	} else {
		fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	}
	return NewExitError(exitCode, fmt.Sprintf("%s: %s", code, message))
}

// Error writes a command error and returns an ExitError with
// ExitCommandError.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.json() {
		if err := f.encode(Response{
			Status: "error",
			Error:  &ResponseError{Code: code, Message: message, Details: details},
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
		if f.Verbose && details != nil {
			fmt.Fprintf(f.Writer, "Details: %v\n", details)
		}
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// VerboseLog writes a line to ErrWriter when verbose output is enabled.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
