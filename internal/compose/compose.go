// Package compose drives docker-compose for tests that need running
// services.
//
// Every command goes through the package-level call variable, which runs it
// with "sh -c" and reports the exit status. Suites register &call as the
// patch point for the "call" symbol to observe the commands issued.
package compose

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"testing"

	"github.com/roach88/casegen/internal/log"
)

// Executable is the docker-compose binary invoked by every command.
var Executable = "docker-compose"

// call runs command through the shell and returns its exit status. An
// error means the command could not be run at all.
var call = func(command string) (int, error) {
	err := exec.Command("sh", "-c", command).Run()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, fmt.Errorf("run %q: %w", command, err)
	}
	return 0, nil
}

// Error reports a docker-compose command that exited with a non-zero
// status.
type Error struct {
	Command string
	Status  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Command, e.Status)
}

func command(args ...string) string {
	return strings.Join(append([]string{Executable}, args...), " ")
}

func run(cmd string) error {
	log.OrDefault(nil).Debug("docker-compose", "command", cmd)

	status, err := call(cmd)
	if err != nil {
		return err
	}
	if status != 0 {
		return &Error{Command: cmd, Status: status}
	}
	return nil
}

// Up starts services in the background. No services starts every service
// in the compose file.
func Up(services ...string) error {
	return run(command(append([]string{"up", "-d"}, services...)...))
}

// Stop stops services. No services stops every service.
func Stop(services ...string) error {
	return run(command(append([]string{"stop"}, services...)...))
}

// Found reports whether service has a container.
func Found(service string) (bool, error) {
	cmd := command("ps", "-q", service) + " | grep -q ."
	status, err := call(cmd)
	if err != nil {
		return false, err
	}
	return status == 0, nil
}

// Require starts the services that are not already running and stops them
// again when tb finishes. Services that were already running are left
// alone.
func Require(tb testing.TB, services ...string) {
	tb.Helper()

	var started []string
	for _, service := range services {
		found, err := Found(service)
		if err != nil {
			tb.Fatalf("compose: %v", err)
		}
		if !found {
			started = append(started, service)
		}
	}
	if len(started) == 0 {
		return
	}

	if err := Up(started...); err != nil {
		tb.Fatalf("compose: %v", err)
	}
	tb.Cleanup(func() {
		if err := Stop(started...); err != nil {
			tb.Errorf("compose: %v", err)
		}
	})
}
