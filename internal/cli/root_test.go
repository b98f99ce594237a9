package cli

import (
	"bytes"
	"io"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/casegen/internal/config"
)

// execute runs the root command with args and returns what it wrote to
// stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvFilter, "")
	t.Setenv(config.EnvReportDB, "")

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func golden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "casegen", cmd.Use)
	assert.Contains(t, cmd.Long, "scenario files")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"list", "validate", "order", "new", "report"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	levelFlag := cmd.PersistentFlags().Lookup("log-level")
	require.NotNil(t, levelFlag)
	assert.Equal(t, "", levelFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml", "list", "testdata/scenarios")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := execute(t, "--log-level", "loud", "list", "testdata/scenarios")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid log level "loud"`)
}

func TestFilterFromEnvironment(t *testing.T) {
	t.Setenv(config.EnvFilter, "merge_*")

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"list", "testdata/scenarios"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "merge_d438b6f7a4ed4b4a9c2e1f3a5b6c7d8e.json")
	assert.NotContains(t, out.String(), "evert_")
}
