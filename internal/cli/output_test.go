package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	err := formatter.Success(map[string]string{"result": "success"}, nil)
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"result": "success"}, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONIndented(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success([]int{1}, nil))
	assert.Equal(t, "{\n  \"status\": \"ok\",\n  \"data\": [\n    1\n  ]\n}\n", buf.String())
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	err := formatter.Error("E005", "not found", map[string]string{"path": "x.yaml"})
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E005", resp.Error.Code)
	assert.Equal(t, "not found", resp.Error.Message)
	assert.Equal(t, map[string]any{"path": "x.yaml"}, resp.Error.Details)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.Success("ignored", func(w io.Writer) {
		fmt.Fprintln(w, "rendered")
	})
	require.NoError(t, err)
	assert.Equal(t, "rendered\n", buf.String())
}

func TestOutputFormatter_TextSuccessWithoutRender(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success("plain", nil))
	assert.Equal(t, "plain\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		want    string
	}{
		{"quiet", false, "Error [E203]: bad shape\n"},
		{"verbose", true, "Error [E203]: bad shape\nDetails: line 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}

			err := formatter.Error("E203", "bad shape", "line 3")
			assert.EqualError(t, err, "E203: bad shape")
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestOutputFormatter_Failure(t *testing.T) {
	t.Run("json carries data and error", func(t *testing.T) {
		buf := &bytes.Buffer{}
		formatter := &OutputFormatter{Format: "json", Writer: buf}

		err := formatter.Failure(ExitFailure, "E301", "unresolvable", OrderResult{Order: []string{"a"}}, nil)
		assert.Equal(t, ExitFailure, GetExitCode(err))

		var resp struct {
			Status string        `json:"status"`
			Data   OrderResult   `json:"data"`
			Error  ResponseError `json:"error"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		assert.Equal(t, "error", resp.Status)
		assert.Equal(t, []string{"a"}, resp.Data.Order)
		assert.Equal(t, "E301", resp.Error.Code)
	})

	t.Run("text renders", func(t *testing.T) {
		buf := &bytes.Buffer{}
		formatter := &OutputFormatter{Format: "text", Writer: buf}

		err := formatter.Failure(ExitFailure, "E301", "unresolvable", nil, func(w io.Writer) {
			fmt.Fprintln(w, "✗ failed")
		})
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Equal(t, "✗ failed\n", buf.String())
	})

	t.Run("text without render", func(t *testing.T) {
		buf := &bytes.Buffer{}
		formatter := &OutputFormatter{Format: "text", Writer: buf}

		_ = formatter.Failure(ExitFailure, "E301", "unresolvable", nil, nil)
		assert.Equal(t, "Error [E301]: unresolvable\n", buf.String())
	})
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	quiet := &OutputFormatter{Format: "text", Writer: out, ErrWriter: errOut}
	quiet.VerboseLog("hidden %d", 1)
	assert.Empty(t, errOut.String())

	loud := &OutputFormatter{Format: "text", Writer: out, ErrWriter: errOut, Verbose: true}
	loud.VerboseLog("shown %d", 2)
	assert.Equal(t, "shown 2\n", errOut.String())
	assert.Empty(t, out.String())

	fallback := &OutputFormatter{Format: "text", Writer: out, Verbose: true}
	fallback.VerboseLog("to writer")
	assert.Equal(t, "to writer\n", out.String())
}

func TestExitError(t *testing.T) {
	cause := errors.New("disk full")

	assert.EqualError(t, NewExitError(ExitFailure, "failed"), "failed")
	wrapped := WrapExitError(ExitCommandError, "write", cause)
	assert.EqualError(t, wrapped, "write: disk full")
	assert.ErrorIs(t, wrapped, cause)

	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(cause))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("outer: %w", wrapped)))
}
