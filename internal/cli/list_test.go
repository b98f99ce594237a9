package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/casegen/internal/scenario"
)

func TestList_Text(t *testing.T) {
	out, err := execute(t, "list", "testdata/scenarios")
	require.NoError(t, err)
	golden(t).Assert(t, "list", []byte(out))
}

func TestList_JSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "list", "--package", "casegen.examples", "testdata/scenarios")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   ListResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "testdata/scenarios", resp.Data.Dir)
	require.Len(t, resp.Data.Scenarios, 3)

	evert := resp.Data.Scenarios[0]
	assert.Equal(t, ScenarioInfo{
		File:     "evert_94d7c58f6ee44683936c21cb84d1e458.yaml",
		Class:    "f_94d7c58f6ee44683936c21cb84d1e458",
		UUID:     "94d7c58f-6ee4-4683-936c-21cb84d1e458",
		Kind:     "evert",
		Module:   "casegen.examples.evert_94d7c58f6ee44683936c21cb84d1e458",
		Category: "examples",
	}, evert)

	assert.False(t, resp.Data.Scenarios[1].Error)
	assert.True(t, resp.Data.Scenarios[2].Error)
}

func TestList_Filter(t *testing.T) {
	out, err := execute(t, "--format", "json", "list", "--filter", "*.yaml", "testdata/scenarios")
	require.NoError(t, err)

	var resp struct {
		Data ListResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Scenarios, 2)
	assert.Equal(t, "evert", resp.Data.Scenarios[0].Kind)
	assert.Equal(t, "powerset", resp.Data.Scenarios[1].Kind)
}

func TestList_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
	}{
		{"missing dir", []string{"list", "testdata/missing"}, scenario.ErrCodeNotFound},
		{"empty match", []string{"list", "--filter", "*.cue", "testdata/scenarios"}, scenario.ErrCodeNoFiles},
		{"bad filter", []string{"list", "--filter", "[", "testdata/scenarios"}, scenario.ErrCodeBadFilter},
		{"parse error", []string{"list", "testdata/invalid"}, scenario.ErrCodeParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"--format", "json"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			var resp Response
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}
