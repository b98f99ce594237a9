package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(buf *bytes.Buffer) []string {
	return strings.Split(strings.TrimSpace(buf.String()), "\n")
}

func TestFunc(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		fn       func() error
		expected []string
	}{
		{
			name:     "success",
			fn:       func() error { return nil },
			expected: []string{"level=INFO msg=calling", "level=INFO msg=finished"},
		},
		{
			name:     "success with prefix",
			prefix:   "prefix ",
			fn:       func() error { return nil },
			expected: []string{`level=INFO msg="prefix calling"`, `level=INFO msg="prefix finished"`},
		},
		{
			name:     "failure",
			fn:       func() error { return errors.New("boom") },
			expected: []string{"level=INFO msg=calling", "level=ERROR msg=failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(&Config{Level: "debug", Format: FormatText, Output: &buf})

			_ = Func(logger, tt.prefix, "target", tt.fn)()

			got := lines(&buf)
			require.Len(t, got, len(tt.expected))
			for i, want := range tt.expected {
				assert.Contains(t, got[i], want)
				assert.Contains(t, got[i], "function=target")
			}
		})
	}
}

func TestFunc_ReturnsError(t *testing.T) {
	boom := errors.New("boom")
	err := Func(Discard(), "", "target", func() error { return boom })()
	assert.Same(t, boom, err)
}

func TestCall_ReturnsValue(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Format: FormatText, Output: &buf})

	value, err := Call(logger, "", "answer", func() (int, error) { return 42, nil })()
	require.NoError(t, err)
	assert.Equal(t, 42, value)
	assert.Contains(t, buf.String(), "msg=finished")
	assert.NotContains(t, buf.String(), "error=")
}
