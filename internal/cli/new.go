package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/casegen/internal/fixture"
	"github.com/roach88/casegen/internal/scenario"
)

// newScenarioID generates identifiers for new scenario files.
var newScenarioID = uuid.New

// NewResult is the output of the new command.
type NewResult struct {
	Path string `json:"path"`
	UUID string `json:"uuid"`
	Kind string `json:"kind"`
}

type newOptions struct {
	description string
	errorClass  string
}

// skeleton is the document written for a new scenario.
type skeleton struct {
	Description string         `yaml:"description,omitempty"`
	Parameters  map[string]any `yaml:"parameters"`
	Expected    any            `yaml:"expected,omitempty"`
	Error       map[string]any `yaml:"error,omitempty"`
}

// NewNewCommand creates the new command.
func NewNewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &newOptions{}

	cmd := &cobra.Command{
		Use:   "new <dir> <kind>",
		Short: "Create a scenario file skeleton",
		Long: `Write <kind>_<32 hex>.yaml under dir with an empty parameter map.

The kind is written in snake case without a Fixture suffix, so
"BinaryPartitionFixture" produces binary_partition_<hex>.yaml.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNew(rootOpts, opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.description, "description", "d", "", "scenario description")
	cmd.Flags().StringVar(&opts.errorClass, "error", "", "expected error class, e.g. ValueError")

	return cmd
}

func runNew(rootOpts *RootOptions, opts *newOptions, dir, kind string, cmd *cobra.Command) error {
	formatter := rootOpts.formatter(cmd)

	prefix := snakeKind(kind)
	if prefix == "" {
		return formatter.Error(scenario.ErrCodeGeneric, fmt.Sprintf("invalid kind %q", kind), nil)
	}
	if opts.errorClass != "" {
		if _, ok := fixture.LookupErrorClass(opts.errorClass); !ok {
			return formatter.Error(scenario.ErrCodeGeneric,
				fmt.Sprintf("unknown error class %q: must be one of %v", opts.errorClass, fixture.ErrorClasses()), nil)
		}
	}

	id := newScenarioID()
	path := filepath.Join(dir, prefix+"_"+fixture.Hex(id)+".yaml")

	doc := skeleton{Description: opts.description, Parameters: map[string]any{}}
	if opts.errorClass != "" {
		doc.Error = map[string]any{"class": opts.errorClass, "args": []any{}}
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return formatter.Error(scenario.ErrCodeWriteFailed, err.Error(), nil)
	}

	if _, err := os.Stat(path); err == nil {
		return formatter.Error(scenario.ErrCodeWriteFailed, fmt.Sprintf("%s already exists", path), nil)
	} else if !errors.Is(err, os.ErrNotExist) {
		return formatter.Error(scenario.ErrCodeWriteFailed, err.Error(), nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return formatter.Error(scenario.ErrCodeWriteFailed, err.Error(), nil)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return formatter.Error(scenario.ErrCodeWriteFailed, err.Error(), nil)
	}
	rootOpts.logger().Debug("wrote scenario skeleton", "path", path)

	result := NewResult{Path: filepath.ToSlash(path), UUID: id.String(), Kind: prefix}
	return formatter.Success(result, func(w io.Writer) {
		fmt.Fprintln(w, result.Path)
	})
}

// snakeKind converts a kind name to a scenario filename prefix.
func snakeKind(kind string) string {
	kind = strings.TrimSuffix(strings.TrimSpace(kind), "Fixture")

	var b strings.Builder
	runes := []rune(kind)
	for i, r := range runes {
		switch {
		case r == '-' || r == ' ' || r == '_':
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
		case unicode.IsUpper(r):
			prevLower := i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]))
			nextLower := i > 0 && i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1])
			if b.Len() > 0 && (prevLower || nextLower) && !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "_")
}
