package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/casegen/internal/fixture"
	"github.com/roach88/casegen/internal/scenario"
	"github.com/roach88/casegen/internal/suite"
)

// ValidationIssue is one problem found in a scenario file.
type ValidationIssue struct {
	File    string `json:"file,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult is the output of the validate command.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Files  int               `json:"files"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &scanOptions{}

	cmd := &cobra.Command{
		Use:   "validate <dir>",
		Short: "Validate scenario files",
		Long: `Load every scenario file under a directory and instantiate it.

Reports parse errors, malformed error and mocks properties, and scenario
files that share an identifier.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, opts, args[0], cmd)
		},
	}
	opts.bind(cmd, rootOpts)

	return cmd
}

func runValidate(rootOpts *RootOptions, opts *scanOptions, dir string, cmd *cobra.Command) error {
	formatter := rootOpts.formatter(cmd)

	paths, err := scenario.Find(dir, opts.filter)
	if err != nil {
		return loadFailure(formatter, err)
	}
	if len(paths) == 0 {
		return formatter.Error(scenario.ErrCodeNoFiles, fmt.Sprintf("no scenario files found in %s", dir), nil)
	}

	files, loadErrs := scenario.LoadDir(dir, opts.filter, scenario.LoadModeCollectAll)
	formatter.VerboseLog("Loaded %d of %d scenario file(s) in %s", len(files), len(paths), dir)

	var issues []ValidationIssue
	for _, err := range loadErrs {
		issues = append(issues, issueFor(dir, err))
	}
	issues = append(issues, checkScenarios(rootOpts, opts.packageFor(dir), dir, files, formatter)...)

	result := ValidationResult{Valid: len(issues) == 0, Files: len(paths), Errors: issues}
	if result.Valid {
		return formatter.Success(result, func(w io.Writer) {
			fmt.Fprintf(w, "✓ %d scenario file(s) valid\n", result.Files)
		})
	}

	return formatter.Failure(ExitFailure, issues[0].Code, fmt.Sprintf("validation failed with %d error(s)", len(issues)), result,
		func(w io.Writer) {
			fmt.Fprintln(w, "✗ Validation failed")
			fmt.Fprintln(w)
			for _, issue := range issues {
				if issue.Line > 0 {
					fmt.Fprintf(w, "%s:%d\n", issue.File, issue.Line)
				} else {
					fmt.Fprintln(w, issue.File)
				}
				fmt.Fprintf(w, "  %s: %s\n\n", issue.Code, issue.Message)
			}
		})
}

// checkScenarios registers each file against a stand-in kind and
// instantiates it, surfacing authoring errors that only appear at
// construction time.
func checkScenarios(rootOpts *RootOptions, pkg, dir string, files []*scenario.File, formatter *OutputFormatter) []ValidationIssue {
	var issues []ValidationIssue

	registry := fixture.NewRegistry()
	ns := fixture.Namespace{}
	ctx := suite.NewContext(nil, &suite.Suite{
		Name:     "validate",
		Package:  pkg,
		Registry: registry,
		Config:   rootOpts.Config,
		Logger:   rootOpts.logger(),
	})

	seen := make(map[string]string)
	for _, f := range files {
		info := describeFile(f, pkg, dir)
		if first, ok := seen[info.UUID]; ok {
			issues = append(issues, ValidationIssue{
				File:    info.File,
				Code:    scenario.ErrCodeDuplicate,
				Message: fmt.Sprintf("identifier %s already used by %s", info.UUID, first),
			})
			continue
		}
		seen[info.UUID] = info.File

		formatter.VerboseLog("Checking %s (%s)", info.File, info.Kind)
		class := registry.RegisterWithUUID(ns, info.Module, f.UUID, []*fixture.Kind{{Name: f.Kind}}, f.Properties)
		if _, err := class.New(ctx); err != nil {
			issues = append(issues, ValidationIssue{
				File:    info.File,
				Code:    scenario.ErrCodeRegistration,
				Message: err.Error(),
			})
		}
	}
	return issues
}

func issueFor(dir string, err error) ValidationIssue {
	var loadErr *scenario.LoadError
	if !errors.As(err, &loadErr) {
		return ValidationIssue{Code: scenario.ErrCodeGeneric, Message: err.Error()}
	}

	file := loadErr.Path
	if rel, relErr := filepath.Rel(dir, loadErr.Path); relErr == nil {
		file = rel
	}
	issue := ValidationIssue{File: filepath.ToSlash(file), Code: loadErr.Code, Message: loadErr.Message}
	if loadErr.Pos.IsValid() {
		issue.Line = loadErr.Pos.Line()
	}
	return issue
}
