package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/casegen/internal/fixture"
	"github.com/roach88/casegen/internal/scenario"
)

// ScenarioInfo describes one discovered scenario file.
type ScenarioInfo struct {
	File     string `json:"file"`
	Class    string `json:"class"`
	UUID     string `json:"uuid"`
	Kind     string `json:"kind"`
	Module   string `json:"module"`
	Category string `json:"category"`
	Error    bool   `json:"error,omitempty"`
}

// ListResult is the output of the list command.
type ListResult struct {
	Dir       string         `json:"dir"`
	Scenarios []ScenarioInfo `json:"scenarios"`
}

type scanOptions struct {
	filter string
	pkg    string
}

func (o *scanOptions) bind(cmd *cobra.Command, rootOpts *RootOptions) {
	cmd.Flags().StringVar(&o.filter, "filter", rootOpts.Config.ScenarioFilter, "doublestar glob selecting scenario files")
	cmd.Flags().StringVar(&o.pkg, "package", "", "module root for class names (default: directory name)")
}

func (o *scanOptions) packageFor(dir string) string {
	if o.pkg != "" {
		return o.pkg
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Base(dir)
	}
	return filepath.Base(abs)
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &scanOptions{}

	cmd := &cobra.Command{
		Use:   "list <dir>",
		Short: "List the scenario files under a directory",
		Long: `List every scenario file under a directory with the class name, kind and
category it registers as.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, opts, args[0], cmd)
		},
	}
	opts.bind(cmd, rootOpts)

	return cmd
}

func runList(rootOpts *RootOptions, opts *scanOptions, dir string, cmd *cobra.Command) error {
	formatter := rootOpts.formatter(cmd)

	files, errs := scenario.LoadDir(dir, opts.filter, scenario.LoadModeFailFast)
	if len(errs) > 0 {
		return loadFailure(formatter, errs[0])
	}
	formatter.VerboseLog("Found %d scenario file(s) in %s", len(files), dir)

	pkg := opts.packageFor(dir)
	result := ListResult{Dir: filepath.ToSlash(dir), Scenarios: []ScenarioInfo{}}
	for _, f := range files {
		result.Scenarios = append(result.Scenarios, describeFile(f, pkg, dir))
	}

	return formatter.Success(result, func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "CLASS\tKIND\tCATEGORY\tFILE")
		for _, s := range result.Scenarios {
			kind := s.Kind
			if s.Error {
				kind += " (error)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Class, kind, s.Category, s.File)
		}
		tw.Flush()
	})
}

func describeFile(f *scenario.File, pkg, dir string) ScenarioInfo {
	rel, err := filepath.Rel(dir, f.Path)
	if err != nil {
		rel = f.Path
	}
	module := pkg + "." + scenario.Stem(f.Path)
	if names := scenario.ModuleNames([]string{f.Path}, pkg, dir); len(names) > 0 {
		module = names[0]
	}
	_, isError := f.Properties[fixture.PropError]

	return ScenarioInfo{
		File:     filepath.ToSlash(rel),
		Class:    "f_" + fixture.Hex(f.UUID),
		UUID:     f.UUID.String(),
		Kind:     f.Kind,
		Module:   module,
		Category: fixture.Category(module),
		Error:    isError,
	}
}

// loadFailure reports an error that stopped scenario discovery.
func loadFailure(formatter *OutputFormatter, err error) error {
	var loadErr *scenario.LoadError
	if errors.As(err, &loadErr) {
		return formatter.Error(loadErr.Code, loadErr.Error(), nil)
	}
	return formatter.Error(scenario.ErrCodeGeneric, err.Error(), nil)
}
