package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"

	"github.com/roach88/casegen/internal/depsort"
	"github.com/roach88/casegen/internal/scenario"
)

// ErrCodeUnresolvable is reported when a graph has no topological order.
const ErrCodeUnresolvable = "E301"

// OrderResult is the output of the order command.
type OrderResult struct {
	Order     []string            `json:"order"`
	Remaining []string            `json:"remaining,omitempty"`
	Missing   map[string][]string `json:"missing,omitempty"`
	Cycles    [][]string          `json:"cycles,omitempty"`
}

// NewOrderCommand creates the order command.
func NewOrderCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order <graph-file>",
		Short: "Print the dependency order of a graph",
		Long: `Read a dependency graph mapping each node to the nodes it requires and
print an order in which every node follows its prerequisites.

The graph is a YAML, JSON or HuJSON map, for example:

  c: [b]
  b: [a]
  a: []

Unresolvable graphs report the nodes left over, prerequisites that are not
nodes of the graph, and every dependency cycle.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrder(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runOrder(rootOpts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := rootOpts.formatter(cmd)

	graph, err := readGraph(path)
	if err != nil {
		return loadFailure(formatter, err)
	}
	formatter.VerboseLog("Read %d node(s) from %s", len(graph), path)

	order, err := depsort.TopologicalSort(graph)
	if err == nil {
		return formatter.Success(OrderResult{Order: order}, func(w io.Writer) {
			for _, node := range order {
				fmt.Fprintln(w, node)
			}
		})
	}

	var unresolvable *depsort.UnresolvableError
	if !errors.As(err, &unresolvable) {
		return formatter.Error(scenario.ErrCodeGeneric, err.Error(), nil)
	}

	result := OrderResult{
		Order:     unresolvable.Resolved,
		Remaining: unresolvable.Remaining,
		Missing:   unresolvable.Missing,
		Cycles:    unresolvable.Cycles,
	}
	if result.Order == nil {
		result.Order = []string{}
	}

	return formatter.Failure(ExitFailure, ErrCodeUnresolvable, depsort.ErrUnresolvable.Error(), result, func(w io.Writer) {
		fmt.Fprintln(w, "✗ Unresolvable dependencies")
		fmt.Fprintln(w)
		fmt.Fprintf(w, "resolved:   %s\n", strings.Join(result.Order, ", "))
		fmt.Fprintf(w, "unresolved: %s\n", strings.Join(result.Remaining, ", "))
		for _, node := range result.Remaining {
			if missing, ok := result.Missing[node]; ok {
				fmt.Fprintf(w, "missing:    %s requires %s\n", node, strings.Join(missing, ", "))
			}
		}
		for _, cycle := range result.Cycles {
			fmt.Fprintf(w, "cycle:      %s\n", strings.Join(cycle, " → "))
		}
	})
}

// readGraph decodes a dependency graph file.
func readGraph(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &scenario.LoadError{Code: scenario.ErrCodeNotFound, Path: path, Message: "graph file not found", Err: err}
	}
	if err != nil {
		return nil, &scenario.LoadError{Code: scenario.ErrCodeLoadFailed, Path: path, Message: err.Error(), Err: err}
	}

	graph := map[string][]string{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &graph)
	case ".json", ".hujson":
		var standardized []byte
		standardized, err = hujson.Standardize(data)
		if err == nil {
			err = json.Unmarshal(standardized, &graph)
		}
	default:
		return nil, &scenario.LoadError{Code: scenario.ErrCodeUnsupported, Path: path, Message: fmt.Sprintf("unsupported extension %q", filepath.Ext(path))}
	}
	if err != nil {
		return nil, &scenario.LoadError{Code: scenario.ErrCodeParse, Path: path, Message: fmt.Sprintf("parsing graph: %v", err), Err: err}
	}
	return graph, nil
}
