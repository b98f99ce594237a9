package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/casegen/internal/report"
	"github.com/roach88/casegen/internal/scenario"
)

type reportOptions struct {
	run   string
	limit int
}

// RunsResult is the output of the report command without --run.
type RunsResult struct {
	Runs []RunInfo `json:"runs"`
}

// RunInfo summarises one recorded run.
type RunInfo struct {
	ID        string `json:"id"`
	Suite     string `json:"suite"`
	Module    string `json:"module"`
	StartedAt string `json:"started_at"`
	Passed    int    `json:"passed"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
}

// OutcomesResult is the output of the report command with --run.
type OutcomesResult struct {
	Run      string        `json:"run"`
	Outcomes []OutcomeInfo `json:"outcomes"`
}

// OutcomeInfo is one recorded test method outcome.
type OutcomeInfo struct {
	Method      string `json:"method"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
	DurationMS  int64  `json:"duration_ms"`
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &reportOptions{}

	cmd := &cobra.Command{
		Use:   "report [db]",
		Short: "Show recorded suite outcomes",
		Long: `Show the runs recorded in a report database, or the outcome of every test
method of one run with --run.

Suites record outcomes when CASEGEN_REPORT_DB names a database; the same
variable is the default for db.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rootOpts.Config.ReportDB
			if len(args) == 1 {
				path = args[0]
			}
			return runReport(cmd.Context(), rootOpts, opts, path, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.run, "run", "", "show the outcomes of one run")
	cmd.Flags().IntVar(&opts.limit, "limit", 10, "maximum number of runs to list (0 for all)")

	return cmd
}

func runReport(ctx context.Context, rootOpts *RootOptions, opts *reportOptions, path string, cmd *cobra.Command) error {
	formatter := rootOpts.formatter(cmd)
	if ctx == nil {
		ctx = context.Background()
	}

	if path == "" {
		return formatter.Error(scenario.ErrCodeNotFound, "no report database given", nil)
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return formatter.Error(scenario.ErrCodeNotFound, fmt.Sprintf("report database not found: %s", path), nil)
	}

	store, err := report.Open(path)
	if err != nil {
		return formatter.Error(scenario.ErrCodeLoadFailed, err.Error(), nil)
	}
	defer store.Close()

	if opts.run != "" {
		return reportOutcomes(ctx, formatter, store, opts.run)
	}
	return reportRuns(ctx, formatter, store, opts.limit)
}

func reportRuns(ctx context.Context, formatter *OutputFormatter, store *report.Store, limit int) error {
	runs, err := store.Runs(ctx, limit)
	if err != nil {
		return formatter.Error(scenario.ErrCodeGeneric, err.Error(), nil)
	}

	result := RunsResult{Runs: []RunInfo{}}
	for _, r := range runs {
		result.Runs = append(result.Runs, RunInfo{
			ID:        r.ID,
			Suite:     r.Suite,
			Module:    r.Module,
			StartedAt: r.StartedAt.UTC().Format(time.RFC3339),
			Passed:    r.Passed,
			Failed:    r.Failed,
			Skipped:   r.Skipped,
		})
	}

	return formatter.Success(result, func(w io.Writer) {
		if len(result.Runs) == 0 {
			fmt.Fprintln(w, "No runs recorded")
			return
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "RUN\tSUITE\tSTARTED\tPASS\tFAIL\tSKIP")
		for _, r := range result.Runs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\n", r.ID, r.Suite, r.StartedAt, r.Passed, r.Failed, r.Skipped)
		}
		tw.Flush()
	})
}

func reportOutcomes(ctx context.Context, formatter *OutputFormatter, store *report.Store, runID string) error {
	outcomes, err := store.Outcomes(ctx, runID)
	if err != nil {
		return formatter.Error(scenario.ErrCodeGeneric, err.Error(), nil)
	}
	if len(outcomes) == 0 {
		return formatter.Error(scenario.ErrCodeNotFound, fmt.Sprintf("no outcomes recorded for run %s", runID), nil)
	}

	result := OutcomesResult{Run: runID, Outcomes: []OutcomeInfo{}}
	for _, o := range outcomes {
		result.Outcomes = append(result.Outcomes, OutcomeInfo{
			Method:      o.Method,
			Category:    o.Category,
			Description: o.Description,
			Status:      string(o.Status),
			Error:       o.Error,
			DurationMS:  o.Duration.Milliseconds(),
		})
	}

	return formatter.Success(result, func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "STATUS\tMETHOD\tCATEGORY\tDURATION")
		for _, o := range result.Outcomes {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%dms\n", o.Status, o.Method, o.Category, o.DurationMS)
		}
		tw.Flush()
		for _, o := range result.Outcomes {
			if o.Error != "" {
				fmt.Fprintf(w, "\n%s: %s\n", o.Method, o.Error)
			}
		}
	})
}
