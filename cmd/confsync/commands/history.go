package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/openfroyo/confsync/pkg/model"
	"github.com/openfroyo/confsync/pkg/stores"
)

func newHistoryCommand(opts *globalOptions) *cobra.Command {
	var (
		limit  int
		runID  string
		remove string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded imports",
		Long: `List the imports that reached confirmation, most recent first, or show the
operations applied by one run.`,
		Example: `  # List the last 20 runs
  confsync history

  # Show the operations of one run
  confsync history --run 6f1c...

  # Delete a run from the history
  confsync history --delete 6f1c...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, "", func(ctx context.Context, s *session) error {
				store, err := s.Store(ctx)
				if err != nil {
					return err
				}

				switch {
				case remove != "":
					if err := store.DeleteRun(ctx, remove); err != nil {
						return err
					}
					s.Renderer(false).Line(fmt.Sprintf("Run %s deleted.", remove))
					return nil
				case runID != "":
					return showRun(ctx, s.out, store, runID)
				default:
					return listRuns(ctx, s.out, store, limit)
				}
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs to list")
	cmd.Flags().StringVar(&runID, "run", "", "show the operations of this run")
	cmd.Flags().StringVar(&remove, "delete", "", "delete this run from the history")
	cmd.MarkFlagsMutuallyExclusive("run", "delete")

	return cmd
}

func listRuns(ctx context.Context, out io.Writer, store stores.Store, limit int) error {
	runs, err := store.ListRuns(ctx, limit, 0)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		_, err := fmt.Fprintln(out, "No runs recorded.")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tSTATUS\tCREATED\tUPDATED\tSKIPPED\tDOCUMENT")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			run.ID, run.StartedAt.Format(time.DateTime), run.Status,
			run.Created, run.Updated, run.Skipped, run.DocumentPath)
	}
	return tw.Flush()
}

func showRun(ctx context.Context, out io.Writer, store stores.Store, id string) error {
	run, err := store.GetRun(ctx, id)
	if err != nil {
		return err
	}
	ops, err := store.ListRunOperations(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Run %s (%s)\n", run.ID, run.Status)
	fmt.Fprintf(out, "  Document: %s\n", run.DocumentPath)
	fmt.Fprintf(out, "  Plan:     %s\n", run.PlanID)
	fmt.Fprintf(out, "  Started:  %s\n", run.StartedAt.Format(time.DateTime))
	if run.CompletedAt != nil {
		fmt.Fprintf(out, "  Finished: %s\n", run.CompletedAt.Format(time.DateTime))
	}
	if run.Error != nil {
		fmt.Fprintf(out, "  Error:    %s\n", *run.Error)
	}
	fmt.Fprintf(out, "  Created %d, updated %d, skipped %d.\n", run.Created, run.Updated, run.Skipped)

	if len(ops) == 0 {
		return nil
	}

	fmt.Fprintln(out, "Operations:")
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, op := range ops {
		ref := model.Reference{Kind: model.Kind(op.Kind), Tenant: op.Tenant, Key: op.Key}
		line := fmt.Sprintf("  - %d\t%s\t%s\t%s", op.Position, op.Operation.Label(), ref, op.Status)
		if op.Error != nil {
			line += "\t" + *op.Error
		}
		fmt.Fprintln(tw, line)
	}
	return tw.Flush()
}
