package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/openfroyo/confsync/pkg/console"
	"github.com/openfroyo/confsync/pkg/engine"
	"github.com/openfroyo/confsync/pkg/stores"
	"github.com/openfroyo/confsync/pkg/telemetry"
)

func newImportCommand(opts *globalOptions) *cobra.Command {
	var (
		autoConfirm bool
		detailed    bool
		policyDirs  []string
	)

	cmd := &cobra.Command{
		Use:   "import <document>",
		Short: "Reconcile the live configuration with a document",
		Long: `Validate a document, print the plan, ask for confirmation and apply it.

Operations are applied one at a time in plan order. The first failure stops
the import; operations already applied stay applied. Every confirmed import
is recorded and can be inspected with 'history'.`,
		Example: `  # Import with confirmation
  confsync import network.yaml

  # Import without asking
  confsync import --auto-confirm network.yaml

  # Import with extra policies
  confsync import --policy ./policies network.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			return opts.withSession(cmd, path, func(ctx context.Context, s *session) error {
				return s.importDocument(ctx, path, importOptions{
					autoConfirm: autoConfirm,
					detailed:    detailed,
					policyDirs:  policyDirs,
				})
			})
		},
	}

	cmd.Flags().BoolVarP(&autoConfirm, "auto-confirm", "y", false, "apply without asking for confirmation")
	cmd.Flags().BoolVarP(&detailed, "detailed", "d", false, "print the desired state of each operation")
	cmd.Flags().StringSliceVarP(&policyDirs, "policy", "p", nil, "additional policy directory or file")

	return cmd
}

type importOptions struct {
	autoConfirm bool
	detailed    bool
	policyDirs  []string
}

// importDocument plans, confirms and applies the document at path, recording
// the run in the store.
func (s *session) importDocument(ctx context.Context, path string, opts importOptions) error {
	store, err := s.Store(ctx)
	if err != nil {
		return err
	}

	recorder := stores.NewRunRecorder(store, path, s.logger)
	plan, err := s.buildPlan(ctx, path, opts.policyDirs, engine.WithApplyObserver(recorder))
	if err != nil {
		return err
	}

	r := s.Renderer(opts.detailed)
	if err := r.Plan(plan); err != nil {
		return err
	}

	run, err := recorder.Start(ctx, plan)
	if err != nil {
		return err
	}

	op := telemetry.StartOperation(ctx, "import.apply",
		telemetry.AttrRunID.String(run.ID),
		telemetry.AttrPlanID.String(plan.ID),
	)

	tally, err := s.confirmAndApply(op.Ctx, plan, opts.autoConfirm)
	if finishErr := recorder.Finish(context.WithoutCancel(op.Ctx), tally, err); finishErr != nil {
		op.Logger.WithError(finishErr).Warn("Failed to record run outcome.")
	}
	op.Span.SetAttributes(telemetry.AttrRunStatus.String(string(engine.RunStatusFor(err))))
	op.End(err)

	switch {
	case errors.Is(err, engine.ErrCancelled):
		r.Line("Import cancelled.")
		return &reportedError{err: err}
	case err != nil:
		return s.Report(err)
	}

	r.Completed(tally)
	return nil
}

func (s *session) confirmAndApply(ctx context.Context, plan *engine.Plan, autoConfirm bool) (engine.Tally, error) {
	var err error
	if autoConfirm {
		err = plan.AutoConfirm()
	} else {
		err = plan.Confirm(console.NewPrompter(s.in, s.out))
	}
	if err != nil {
		return nil, err
	}
	return plan.Apply(ctx)
}
