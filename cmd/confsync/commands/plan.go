package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openfroyo/confsync/pkg/config"
	"github.com/openfroyo/confsync/pkg/engine"
)

func newPlanCommand(opts *globalOptions) *cobra.Command {
	var (
		detailed   bool
		dot        bool
		policyDirs []string
	)

	cmd := &cobra.Command{
		Use:   "plan <document>",
		Short: "Show the operations an import would apply",
		Long: `Validate a document and print the ordered operations that would reconcile
the live configuration with it, without applying them.

Each line is one operation:
  + CREATE            the entity does not exist
  ~ UPDATE            the entity exists and will be overwritten
  = SKIP              the entity exists and is left unchanged
  ~ UPDATE_REFERENCE  a reference dropped to break a cycle is restored`,
		Example: `  # Print the plan
  confsync plan network.yaml

  # Include the desired state of each operation
  confsync plan --detailed network.yaml

  # Render the dependency graph
  confsync plan --dot network.yaml | dot -Tsvg > plan.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			return opts.withSession(cmd, path, func(ctx context.Context, s *session) error {
				plan, err := s.buildPlan(ctx, path, policyDirs)
				if err != nil {
					return err
				}

				if dot {
					_, err := fmt.Fprint(s.out, plan.Graph().ToDOT())
					return err
				}

				r := s.Renderer(detailed)
				if err := r.Plan(plan); err != nil {
					return err
				}
				r.Line(planSummary(plan))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&detailed, "detailed", "d", false, "print the desired state of each operation")
	cmd.Flags().BoolVar(&dot, "dot", false, "print the dependency graph in DOT format instead")
	cmd.Flags().StringSliceVarP(&policyDirs, "policy", "p", nil, "additional policy directory or file")

	return cmd
}

// buildPlan loads the document at path and plans it against the store,
// gated by the policies. Planning failures are reported.
func (s *session) buildPlan(ctx context.Context, path string, policyDirs []string, opts ...engine.PlannerOption) (*engine.Plan, error) {
	doc, err := config.LoadDocument(path)
	if err != nil {
		return nil, s.Report(err)
	}

	store, err := s.Store(ctx)
	if err != nil {
		return nil, err
	}

	policies, err := s.Policies(ctx, store, policyDirs)
	if err != nil {
		return nil, s.Report(err)
	}

	opts = append([]engine.PlannerOption{engine.WithPolicy(policies)}, opts...)
	plan, err := s.Planner(store, opts...).Plan(ctx, doc)
	if err != nil {
		return nil, s.Report(err)
	}
	return plan, nil
}

func planSummary(plan *engine.Plan) string {
	summary := plan.Summary()
	return fmt.Sprintf("Plan: %d to create, %d to update, %d reference updates, %d unchanged.",
		summary[engine.OperationCreate],
		summary[engine.OperationUpdate],
		summary[engine.OperationUpdateReference],
		summary[engine.OperationSkip])
}
