package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsavo-labs/remit/internal/plan"
)

// NewPlanCommand creates the plan command group.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Apply declarative seed plans",
	}
	cmd.AddCommand(newPlanApplyCommand(rootOpts))
	return cmd
}

func newPlanApplyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply <plan.yaml>",
		Short: "Validate and apply a seed plan",
		Long: `Validate a YAML plan against the embedded schema and apply it.

Validation happens before any write. The plan is applied through the
same replay-protected operations as any other client, so every seeded
record appears in the audit log. Apply is not atomic across ledgers.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlanApply(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runPlanApply(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := formatter(opts, cmd)

	p, err := plan.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading plan", err)
	}
	app, err := openApp(opts)
	if err != nil {
		return err
	}
	defer app.Close()

	sum, err := plan.Apply(cmd.Context(), plan.Services{
		Split:     app.Split,
		Goals:     app.Goals,
		Bills:     app.Bills,
		Insurance: app.Insurance,
	}, p)
	if err != nil {
		return failure(err)
	}
	if f.Format == "json" {
		return f.Success(sum)
	}
	fmt.Fprintf(f.Writer, "plan applied for %s:\n", p.Owner)
	if sum.SplitConfigured {
		fmt.Fprintln(f.Writer, "  split configured")
	}
	fmt.Fprintf(f.Writer, "  goals: %d, bills: %d, policies: %d\n",
		len(sum.GoalIDs), len(sum.BillIDs), len(sum.PolicyIDs))
	return nil
}
