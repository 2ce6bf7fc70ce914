package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewPolicyCommand creates the policy command group.
func NewPolicyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Manage insurance policies",
	}
	cmd.AddCommand(newPolicyCreateCommand(rootOpts))
	cmd.AddCommand(newPolicyPayCommand(rootOpts))
	cmd.AddCommand(newPolicyDeactivateCommand(rootOpts))
	cmd.AddCommand(newPolicyListCommand(rootOpts))
	return cmd
}

func newPolicyCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		name         string
		coverageType string
		premium      int64
		coverage     int64
	)
	cmd := &cobra.Command{
		Use:           "create",
		Short:         "Create an insurance policy",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(rootOpts, cmd)
			caller, err := principal(rootOpts)
			if err != nil {
				return err
			}
			app, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			nonce, err := app.Insurance.Nonce(ctx, caller)
			if err != nil {
				return failure(err)
			}
			id, err := app.Insurance.Create(ctx, caller, nonce, name, coverageType, premium, coverage)
			if err != nil {
				return failure(err)
			}
			return f.Successf(map[string]any{"id": id},
				"policy %d created: %s (%s/month, covers %s)",
				id, name, FormatAmount(premium), FormatAmount(coverage))
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "policy name")
	cmd.Flags().StringVar(&coverageType, "type", "", "coverage type (health, auto, ...)")
	cmd.Flags().Int64Var(&premium, "premium", 0, "monthly premium")
	cmd.Flags().Int64Var(&coverage, "coverage", 0, "coverage amount")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("premium")
	_ = cmd.MarkFlagRequired("coverage")
	return cmd
}

func newPolicyPayCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pay <id>",
		Short:         "Pay a policy premium",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(rootOpts, cmd)
			caller, err := principal(rootOpts)
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			app, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			nonce, err := app.Insurance.Nonce(ctx, caller)
			if err != nil {
				return failure(err)
			}
			nextDue, err := app.Insurance.PayPremium(ctx, caller, nonce, id)
			if err != nil {
				return failure(err)
			}
			return f.Successf(map[string]any{"id": id, "next_payment_date": nextDue},
				"policy %d premium paid, next payment due %d", id, nextDue)
		},
	}
	return cmd
}

func newPolicyDeactivateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "deactivate <id>",
		Short:         "Deactivate a policy",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(rootOpts, cmd)
			caller, err := principal(rootOpts)
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			app, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			nonce, err := app.Insurance.Nonce(ctx, caller)
			if err != nil {
				return failure(err)
			}
			if err := app.Insurance.Deactivate(ctx, caller, nonce, id); err != nil {
				return failure(err)
			}
			return f.Successf(map[string]any{"id": id, "active": false},
				"policy %d deactivated", id)
		},
	}
	return cmd
}

func newPolicyListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List active policies for the acting principal",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(rootOpts, cmd)
			caller, err := principal(rootOpts)
			if err != nil {
				return err
			}
			app, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			list, err := app.Insurance.Active(ctx, caller)
			if err != nil {
				return failure(err)
			}
			total, err := app.Insurance.TotalMonthlyPremium(ctx, caller)
			if err != nil {
				return failure(err)
			}
			if f.Format == "json" {
				return f.Success(map[string]any{"policies": list, "total_monthly_premium": total})
			}
			if len(list) == 0 {
				fmt.Fprintln(f.Writer, "no active policies")
				return nil
			}
			for _, p := range list {
				fmt.Fprintf(f.Writer, "%4d  %-20s %-8s %s/month, next due %d\n",
					p.ID, p.Name, p.CoverageType, FormatAmount(p.MonthlyPremium), p.NextPaymentDate)
			}
			fmt.Fprintf(f.Writer, "total monthly premiums: %s\n", FormatAmount(total))
			return nil
		},
	}
	return cmd
}
