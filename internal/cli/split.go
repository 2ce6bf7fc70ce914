package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsavo-labs/remit/internal/split"
)

// NewSplitCommand creates the split command group.
func NewSplitCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Manage the remittance split configuration",
	}
	cmd.AddCommand(newSplitSetCommand(rootOpts, true))
	cmd.AddCommand(newSplitSetCommand(rootOpts, false))
	cmd.AddCommand(newSplitShowCommand(rootOpts))
	cmd.AddCommand(newSplitCalcCommand(rootOpts))
	return cmd
}

func splitPercentFlags(cmd *cobra.Command, p *split.Percentages) {
	cmd.Flags().Uint32Var(&p.Spending, "spending", 0, "spending percentage")
	cmd.Flags().Uint32Var(&p.Savings, "savings", 0, "savings percentage")
	cmd.Flags().Uint32Var(&p.Bills, "bills", 0, "bills percentage")
	cmd.Flags().Uint32Var(&p.Insurance, "insurance", 0, "insurance percentage")
	_ = cmd.MarkFlagRequired("spending")
	_ = cmd.MarkFlagRequired("savings")
	_ = cmd.MarkFlagRequired("bills")
	_ = cmd.MarkFlagRequired("insurance")
}

func newSplitSetCommand(rootOpts *RootOptions, initialize bool) *cobra.Command {
	use, short := "init", "Initialize the split configuration (percentages must sum to 100)"
	if !initialize {
		use, short = "update", "Update the split configuration (owner only)"
	}
	var pct split.Percentages
	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
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
			nonce, err := app.Split.Nonce(ctx, caller)
			if err != nil {
				return failure(err)
			}
			if initialize {
				err = app.Split.Initialize(ctx, caller, nonce, pct)
			} else {
				err = app.Split.Update(ctx, caller, nonce, pct)
			}
			if err != nil {
				return failure(err)
			}
			return f.Successf(pct,
				"split set: spending %d%% savings %d%% bills %d%% insurance %d%%",
				pct.Spending, pct.Savings, pct.Bills, pct.Insurance)
		},
	}
	splitPercentFlags(cmd, &pct)
	return cmd
}

func newSplitShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "show",
		Short:         "Show the current split configuration",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(rootOpts, cmd)
			app, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			cfg, ok, err := app.Split.Config(cmd.Context())
			if err != nil {
				return failure(err)
			}
			if f.Format == "json" {
				return f.Success(map[string]any{"initialized": ok, "config": cfg})
			}
			if !ok {
				fmt.Fprintln(f.Writer, "split not initialized (defaults: spending 50% savings 30% bills 15% insurance 5%)")
				return nil
			}
			fmt.Fprintf(f.Writer, "owner: %s\nspending: %d%%\nsavings: %d%%\nbills: %d%%\ninsurance: %d%%\n",
				cfg.Owner, cfg.SpendingPercent, cfg.SavingsPercent, cfg.BillsPercent, cfg.InsurancePercent)
			return nil
		},
	}
	return cmd
}

func newSplitCalcCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "calc <total>",
		Short:         "Calculate shares for a remittance total",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(rootOpts, cmd)
			total, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			app, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			shares, err := app.Split.Calculate(cmd.Context(), total)
			if err != nil {
				return failure(err)
			}
			if f.Format == "json" {
				return f.Success(shares)
			}
			fmt.Fprintf(f.Writer, "total:     %s\n", FormatAmount(total))
			fmt.Fprintf(f.Writer, "spending:  %s\n", FormatAmount(shares.Spending))
			fmt.Fprintf(f.Writer, "savings:   %s\n", FormatAmount(shares.Savings))
			fmt.Fprintf(f.Writer, "bills:     %s\n", FormatAmount(shares.Bills))
			fmt.Fprintf(f.Writer, "insurance: %s\n", FormatAmount(shares.Insurance))
			return nil
		},
	}
	return cmd
}
