package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewGoalsCommand creates the goals command group.
func NewGoalsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "Manage savings goals",
	}
	cmd.AddCommand(newGoalsCreateCommand(rootOpts))
	cmd.AddCommand(newGoalsAddCommand(rootOpts))
	cmd.AddCommand(newGoalsWithdrawCommand(rootOpts))
	cmd.AddCommand(newGoalsLockCommand(rootOpts, true))
	cmd.AddCommand(newGoalsLockCommand(rootOpts, false))
	cmd.AddCommand(newGoalsListCommand(rootOpts))
	cmd.AddCommand(newGoalsGetCommand(rootOpts))
	return cmd
}

func newGoalsGetCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "get <id>",
		Short:         "Show one goal",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(rootOpts, cmd)
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			app, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			g, ok, err := app.Goals.Get(cmd.Context(), id)
			if err != nil {
				return failure(err)
			}
			if !ok {
				return NewExitError(ExitFailure, fmt.Sprintf("goal %d not found", id))
			}
			if f.Format == "json" {
				return f.Success(g)
			}
			status := "unlocked"
			if g.Locked {
				status = "locked"
			}
			fmt.Fprintf(f.Writer, "goal %d: %s\nowner: %s\nprogress: %s / %s\ntarget date: %d\nstatus: %s\ncompleted: %t\n",
				g.ID, g.Name, g.Owner, FormatAmount(g.CurrentAmount), FormatAmount(g.TargetAmount),
				g.TargetDate, status, g.Completed())
			return nil
		},
	}
	return cmd
}

func newGoalsCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		name       string
		target     int64
		targetDate int64
	)
	cmd := &cobra.Command{
		Use:           "create",
		Short:         "Create a savings goal (starts locked)",
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
			nonce, err := app.Goals.Nonce(ctx, caller)
			if err != nil {
				return failure(err)
			}
			id, err := app.Goals.Create(ctx, caller, nonce, name, target, targetDate)
			if err != nil {
				return failure(err)
			}
			return f.Successf(map[string]any{"id": id},
				"goal %d created: %s (target %s)", id, name, FormatAmount(target))
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "goal name")
	cmd.Flags().Int64Var(&target, "target", 0, "target amount")
	cmd.Flags().Int64Var(&targetDate, "date", 0, "target date (unix seconds)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func newGoalsAddCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "add <id> <amount>",
		Short:         "Add funds to a goal",
		Args:          cobra.ExactArgs(2),
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
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			app, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			nonce, err := app.Goals.Nonce(ctx, caller)
			if err != nil {
				return failure(err)
			}
			balance, err := app.Goals.Add(ctx, caller, nonce, id, amount)
			if err != nil {
				return failure(err)
			}
			return f.Successf(map[string]any{"id": id, "balance": balance},
				"goal %d balance: %s", id, FormatAmount(balance))
		},
	}
	return cmd
}

func newGoalsWithdrawCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "withdraw <id> <amount>",
		Short:         "Withdraw funds from an unlocked goal",
		Args:          cobra.ExactArgs(2),
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
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			app, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			nonce, err := app.Goals.Nonce(ctx, caller)
			if err != nil {
				return failure(err)
			}
			balance, err := app.Goals.Withdraw(ctx, caller, nonce, id, amount)
			if err != nil {
				return failure(err)
			}
			return f.Successf(map[string]any{"id": id, "balance": balance},
				"goal %d balance: %s", id, FormatAmount(balance))
		},
	}
	return cmd
}

func newGoalsLockCommand(rootOpts *RootOptions, lock bool) *cobra.Command {
	use, short := "lock <id>", "Lock a goal against withdrawals"
	if !lock {
		use, short = "unlock <id>", "Unlock a goal for withdrawals"
	}
	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
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
			nonce, err := app.Goals.Nonce(ctx, caller)
			if err != nil {
				return failure(err)
			}
			if lock {
				err = app.Goals.Lock(ctx, caller, nonce, id)
			} else {
				err = app.Goals.Unlock(ctx, caller, nonce, id)
			}
			if err != nil {
				return failure(err)
			}
			state := "locked"
			if !lock {
				state = "unlocked"
			}
			return f.Successf(map[string]any{"id": id, "locked": lock},
				"goal %d %s", id, state)
		},
	}
	return cmd
}

func newGoalsListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List goals owned by the acting principal",
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

			list, err := app.Goals.ByOwner(cmd.Context(), caller)
			if err != nil {
				return failure(err)
			}
			if f.Format == "json" {
				return f.Success(list)
			}
			if len(list) == 0 {
				fmt.Fprintln(f.Writer, "no goals")
				return nil
			}
			for _, g := range list {
				status := "unlocked"
				if g.Locked {
					status = "locked"
				}
				if g.Completed() {
					status += ", completed"
				}
				fmt.Fprintf(f.Writer, "%4d  %-20s %s / %s (%s)\n",
					g.ID, g.Name, FormatAmount(g.CurrentAmount), FormatAmount(g.TargetAmount), status)
			}
			return nil
		},
	}
	return cmd
}
