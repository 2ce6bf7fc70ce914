package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewBillsCommand creates the bills command group.
func NewBillsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bills",
		Short: "Manage bills",
	}
	cmd.AddCommand(newBillsCreateCommand(rootOpts))
	cmd.AddCommand(newBillsPayCommand(rootOpts))
	cmd.AddCommand(newBillsListCommand(rootOpts))
	return cmd
}

func newBillsCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		name      string
		amount    int64
		dueDate   int64
		recurring bool
		frequency uint32
	)
	cmd := &cobra.Command{
		Use:           "create",
		Short:         "Create a bill",
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
			nonce, err := app.Bills.Nonce(ctx, caller)
			if err != nil {
				return failure(err)
			}
			id, err := app.Bills.Create(ctx, caller, nonce, name, amount, dueDate, recurring, frequency)
			if err != nil {
				return failure(err)
			}
			return f.Successf(map[string]any{"id": id},
				"bill %d created: %s (%s due %d)", id, name, FormatAmount(amount), dueDate)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "bill name")
	cmd.Flags().Int64Var(&amount, "amount", 0, "bill amount")
	cmd.Flags().Int64Var(&dueDate, "due", 0, "due date (unix seconds)")
	cmd.Flags().BoolVar(&recurring, "recurring", false, "spawn a successor when paid")
	cmd.Flags().Uint32Var(&frequency, "every", 0, "recurrence interval in days")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newBillsPayCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pay <id>",
		Short:         "Pay a bill",
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
			nonce, err := app.Bills.Nonce(ctx, caller)
			if err != nil {
				return failure(err)
			}
			successor, err := app.Bills.Pay(ctx, caller, nonce, id)
			if err != nil {
				return failure(err)
			}
			if successor != 0 {
				return f.Successf(map[string]any{"id": id, "successor": successor},
					"bill %d paid, next occurrence is bill %d", id, successor)
			}
			return f.Successf(map[string]any{"id": id},
				"bill %d paid", id)
		},
	}
	return cmd
}

func newBillsListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List unpaid bills for the acting principal",
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
			list, err := app.Bills.Unpaid(ctx, caller)
			if err != nil {
				return failure(err)
			}
			total, err := app.Bills.TotalUnpaid(ctx, caller)
			if err != nil {
				return failure(err)
			}
			if f.Format == "json" {
				return f.Success(map[string]any{"bills": list, "total": total})
			}
			if len(list) == 0 {
				fmt.Fprintln(f.Writer, "no unpaid bills")
				return nil
			}
			for _, b := range list {
				tag := ""
				if b.Recurring {
					tag = fmt.Sprintf(" (every %d days)", b.FrequencyDays)
				}
				fmt.Fprintf(f.Writer, "%4d  %-20s %s due %d%s\n",
					b.ID, b.Name, FormatAmount(b.Amount), b.DueDate, tag)
			}
			fmt.Fprintf(f.Writer, "total unpaid: %s\n", FormatAmount(total))
			return nil
		},
	}
	return cmd
}
