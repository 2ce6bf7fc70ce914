package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsavo-labs/remit/internal/bills"
	"github.com/tsavo-labs/remit/internal/core"
	"github.com/tsavo-labs/remit/internal/goals"
	"github.com/tsavo-labs/remit/internal/insurance"
	"github.com/tsavo-labs/remit/internal/split"
)

type (
	goalSnapshot   = core.Snapshot[core.RecordSet[goals.Goal]]
	billSnapshot   = core.Snapshot[core.RecordSet[bills.Bill]]
	policySnapshot = core.Snapshot[core.RecordSet[insurance.Policy]]
	splitSnapshot  = core.Snapshot[core.RecordSet[split.Config]]
)

func decodeSnapshot[S any](raw []byte) (S, error) {
	var snap S
	if err := json.Unmarshal(raw, &snap); err != nil {
		return snap, WrapExitError(ExitCommandError, "decoding snapshot", err)
	}
	return snap, nil
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:           "export <ledger>",
		Short:         "Export a verifiable snapshot of a ledger",
		Args:          cobra.ExactArgs(1),
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

			ops, err := app.ledger(args[0])
			if err != nil {
				return err
			}
			snap, err := ops.exportTo(cmd.Context(), caller)
			if err != nil {
				return failure(err)
			}
			data, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return WrapExitError(ExitCommandError, "encoding snapshot", err)
			}
			data = append(data, '\n')
			if out == "" {
				_, err = f.Writer.Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return WrapExitError(ExitCommandError, "writing snapshot", err)
			}
			return f.Successf(map[string]any{"ledger": args[0], "file": out},
				"snapshot of %s written to %s", args[0], out)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write snapshot to file instead of stdout")
	return cmd
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "import <ledger> <file>",
		Short:         "Import a snapshot, replacing the ledger's records",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(rootOpts, cmd)
			caller, err := principal(rootOpts)
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "reading snapshot", err)
			}
			app, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			ops, err := app.ledger(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			nonce, err := ops.nonce(ctx, caller)
			if err != nil {
				return failure(err)
			}
			if err := ops.importIn(ctx, caller, nonce, raw); err != nil {
				return failure(err)
			}
			return f.Successf(map[string]any{"ledger": args[0], "file": args[1]},
				"snapshot %s imported into %s", args[1], args[0])
		},
	}
	return cmd
}
