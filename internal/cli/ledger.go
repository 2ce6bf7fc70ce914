package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tsavo-labs/remit/internal/core"
)

// ledgerNames lists the valid <ledger> arguments for audit, nonce,
// export, and import.
var ledgerNames = []string{"goals", "bills", "insurance", "split"}

// ledgerOps adapts one service's cross-cutting operations behind a
// uniform surface. The snapshot side is JSON both ways so the four
// ledgers' distinct record types stay behind this boundary.
type ledgerOps struct {
	audit    func(ctx context.Context, from, limit uint32) ([]core.AuditEntry, error)
	nonce    func(ctx context.Context, principal core.Principal) (uint64, error)
	exportTo func(ctx context.Context, caller core.Principal) (any, error)
	importIn func(ctx context.Context, caller core.Principal, nonce uint64, raw []byte) error
}

func (a *App) ledger(name string) (ledgerOps, error) {
	switch name {
	case "goals":
		return ledgerOps{
			audit: a.Goals.Audit,
			nonce: a.Goals.Nonce,
			exportTo: func(ctx context.Context, caller core.Principal) (any, error) {
				return a.Goals.Export(ctx, caller)
			},
			importIn: func(ctx context.Context, caller core.Principal, nonce uint64, raw []byte) error {
				snap, err := decodeSnapshot[goalSnapshot](raw)
				if err != nil {
					return err
				}
				return a.Goals.Import(ctx, caller, nonce, snap)
			},
		}, nil
	case "bills":
		return ledgerOps{
			audit: a.Bills.Audit,
			nonce: a.Bills.Nonce,
			exportTo: func(ctx context.Context, caller core.Principal) (any, error) {
				return a.Bills.Export(ctx, caller)
			},
			importIn: func(ctx context.Context, caller core.Principal, nonce uint64, raw []byte) error {
				snap, err := decodeSnapshot[billSnapshot](raw)
				if err != nil {
					return err
				}
				return a.Bills.Import(ctx, caller, nonce, snap)
			},
		}, nil
	case "insurance":
		return ledgerOps{
			audit: a.Insurance.Audit,
			nonce: a.Insurance.Nonce,
			exportTo: func(ctx context.Context, caller core.Principal) (any, error) {
				return a.Insurance.Export(ctx, caller)
			},
			importIn: func(ctx context.Context, caller core.Principal, nonce uint64, raw []byte) error {
				snap, err := decodeSnapshot[policySnapshot](raw)
				if err != nil {
					return err
				}
				return a.Insurance.Import(ctx, caller, nonce, snap)
			},
		}, nil
	case "split":
		return ledgerOps{
			audit: a.Split.Audit,
			nonce: a.Split.Nonce,
			exportTo: func(ctx context.Context, caller core.Principal) (any, error) {
				return a.Split.Export(ctx, caller)
			},
			importIn: func(ctx context.Context, caller core.Principal, nonce uint64, raw []byte) error {
				snap, err := decodeSnapshot[splitSnapshot](raw)
				if err != nil {
					return err
				}
				return a.Split.Import(ctx, caller, nonce, snap)
			},
		}, nil
	}
	return ledgerOps{}, NewExitError(ExitCommandError,
		fmt.Sprintf("unknown ledger %q: must be one of %v", name, ledgerNames))
}

// NewAuditCommand creates the audit command.
func NewAuditCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		from  uint32
		limit uint32
	)
	cmd := &cobra.Command{
		Use:           "audit <ledger>",
		Short:         "Read a ledger's audit log",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(rootOpts, cmd)
			app, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			ops, err := app.ledger(args[0])
			if err != nil {
				return err
			}
			entries, err := ops.audit(cmd.Context(), from, limit)
			if err != nil {
				return failure(err)
			}
			if f.Format == "json" {
				return f.Success(entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(f.Writer, "no audit entries")
				return nil
			}
			for i, e := range entries {
				mark := "ok"
				if !e.Success {
					mark = "FAILED"
				}
				ts := time.Unix(e.Timestamp, 0).UTC().Format(time.RFC3339)
				fmt.Fprintf(f.Writer, "%4d  %s  %-12s %-12s %s\n",
					from+uint32(i), ts, e.Operation, string(e.Caller), mark)
			}
			return nil
		},
	}
	cmd.Flags().Uint32Var(&from, "from", 0, "first entry index")
	cmd.Flags().Uint32Var(&limit, "limit", 20, "maximum entries to return")
	return cmd
}

// NewNonceCommand creates the nonce command.
func NewNonceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "nonce <ledger>",
		Short:         "Show the acting principal's next expected nonce",
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
			nonce, err := ops.nonce(cmd.Context(), caller)
			if err != nil {
				return failure(err)
			}
			return f.Successf(map[string]any{"ledger": args[0], "principal": caller, "nonce": nonce},
				"%d", nonce)
		},
	}
	return cmd
}
