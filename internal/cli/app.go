package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"

	"github.com/tsavo-labs/remit/internal/bills"
	"github.com/tsavo-labs/remit/internal/core"
	"github.com/tsavo-labs/remit/internal/goals"
	"github.com/tsavo-labs/remit/internal/insurance"
	"github.com/tsavo-labs/remit/internal/kvstore"
	"github.com/tsavo-labs/remit/internal/split"
)

// App bundles the opened store and the ledger services for one command
// invocation.
type App struct {
	Store     *kvstore.Store
	Goals     *goals.Service
	Bills     *bills.Service
	Insurance *insurance.Service
	Split     *split.Service
	Log       *slog.Logger
}

// localAuth trusts the principal named by --as. The CLI operates on a
// local database, so possession of the file stands in for the
// authorization capability a hosted deployment would enforce.
type localAuth struct{}

func (localAuth) RequireAuth(_ context.Context, p core.Principal) error {
	if p == "" {
		return &core.Error{Code: core.ErrCodeUnauthorized, Message: "no acting principal: pass --as"}
	}
	return nil
}

// openApp opens the database and wires the four ledgers, each in its
// own keyspace.
func openApp(opts *RootOptions) (*App, error) {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level}))

	kv, err := kvstore.Open(opts.DBPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "opening database", err)
	}

	auth := localAuth{}
	sink := &core.LogSink{Logger: logger}

	return &App{
		Store:     kv,
		Goals:     goals.New(kv.Instance("goals"), auth, core.WithLogger[goals.Goal](logger), core.WithSink[goals.Goal](sink)),
		Bills:     bills.New(kv.Instance("bills"), auth, core.WithLogger[bills.Bill](logger), core.WithSink[bills.Bill](sink)),
		Insurance: insurance.New(kv.Instance("insurance"), auth, core.WithLogger[insurance.Policy](logger), core.WithSink[insurance.Policy](sink)),
		Split:     split.New(kv.Instance("split"), auth, core.WithLogger[split.Config](logger), core.WithSink[split.Config](sink)),
		Log:       logger,
	}, nil
}

// Close releases the underlying database.
func (a *App) Close() error {
	return a.Store.Close()
}

// principal returns the acting principal from --as, failing for
// commands that mutate state.
func principal(opts *RootOptions) (core.Principal, error) {
	if opts.As == "" {
		return "", NewExitError(ExitCommandError, "this command mutates state: pass --as <principal>")
	}
	return core.Principal(opts.As), nil
}
