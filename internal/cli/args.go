package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// formatter builds an output formatter bound to the command's streams.
func formatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// parseID parses a positional record id argument.
func parseID(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil || v == 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid record id %q", s))
	}
	return uint32(v), nil
}

// parseAmount parses a positional amount argument.
func parseAmount(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid amount %q", s))
	}
	return v, nil
}
