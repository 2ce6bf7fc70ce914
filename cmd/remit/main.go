// Command remit manages owned, replay-protected family ledgers over a
// local SQLite database.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/tsavo-labs/remit/internal/cli"
)

func main() {
	// A .env in the working directory can hold defaults like REMIT_DB
	// and REMIT_AS, read by the root command when building its flags.
	_ = godotenv.Load()

	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
