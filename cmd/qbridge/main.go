// Command qbridge validates, renders and runs declarative query
// definitions against a SQLite database.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/roach88/qbridge/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		// Commands print their own structured errors; flag and argument
		// errors from cobra are printed here.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
