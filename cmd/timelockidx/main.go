// Command timelockidx runs and queries the enumerable timelock operation registry.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/timelockidx/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
