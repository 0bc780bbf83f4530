package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yildizm/h5view/internal/cli"
)

// Build variables set by ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cmd := cli.NewRootCommand(version, commit, date)
	err := cmd.ExecuteContext(context.Background())
	code := cli.ExitCode(err)
	if err != nil {
		fmt.Fprintf(os.Stderr, "h5view: %v\n", err)
		if code == cli.ExitUsage {
			fmt.Fprintln(os.Stderr, "Run 'h5view --help' for usage.")
		}
	}
	os.Exit(code)
}
