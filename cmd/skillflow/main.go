// Command skillflow is the SkillFlow client for the terminal.
//
// Configuration comes from an optional YAML file (-config) and SKILLFLOW_*
// environment variables; see internal/config. The session lives in a local
// SQLite file, so a login survives between runs.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sakif/skillflow/internal/cli"
)

func main() {
	// Ctrl+C cancels the running request or the wait for an OAuth redirect.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Run(ctx, cli.StdEnv(), os.Args[1:])
	stop()
	os.Exit(code)
}
