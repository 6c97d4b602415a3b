// Package cli implements the skillflow command line.
//
// USAGE:
//
//	skillflow [-config file] <command> [flags] [args]
//
// Every command builds the app from configuration, runs one controller
// action and exits. Controllers print their own notices; Run only prints
// errors nothing else has reported.
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"

	"github.com/sakif/skillflow/internal/app"
	"github.com/sakif/skillflow/internal/config"
	"github.com/sakif/skillflow/internal/controller"
)

// Env is the outside world a command sees.
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Config, when set, is used instead of loading -config and the
	// environment.
	Config *config.Config
}

// StdEnv uses the process's standard streams.
func StdEnv() Env {
	return Env{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

type command struct {
	usage string
	run   func(ctx context.Context, c *cmdContext, args []string) error
}

var commands = map[string]command{
	"login":         {"login [-u username]", cmdLogin},
	"register":      {"register -u username -email addr -bio text -goals text [-image file]", cmdRegister},
	"logout":        {"logout", cmdLogout},
	"whoami":        {"whoami", cmdWhoami},
	"refresh":       {"refresh", cmdRefresh},
	"oauth":         {"oauth <google|github>", cmdOAuth},
	"oauth-finish":  {"oauth-finish <redirect url>", cmdOAuthFinish},
	"oauth-profile": {"oauth-profile -provider p -provider-id id -u username -bio text -goals text", cmdOAuthProfile},
	"page":          {"page [path]", cmdPage},
	"feed":          {"feed", cmdFeed},
	"post":          {"post create|update|delete ...", cmdPost},
	"like":          {"like <post id>", cmdLike},
	"comment":       {"comment add|edit|delete ...", cmdComment},
	"progress":      {"progress create|update|delete ...", cmdProgress},
	"skillshare":    {"skillshare create|update|delete ...", cmdSkillShare},
	"story":         {"story create|update|delete ...", cmdStory},
	"notifications": {"notifications [list|read <id>|read-all]", cmdNotifications},
	"profile":       {"profile [show|update ...]", cmdProfile},
}

// cmdContext carries what every command needs.
type cmdContext struct {
	env    Env
	app    *app.App
	logger *slog.Logger
	in     *bufio.Reader
}

// reportedError marks an error the user has already been shown.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

// reported wraps errors returned by controllers, which notify on failure.
func reported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{err}
}

// Run executes one command and returns the process exit code.
func Run(ctx context.Context, env Env, args []string) int {
	fs := flag.NewFlagSet("skillflow", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	configPath := fs.String("config", "", "path to a YAML config file")
	fs.Usage = func() { usage(env.Stderr) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		usage(env.Stderr)
		return 2
	}

	name, rest := fs.Arg(0), fs.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(env.Stderr, "unknown command %q\n\n", name)
		usage(env.Stderr)
		return 2
	}

	cfg := env.Config
	if cfg == nil {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(env.Stderr, "error: %v\n", err)
			return 1
		}
		cfg = loaded
	}

	logger := slog.New(slog.NewTextHandler(env.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	notify := controller.WriterNotifier{Out: env.Stdout, Err: env.Stderr}

	a, err := app.New(ctx, cfg, logger, notify)
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return 1
	}
	defer a.Close()

	c := &cmdContext{env: env, app: a, logger: logger, in: bufio.NewReader(env.Stdin)}
	if err := cmd.run(ctx, c, rest); err != nil {
		var rep reportedError
		if errors.As(err, &rep) {
			return 1
		}
		if errors.Is(err, flag.ErrHelp) {
			return 2
		}
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: skillflow [-config file] <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "  %s\n", commands[n].usage)
	}
}

// newFlags returns a flag set that reports errors to stderr.
func (c *cmdContext) newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.env.Stderr)
	return fs
}

// prompt reads one line, printing label first.
func (c *cmdContext) prompt(label string) (string, error) {
	fmt.Fprint(c.env.Stdout, label)
	line, err := c.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("reading %s: %w", strings.TrimSuffix(strings.TrimSpace(label), ":"), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// password reads a secret without echo when stdin is a terminal.
func (c *cmdContext) password(label string) (string, error) {
	f, ok := c.env.Stdin.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return c.prompt(label)
	}
	fmt.Fprint(c.env.Stdout, label)
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(c.env.Stdout)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}
