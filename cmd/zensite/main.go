package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/zensite/cmd/zensite/commands"
	foundationerrors "git.home.luguber.info/inful/zensite/internal/foundation/errors"
	"git.home.luguber.info/inful/zensite/internal/version"
)

// exitUsage is returned for wrong arguments or flags.
const exitUsage = 2

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cli := &commands.CLI{}
	exitCode := -1
	parser, err := kong.New(cli,
		kong.Name("zensite"),
		kong.Description("Render a website from a sitemap and a tree of page sources."),
		kong.Vars{"version": version.Banner()},
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { exitCode = code }),
	)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}

	kctx, err := parser.Parse(args)
	if exitCode >= 0 {
		// --help or --version
		return exitCode
	}
	if err != nil {
		return usage(err, stderr)
	}

	global, err := cli.Setup(stdout)
	if err != nil {
		return handle(err, cli.Verbose, stderr)
	}
	if err := kctx.Run(global, cli); err != nil {
		return handle(err, cli.Verbose, stderr)
	}
	return 0
}

// usage reports a command line the parser rejected.
func usage(err error, stderr io.Writer) int {
	_, _ = fmt.Fprintf(stderr, "zensite: error: %v\n", err)
	var perr *kong.ParseError
	if errors.As(err, &perr) && perr.Context != nil {
		_ = perr.Context.PrintUsage(true)
	}
	return exitUsage
}

func handle(err error, verbose bool, stderr io.Writer) int {
	adapter := foundationerrors.NewCLIErrorAdapter(verbose, nil)
	_, _ = fmt.Fprintln(stderr, adapter.FormatError(err))
	return adapter.ExitCodeFor(err)
}
