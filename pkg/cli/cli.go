// Package cli maps command lines onto effects. Each effect is a cobra
// subcommand of magickfx, and the binary also answers to links named after
// an effect ("glow", "melt", ...) the way the original scripts were called.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/milahu/imagemagick-scripts-sub003/pkg/config"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/effects"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/engine"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/fxerr"
	"github.com/milahu/imagemagick-scripts-sub003/pkg/runner"
)

const progName = "magickfx"

// App holds what a command line needs besides its arguments.
type App struct {
	Config config.Config
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Open replaces engine.Open when set.
	Open func(context.Context, config.Config) (engine.Adapter, error)
}

// New returns an App reading from os.Stdin.
func New(cfg config.Config, stdout, stderr io.Writer) *App {
	return &App{Config: cfg, Stdin: os.Stdin, Stdout: stdout, Stderr: stderr}
}

// reported marks an error whose message is already on stderr.
type reported struct{ err error }

func (r reported) Error() string { return r.err.Error() }
func (r reported) Unwrap() error { return r.err }

// Main runs argv (program name first) and returns the exit status.
func (a *App) Main(ctx context.Context, argv []string) int {
	prog, args := progName, []string(nil)
	if len(argv) > 0 {
		prog, args = invokedAs(argv[0]), argv[1:]
	}
	if e, ok := effects.Lookup(prog); ok {
		return fxerr.ExitCode(a.runEffect(ctx, e, prog, args))
	}

	root := a.Command()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		var r reported
		if !errors.As(err, &r) {
			fmt.Fprintf(a.Stderr, "%s: %v\n", progName, err)
		}
		return fxerr.ExitCode(err)
	}
	return 0
}

func invokedAs(arg0 string) string {
	return strings.TrimSuffix(filepath.Base(arg0), ".exe")
}

// Command builds the magickfx command tree.
func (a *App) Command() *cobra.Command {
	root := &cobra.Command{
		Use:           progName,
		Short:         "Apply ImageMagick effects from script-style options",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(a.Stdin)
	root.SetOut(a.Stdout)
	root.SetErr(a.Stderr)
	root.CompletionOptions.DisableDefaultCmd = true

	for _, e := range effects.All() {
		root.AddCommand(a.effectCommand(e))
	}
	root.AddCommand(a.listCommand(), a.versionCommand(), a.updateCommand())
	return root
}

// effectCommand leaves flag parsing to the effect's own parser, which
// accepts negative numbers and the -h|-help|-H forms.
func (a *App) effectCommand(e *effects.Effect) *cobra.Command {
	return &cobra.Command{
		Use:                e.Name + " [options] infile outfile",
		Short:              e.Description,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEffect(cmd.Context(), e, progName+" "+e.Name, args)
		},
	}
}

func (a *App) runEffect(ctx context.Context, e *effects.Effect, prog string, args []string) error {
	r := runner.New(a.Config)
	if a.Open != nil {
		r.Open = a.Open
	}
	res, err := r.Run(ctx, e, args)
	if err != nil {
		fmt.Fprintf(a.Stderr, "%s: %v\n", prog, err)
		switch fxerr.KindOf(err) {
		case fxerr.KindUsage, fxerr.KindValidation:
			fmt.Fprintln(a.Stderr, e.Parser().ShortUsage(prog))
		}
		return reported{err}
	}
	if res.Help {
		fmt.Fprint(a.Stderr, e.Parser().Usage(prog))
	}
	return nil
}

func (a *App) listCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the available effects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if asJSON {
				return writeMeta(cmd.OutOrStdout(), effects.All())
			}
			for _, e := range effects.All() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", e.Name, e.Description)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print option metadata as JSON")
	return cmd
}

func (a *App) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version and the ImageMagick engine in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", progName, Version)
			fmt.Fprintf(out, "engines: %s\n", strings.Join(engine.Names(), ", "))
			open := a.Open
			if open == nil {
				open = engine.Open
			}
			adapter, err := open(cmd.Context(), a.Config)
			if err != nil {
				fmt.Fprintf(out, "engine: unavailable (%v)\n", err)
				return nil
			}
			fmt.Fprintf(out, "engine: %s, %s\n", adapter.Name(), adapter.Capabilities())
			return nil
		},
	}
}
