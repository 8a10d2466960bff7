// Command typeset is a thin manual-exercise driver around package compile —
// not the CLI surface spec.md itself specifies (that stays an external
// concern per §1/§6), just enough of one to run a compile from the command
// line while building this module out. Shape (urfave/cli/v3, a single
// root command with a compile subcommand and exit-code plumbing) follows
// the teacher's cmd/fbc/main.go.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"typeset/compile"
	"typeset/diag"
	"typeset/fileid"
	"typeset/world"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:            "typeset",
		Usage:           "compiles a document's markup into a paginated layout",
		HideHelpCommand: true,
		Commands: []*cli.Command{
			{
				Name:      "compile",
				Usage:     "compiles SOURCE and reports the resulting page count and diagnostics",
				ArgsUsage: "SOURCE",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "verbose (development) logging"},
				},
				Action: runCompile,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "typeset: %v\n", err)
		os.Exit(1)
	}
}

func runCompile(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		return fmt.Errorf("missing SOURCE argument")
	}
	path := cmd.Args().Get(0)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	log, err := newLogger(cmd.Bool("debug"))
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	w := world.NewMemWorld(time.Now())
	id, err := fileid.Global().Intern(fileid.ProjectRoot(), path)
	if err != nil {
		return fmt.Errorf("interning %s: %w", path, err)
	}
	w.AddSource(id, string(data))

	sink := diag.NewSink(log)
	doc, errs := compile.Compile(w, id, sink, compile.DefaultOptions())
	for _, e := range errs {
		log.Error(e.Error())
	}
	if doc == nil {
		return fmt.Errorf("compile failed, see log for %d error(s)", len(errs))
	}

	for _, warn := range sink.Warnings() {
		log.Warn(warn.Message)
	}
	fmt.Printf("compiled %s: %d page(s), %d warning(s), %d error(s)\n",
		path, len(doc.Pages), len(sink.Warnings()), len(errs))
	return nil
}

// newLogger mirrors the teacher's config.Logging.Prepare split between a
// quiet production encoder and a verbose development one, collapsed to a
// single flag since this driver has no config file of its own.
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}
