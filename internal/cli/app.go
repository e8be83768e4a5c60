// Package cli is the cobra command tree behind the todo binary.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Makepad-fr/freetodo/internal/auth"
	"github.com/Makepad-fr/freetodo/internal/config"
	"github.com/Makepad-fr/freetodo/internal/controller"
	"github.com/Makepad-fr/freetodo/internal/logging"
	"github.com/Makepad-fr/freetodo/internal/remote"
	"github.com/Makepad-fr/freetodo/internal/tui"
	"github.com/Makepad-fr/freetodo/internal/ui"
)

// Exit codes returned by Run.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// usageError marks a problem with how the command was invoked.
type usageError struct {
	err  error
	hint string
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(hint, format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...), hint: hint}
}

// usageArgs tags argument validation failures as usage errors.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return &usageError{err: err, hint: fmt.Sprintf("run `%s --help`", cmd.CommandPath())}
		}
		return nil
	}
}

type globalFlags struct {
	configPath string
	endpoint   string
	store      string
	dataDir    string
	logLevel   string
	logFile    string
	theme      string
}

type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	flags  globalFlags
	cfg    *config.Config
	logger *log.Logger

	// runTUI is swapped out in tests.
	runTUI func(context.Context, *controller.Controller) error
}

// Run executes the command line and returns the process exit code
// (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		logger: logging.Discard(),
		runTUI: func(ctx context.Context, c *controller.Controller) error { return tui.Run(ctx, c) },
	}
	return a.run(ctx, args)
}

func (a *app) run(ctx context.Context, args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	ui.Fail(a.stderr, err.Error())
	var ue *usageError
	if errors.As(err, &ue) {
		if ue.hint != "" {
			ui.Hint(a.stderr, ue.hint)
		}
		return ExitUsage
	}
	return ExitError
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "todo",
		Short: "Turn free text into to-do items",
		Long: `todo sends what you type to a creation service, which splits it into
to-do items (goal, deadline, people). The list is kept locally.

Run without a subcommand to open the interactive view.`,
		Args:              usageArgs(cobra.NoArgs),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE:              a.tuiCommand,
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err, hint: fmt.Sprintf("run `%s --help`", cmd.CommandPath())}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", "config file (default ./"+config.ProjectFileName+")")
	pf.StringVar(&a.flags.endpoint, "endpoint", "", "creation service base URL")
	pf.StringVar(&a.flags.store, "store", "", "store backend: file, redis or table")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "directory for the file store")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&a.flags.logFile, "log-file", "", "log file used while the interactive view runs")
	pf.StringVar(&a.flags.theme, "theme", "classic", "color theme: classic, neon or mono")

	root.AddCommand(
		a.newTUICmd(),
		a.newAddCmd(),
		a.newLsCmd(),
		a.newRmCmd(),
		a.newAuthCmd(),
		a.newConfigCmd(),
	)
	return root
}

// setup loads the configuration, applies flags and builds the stderr logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.flags.configPath)
	if err != nil {
		return err
	}
	f := cmd.Flags()
	if f.Changed("endpoint") {
		cfg.Endpoint = a.flags.endpoint
	}
	if f.Changed("store") {
		cfg.Store.Backend = a.flags.store
	}
	if f.Changed("data-dir") {
		cfg.Store.Dir = a.flags.dataDir
	}
	if f.Changed("log-level") {
		cfg.LogLevel = a.flags.logLevel
	}
	if f.Changed("log-file") {
		cfg.LogFile = a.flags.logFile
	}
	if !ui.ValidTheme(a.flags.theme) {
		return usagef("", "unknown theme %q, want one of %s", a.flags.theme, strings.Join(ui.Themes, ", "))
	}
	if err := cfg.Finalize(); err != nil {
		return &usageError{err: fmt.Errorf("configuration: %w", err), hint: "run `todo config` to see the effective settings"}
	}
	ui.SetTheme(a.flags.theme)

	a.cfg = cfg
	a.logger = logging.New(a.stderr, a.logOptions())
	return nil
}

func (a *app) logOptions() logging.Options {
	opts := logging.DefaultOptions()
	opts.Level = a.cfg.LogLevel
	opts.Format = a.cfg.LogFormat
	return opts
}

// openController wires store, credentials and client into a loaded
// controller. The returned func releases the store.
func (a *app) openController(ctx context.Context) (*controller.Controller, func(), error) {
	st, err := openStore(ctx, a.cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	opts := []remote.Option{
		remote.WithLogger(a.logger),
		remote.WithTimeout(a.cfg.RequestTimeout.Duration),
	}
	ti, err := auth.Credentials{Dir: config.UserDir()}.Get()
	switch {
	case err != nil:
		a.logger.Warn("ignoring saved credentials", "err", err)
	case ti != nil:
		opts = append(opts, remote.WithToken(ti.Token))
	}
	client := remote.New(a.cfg.Endpoint, opts...)

	ctrl := controller.New(st, client,
		controller.WithLogger(a.logger),
		controller.WithStorageKey(a.cfg.StorageKey),
		controller.WithClearInputOnAdd(a.cfg.ClearInputOnAdd),
	)
	ctrl.Initialize(ctx)

	release := func() {
		if err := st.Close(); err != nil {
			a.logger.Warn("close store", "err", err)
		}
	}
	return ctrl, release, nil
}
