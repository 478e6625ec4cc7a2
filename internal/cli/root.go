// Package cli wires the todo command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"termtodo/internal/config"
	"termtodo/internal/storage"
	"termtodo/internal/ui"
)

const Version = "0.1.0"

// Opener connects to the configured store. Tests swap in a fake.
type Opener func(ctx context.Context, cfg config.Database, logger *log.Logger) (storage.Store, error)

// Interactive runs the full-screen view against an open store.
type Interactive func(ctx context.Context, store ui.Gateway, cfg config.Config) error

type Options struct {
	Stdout      io.Writer
	Stderr      io.Writer
	Open        Opener
	Interactive Interactive
}

type flags struct {
	configPath string
	driver     string
	dsn        string
	debug      bool
}

func openStore(ctx context.Context, cfg config.Database, logger *log.Logger) (storage.Store, error) {
	return storage.Open(ctx, cfg, logger)
}

func runInteractive(ctx context.Context, store ui.Gateway, cfg config.Config) error {
	return ui.Run(ctx, store, cfg)
}

// NewRootCommand builds the todo command. With no subcommand it opens the
// interactive list.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Open == nil {
		opts.Open = openStore
	}
	if opts.Interactive == nil {
		opts.Interactive = runInteractive
	}
	f := &flags{}

	root := &cobra.Command{
		Use:           "todo",
		Short:         "A terminal todo list",
		Long:          "todo manages a list of tasks from the command line or an interactive terminal view.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, f, opts, func(ctx context.Context, s storage.Store, cfg config.Config) error {
				return opts.Interactive(ctx, s, cfg)
			})
		},
	}
	if opts.Stdout != nil {
		root.SetOut(opts.Stdout)
	}
	if opts.Stderr != nil {
		root.SetErr(opts.Stderr)
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "config file (default: $TODO_CONFIG or the user config dir)")
	pf.StringVar(&f.driver, "driver", "", "database driver: sqlite, mysql or postgres")
	pf.StringVar(&f.dsn, "dsn", "", "database connection string")
	pf.BoolVar(&f.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newAddCmd(f, opts),
		newSearchCmd(f, opts),
		newDoneCmd(f, opts),
		newToggleCmd(f, opts),
		newRemoveCmd(f, opts),
		newShowAllCmd(f, opts),
	)
	return root
}

// withStore loads config, applies flag overrides, opens the store and
// closes it once fn returns.
func withStore(cmd *cobra.Command, f *flags, opts Options, fn func(ctx context.Context, s storage.Store, cfg config.Config) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	path := f.configPath
	if path == "" {
		path = config.ResolveConfigPath()
	}
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if f.driver != "" {
		cfg.Database.Driver = strings.ToLower(f.driver)
	}
	if f.dsn != "" {
		cfg.Database.DSN = f.dsn
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, f.debug)
	logger.Debug("config loaded", "path", path, "driver", cfg.Database.Driver)

	store, err := opts.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	return fn(ctx, store, cfg)
}

func newLogger(w io.Writer, level string, debug bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix: "todo",
	})
	if lvl, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}
	if debug {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}
