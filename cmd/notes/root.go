// ABOUTME: Root command: loads config, builds the logger, and opens the configured store.
// ABOUTME: Every subcommand receives the same app with a ready notes.Service.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/harper/notes/internal/charm"
	"github.com/harper/notes/internal/config"
	"github.com/harper/notes/internal/db"
	"github.com/harper/notes/internal/kvstore"
	"github.com/harper/notes/internal/logging"
	"github.com/harper/notes/internal/notes"
	"github.com/harper/notes/internal/pg"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app is the state shared by subcommands for one invocation.
type app struct {
	cfgPath   string
	storeName string
	logLevel  string

	cfg    *config.Config
	logger *logging.Logger
	store  notes.Store
	svc    *notes.Service
	// charm is set only when the charm store is selected.
	charm *charm.Client
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:          "notes",
		Short:        "Keep short titled notes and page through them",
		Long:         `notes stores titled notes in SQLite, Badger, Postgres or Charm KV and lists them with filtering, sorting and paging.`,
		Version:      fmt.Sprintf("%s (%s, %s)", version, commit, date),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default $XDG_CONFIG_HOME/notes/config.yaml)")
	root.PersistentFlags().StringVar(&a.storeName, "store", "", "store backend: sqlite, badger, charm or postgres")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	root.AddCommand(
		newAddCmd(a),
		newShowCmd(a),
		newListCmd(a),
		newEditCmd(a),
		newRmCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newServeCmd(a),
		newMCPCmd(a),
		newSyncCmd(a),
	)
	return root, a
}

// execute runs one invocation and releases the store however it ends.
func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	root, a := newRootCmd()
	defer func() { _ = a.close() }()

	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func (a *app) open(ctx context.Context) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if a.storeName != "" {
		cfg.Store = a.storeName
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.logger, err = logging.New().
		Level(cfg.Log.Level).
		Format(cfg.Log.Format).
		ToFile(cfg.Log.File).
		Make()
	if err != nil {
		return err
	}
	log := a.logger.With().Str("store", cfg.Store).Logger()

	a.store, a.charm, err = openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	a.svc = notes.NewService(a.store, notes.WithLogger(log))
	log.Debug().Msg("store opened")
	return nil
}

func (a *app) close() error {
	var err error
	if a.store != nil {
		err = a.store.Close()
		a.store = nil
	}
	if a.logger != nil {
		_ = a.logger.Close()
	}
	return err
}

// openStore builds the backend cfg selects. The charm client is returned
// separately because sync needs it beyond the Store interface.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (notes.Store, *charm.Client, error) {
	switch cfg.Store {
	case config.StoreBadger:
		s, err := kvstore.Open(cfg.Badger.Dir, kvstore.WithLogger(log))
		if err != nil {
			return nil, nil, fmt.Errorf("open badger store: %w", err)
		}
		return s, nil, nil
	case config.StorePostgres:
		s, err := pg.Open(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres store: %w", err)
		}
		return s, nil, nil
	case config.StoreCharm:
		c, err := charm.NewClient(
			charm.WithHost(cfg.Charm.Host),
			charm.WithDBName(cfg.Charm.DBName),
			charm.WithAutoSync(cfg.Charm.AutoSync),
			charm.WithStaleThreshold(cfg.Charm.StaleThreshold),
			charm.WithLogger(log),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("open charm store: %w", err)
		}
		return c, c, nil
	default:
		s, err := db.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, nil, nil
	}
}
