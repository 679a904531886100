// Package cli implements the reviewgraph command-line interface: it migrates
// the sqlite store, records customers, items and reviews, and prints their
// projections as JSON.
package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"pollex.nl/reviewgraph"
	"pollex.nl/reviewgraph/internal/config"
)

type options struct {
	configPath string
	dsn        string
	verbose    bool

	cfg config.Config
}

// NewRootCommand builds the command tree. Output is written to out, logs to
// errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "reviewgraph",
		Short:         "Inspect customers, items and their reviews",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if opts.configPath != "" {
				loaded, err := config.Load(opts.configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if opts.dsn != "" {
				cfg.Database.DSN = opts.dsn
			}
			opts.cfg = cfg

			level := parseLevel(cfg.Log.Level)
			if opts.verbose {
				level = log.DebugLevel
			}
			logger := newLogger(errOut, level)
			installLogger(logger)
			cmd.SetContext(withLogger(cmd.Context(), logger))
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&opts.dsn, "dsn", "", "sqlite DSN, overrides the config file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newMigrateCmd(opts))
	root.AddCommand(newShowCmd(opts))
	root.AddCommand(newListCmd(opts))
	root.AddCommand(newAddCmd(opts))
	root.AddCommand(newDeleteCmd(opts))

	return root
}

// Execute runs the CLI with ctx.
func Execute(ctx context.Context, out, errOut io.Writer, args []string) error {
	root := NewRootCommand(out, errOut)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// withStore opens the configured database for the duration of fn.
func (o *options) withStore(ctx context.Context, fn func(db *sql.DB, store *reviewgraph.Store) error) error {
	logger := loggerFromContext(ctx)

	db, err := reviewgraph.Open(o.cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("closing database", "error", err)
		}
	}()

	logger.Debug("opened database", "dsn", o.cfg.Database.DSN)
	return fn(db, reviewgraph.NewStore(db))
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
