// Package cli implements the prodstore command tree.
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/prodstore/prodstore/internal/config"
	"github.com/prodstore/prodstore/internal/logging"
	"github.com/prodstore/prodstore/internal/popular"
	"github.com/prodstore/prodstore/internal/store"
	"github.com/prodstore/prodstore/internal/version"
)

// env is what every subcommand needs: the loaded config and a logger.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	in     io.Reader
	out    io.Writer
}

// NewRootCommand returns the "prodstore" command with all subcommands wired in.
func NewRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	e := &env{in: in, out: out}

	cmd := &cobra.Command{
		Use:           "prodstore",
		Short:         "In-memory product catalogue with undo/redo, sorting and price ranges",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("load config %s: %w", path, err)
			}
			if cmd.Flags().Changed("loglevel") {
				cfg.LogLevel, _ = cmd.Flags().GetString("loglevel")
			}
			level, err := logging.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.logger = logging.New(errOut, level)
			return nil
		},
	}
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	cmd.PersistentFlags().String("config", "prodstore.yaml", "config file (.yaml, .yml or .json)")
	cmd.PersistentFlags().String("loglevel", "info", "log level: debug, info, warn, error")

	cmd.AddCommand(
		newReplCmd(e),
		newImportCmd(e),
		newExportCmd(e),
		newSnapshotCmd(e),
		newVersionCmd(),
	)
	return cmd
}

// newStore builds an empty store from the config. The caller closes the
// returned tracker once the store is no longer used.
func (e *env) newStore() (*store.Store, *popular.Tracker) {
	hits := popular.New(e.cfg.PopularTop, e.cfg.HalfLife())
	st := store.New(
		store.WithBuckets(e.cfg.Buckets),
		store.WithChangeFeedSize(e.cfg.ChangeFeedSize),
		store.WithLookupTracker(hits),
		store.WithLogger(e.logger),
	)
	return st, hits
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
