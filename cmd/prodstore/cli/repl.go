package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/prodstore/prodstore/internal/shell"
	"github.com/prodstore/prodstore/internal/snapshot"
	"github.com/prodstore/prodstore/internal/version"
)

func newReplCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl [file]",
		Short: "Start an interactive session",
		Long: "Starts an interactive session over an empty catalogue. The named file, or the " +
			"configured default file if it exists, is loaded first. Type HELP for commands.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			quiet, _ := cmd.Flags().GetBool("quiet")

			snaps, err := snapshot.NewManager(e.cfg.SnapshotPath())
			if err != nil {
				return err
			}

			cfg := shell.Config{
				DefaultFile: e.cfg.DefaultPath(),
				Snapshots:   snaps,
				Logger:      e.logger,
			}
			if !quiet {
				cfg.Prompt = "prodstore> "
			}
			st, hits := e.newStore()
			defer hits.Close()
			sess := shell.New(st, e.out, cfg)

			if !quiet {
				fmt.Fprintln(e.out, version.String())
				fmt.Fprintln(e.out, "Type HELP for commands, EXIT to quit.")
			}
			switch {
			case len(args) == 1:
				sess.Load(args[0])
			case fileExists(cfg.DefaultFile):
				sess.Load(cfg.DefaultFile)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			return sess.Run(ctx, e.in)
		},
	}
	cmd.Flags().BoolP("quiet", "q", false, "no banner or prompt (for piped input)")
	return cmd
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
