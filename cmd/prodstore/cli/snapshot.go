package cli

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/prodstore/prodstore/internal/snapshot"
)

func newSnapshotCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage stored catalogue snapshots",
	}
	cmd.PersistentFlags().StringP("output", "o", "table", "output format: table or json")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List snapshots, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				snaps, err := snapshot.NewManager(e.cfg.SnapshotPath())
				if err != nil {
					return err
				}
				metas, err := snaps.List()
				if err != nil {
					return err
				}

				p := newPrinter(outputFormat(cmd), e.out)
				if p.format == "json" {
					if metas == nil {
						metas = []snapshot.Meta{}
					}
					return p.json(metas)
				}
				rows := make([][]string, 0, len(metas))
				for _, m := range metas {
					rows = append(rows, []string{m.ID, humanize.Time(m.CreatedAt), humanize.Bytes(uint64(m.SizeBytes))})
				}
				p.table([]string{"ID", "CREATED", "SIZE"}, rows)
				return nil
			},
		},
		&cobra.Command{
			Use:   "show ID",
			Short: "Print the records held by a snapshot",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				snaps, err := snapshot.NewManager(e.cfg.SnapshotPath())
				if err != nil {
					return err
				}
				snap, err := snaps.Load(args[0])
				if err != nil {
					return err
				}

				p := newPrinter(outputFormat(cmd), e.out)
				if p.format == "json" {
					return p.json(snap)
				}
				rows := make([][]string, 0, len(snap.Records))
				for _, r := range snap.Records {
					rows = append(rows, []string{
						r.ID, r.Name, r.Category,
						"$" + humanize.CommafWithDigits(r.Price, 2),
						strconv.FormatFloat(r.Rating, 'f', 1, 64),
						humanize.Comma(int64(r.Stock)),
						humanize.Comma(int64(r.Sales)),
					})
				}
				p.table([]string{"ID", "NAME", "CATEGORY", "PRICE", "RATING", "STOCK", "SALES"}, rows)
				fmt.Fprintf(e.out, "%d products, taken %s\n", len(snap.Records), humanize.Time(snap.CreatedAt))
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete ID",
			Short: "Delete a snapshot",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				snaps, err := snapshot.NewManager(e.cfg.SnapshotPath())
				if err != nil {
					return err
				}
				if err := snaps.Delete(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(e.out, "deleted snapshot %s\n", args[0])
				return nil
			},
		},
	)
	return cmd
}

// outputFormat returns "json" or "table" from the --output flag.
func outputFormat(cmd *cobra.Command) string {
	f, _ := cmd.Flags().GetString("output")
	return f
}
