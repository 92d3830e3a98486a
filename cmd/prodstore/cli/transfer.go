package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prodstore/prodstore/internal/codec"
	"github.com/prodstore/prodstore/internal/record"
	"github.com/prodstore/prodstore/internal/shell"
	"github.com/prodstore/prodstore/internal/snapshot"
	"github.com/prodstore/prodstore/internal/sorting"
	"github.com/prodstore/prodstore/internal/store"
)

func newImportCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Validate a catalogue file and store it as a snapshot",
		Long: "Reads a delimited text or SQLite catalogue, applies the same checks as interactive ADD, " +
			"reports every skipped line or record, and stores what loaded as a new snapshot.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("snapshot")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			st, hits := e.newStore()
			defer hits.Close()
			if err := e.loadInto(cmd.Context(), st, args[0]); err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintf(e.out, "%d products valid\n", st.Len())
				return nil
			}

			snaps, err := snapshot.NewManager(e.cfg.SnapshotPath())
			if err != nil {
				return err
			}
			meta, err := snaps.Create(id, st.Snapshot())
			if err != nil {
				return err
			}
			e.logger.Info("import complete", "file", args[0], "snapshot", meta.ID, "records", st.Len())
			fmt.Fprintf(e.out, "imported %d products into snapshot %s\n", st.Len(), meta.ID)
			return nil
		},
	}
	cmd.Flags().String("snapshot", "", "snapshot id (default: random)")
	cmd.Flags().Bool("dry-run", false, "validate only, do not create a snapshot")
	return cmd
}

// loadInto restores the catalogue at path into st and reports what was
// skipped on the error stream.
func (e *env) loadInto(ctx context.Context, st *store.Store, path string) error {
	rs, bad, err := shell.LoadFile(ctx, path)
	if err != nil {
		return err
	}
	for _, le := range bad {
		e.logger.Warn("skipped line", "file", path, "line", le.Line, "error", le.Err)
	}
	rep := st.Restore(rs)
	if n := len(bad) + len(rep.Skipped); n > 0 {
		e.logger.Warn("records skipped", "file", path, "count", n)
	}
	return nil
}

type exportOptions struct {
	from      string
	snapshot  string
	format    string
	sortKey   string
	algorithm string
	desc      bool
	min, max  float64
	hasRange  bool
}

func newExportCmd(e *env) *cobra.Command {
	var opts exportOptions
	cmd := &cobra.Command{
		Use:   "export OUT",
		Short: "Write the catalogue as csv, json or sqlite",
		Long: "Reads the catalogue from --from (default: the configured default file) or from a snapshot, " +
			"optionally sorts it or restricts it to a price range, and writes it to OUT. " +
			"OUT may be - for csv and json. The format follows the extension unless --format is given.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.hasRange = cmd.Flags().Changed("min") || cmd.Flags().Changed("max")
			if !cmd.Flags().Changed("max") {
				opts.max = math.MaxFloat64
			}
			return e.export(cmd.Context(), args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.from, "from", "", "source catalogue file")
	cmd.Flags().StringVar(&opts.snapshot, "snapshot", "", "source snapshot id")
	cmd.Flags().StringVar(&opts.format, "format", "", "output format: csv, json or sqlite")
	cmd.Flags().StringVar(&opts.sortKey, "sort", "", "sort by price, rating or sales")
	cmd.Flags().StringVar(&opts.algorithm, "algo", "merge", "sort algorithm: merge or quick")
	cmd.Flags().BoolVar(&opts.desc, "desc", false, "sort descending")
	cmd.Flags().Float64Var(&opts.min, "min", 0, "lowest price to include")
	cmd.Flags().Float64Var(&opts.max, "max", 0, "highest price to include")
	cmd.MarkFlagsMutuallyExclusive("from", "snapshot")
	cmd.MarkFlagsMutuallyExclusive("sort", "min")
	cmd.MarkFlagsMutuallyExclusive("sort", "max")
	return cmd
}

func (e *env) export(ctx context.Context, out string, opts exportOptions) error {
	format, err := exportFormat(out, opts.format)
	if err != nil {
		return err
	}

	st, hits := e.newStore()
	defer hits.Close()
	if opts.snapshot != "" {
		snaps, err := snapshot.NewManager(e.cfg.SnapshotPath())
		if err != nil {
			return err
		}
		snap, err := snaps.Load(opts.snapshot)
		if err != nil {
			return err
		}
		st.Restore(snap.Records)
	} else {
		from := opts.from
		if from == "" {
			from = e.cfg.DefaultPath()
		}
		if err := e.loadInto(ctx, st, from); err != nil {
			return err
		}
	}

	rs, err := view(st, opts)
	if err != nil {
		return err
	}

	switch format {
	case "sqlite":
		if out == "-" {
			return errors.New("export: sqlite output needs a file")
		}
		err = shell.SaveFile(ctx, out, rs)
	case "csv":
		err = e.writeTo(out, func(w io.Writer) error { return codec.Encode(w, rs) })
	case "json":
		err = e.writeTo(out, func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			if rs == nil {
				rs = []record.Record{}
			}
			return enc.Encode(rs)
		})
	}
	if err != nil {
		return err
	}
	e.logger.Info("export complete", "out", out, "format", format, "records", len(rs))
	return nil
}

func view(st *store.Store, opts exportOptions) ([]record.Record, error) {
	if opts.hasRange {
		return st.RangeView(opts.min, opts.max)
	}
	if opts.sortKey == "" {
		return st.Snapshot(), nil
	}
	key, err := record.ParseKey(opts.sortKey)
	if err != nil {
		return nil, err
	}
	alg, err := sorting.ParseAlgorithm(opts.algorithm)
	if err != nil {
		return nil, err
	}
	return st.SortedView(key, alg, !opts.desc), nil
}

func exportFormat(out, format string) (string, error) {
	if format == "" {
		switch {
		case out == "-":
			format = "csv"
		case shell.IsSQLite(out):
			format = "sqlite"
		case strings.EqualFold(filepath.Ext(out), ".json"):
			format = "json"
		default:
			format = "csv"
		}
	}
	switch format = strings.ToLower(format); format {
	case "csv", "json", "sqlite":
		return format, nil
	}
	return "", fmt.Errorf("export: unknown format %q", format)
}

func (e *env) writeTo(path string, fn func(io.Writer) error) error {
	if path == "-" {
		return fn(e.out)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
