package shell

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prodstore/prodstore/internal/cdc"
	"github.com/prodstore/prodstore/internal/record"
	"github.com/prodstore/prodstore/internal/sorting"
)

const defaultHistory = 10

func (s *Session) cmdAdd(args []string) {
	r, err := parseRecord(args)
	if err != nil {
		s.out.errorf("add: %v", err)
		return
	}
	if err := s.store.Add(r); err != nil {
		s.out.errorf("%v", err)
		return
	}
	s.out.ok("added %s", r.ID)
}

func (s *Session) cmdGet(args []string) {
	if len(args) != 1 {
		s.wrongArgs("get")
		return
	}
	r, err := s.store.Find(args[0])
	if err != nil {
		s.out.errorf("%v", err)
		return
	}
	s.out.record(r)
}

func (s *Session) cmdUpdate(args []string) {
	r, err := parseRecord(args)
	if err != nil {
		s.out.errorf("update: %v", err)
		return
	}
	if err := s.store.Update(r.ID, r); err != nil {
		s.out.errorf("%v", err)
		return
	}
	s.out.ok("updated %s", r.ID)
}

func (s *Session) cmdDel(args []string) {
	if len(args) != 1 {
		s.wrongArgs("del")
		return
	}
	if err := s.store.Delete(args[0]); err != nil {
		s.out.errorf("%v", err)
		return
	}
	s.out.ok("deleted %s", args[0])
}

func (s *Session) cmdList(args []string) {
	if len(args) != 0 {
		s.wrongArgs("list")
		return
	}
	s.out.records(s.store.Snapshot())
}

// SORT key [merge|quick] [asc|desc]; the trailing options may come in
// either order.
func (s *Session) cmdSort(args []string) {
	if len(args) < 1 || len(args) > 3 {
		s.wrongArgs("sort")
		return
	}
	key, err := record.ParseKey(args[0])
	if err != nil {
		s.out.errorf("%v", err)
		return
	}
	alg, ascending := sorting.Merge, true
	for _, opt := range args[1:] {
		switch strings.ToLower(opt) {
		case "asc":
			ascending = true
		case "desc":
			ascending = false
		default:
			a, err := sorting.ParseAlgorithm(opt)
			if err != nil {
				s.out.errorf("%v", err)
				return
			}
			alg = a
		}
	}
	order := "ascending"
	if !ascending {
		order = "descending"
	}
	s.out.printf("Sorted by %s (%s, %s sort):\n", key, order, alg)
	s.out.records(s.store.SortedView(key, alg, ascending))
}

func (s *Session) cmdRange(args []string) {
	if len(args) != 2 {
		s.wrongArgs("range")
		return
	}
	lo, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		s.out.errorf("%v", argError("min", err))
		return
	}
	hi, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		s.out.errorf("%v", argError("max", err))
		return
	}
	rs, err := s.store.RangeView(lo, hi)
	if err != nil {
		s.out.errorf("%v", err)
		return
	}
	s.out.printf("Products priced %s to %s:\n", formatPrice(lo), formatPrice(hi))
	s.out.records(rs)
}

func (s *Session) cmdUndo(args []string) {
	if len(args) != 0 {
		s.wrongArgs("undo")
		return
	}
	eff, ok, err := s.store.Undo()
	switch {
	case err != nil:
		s.out.errorf("%v", err)
	case !ok:
		s.out.println("Nothing to undo.")
	default:
		s.out.ok("%s", eff)
	}
}

func (s *Session) cmdRedo(args []string) {
	if len(args) != 0 {
		s.wrongArgs("redo")
		return
	}
	eff, ok, err := s.store.Redo()
	switch {
	case err != nil:
		s.out.errorf("%v", err)
	case !ok:
		s.out.println("Nothing to redo.")
	default:
		s.out.ok("%s", eff)
	}
}

// cmdHistory handles HISTORY [JSON] [n] and HISTORY [JSON] SINCE seq.
func (s *Session) cmdHistory(args []string) {
	asJSON := len(args) > 0 && strings.EqualFold(args[0], "JSON")
	if asJSON {
		args = args[1:]
	}

	var events []cdc.Event
	switch {
	case len(args) == 0:
		events = s.store.Feed().Latest(defaultHistory)
	case len(args) == 1 && !strings.EqualFold(args[0], "SINCE"):
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			s.out.errorf("history: count must be a positive integer")
			return
		}
		events = s.store.Feed().Latest(n)
	case len(args) == 2 && strings.EqualFold(args[0], "SINCE"):
		seq, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			s.out.errorf("history: sequence must be a non-negative integer")
			return
		}
		events = s.store.Feed().Since(seq)
	default:
		s.wrongArgs("history")
		return
	}

	if len(events) == 0 {
		s.out.println("No changes.")
		return
	}
	if asJSON {
		for _, ev := range events {
			s.out.println(string(ev.JSON()))
		}
		return
	}
	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		cause := string(ev.Cause)
		if cause == "" {
			cause = "-"
		}
		rows = append(rows, []string{
			strconv.FormatUint(ev.ID, 10),
			time.UnixMilli(ev.Timestamp).Format(time.TimeOnly),
			string(ev.Op),
			ev.Key,
			cause,
		})
	}
	s.out.table([]string{"SEQ", "TIME", "OP", "ID", "CAUSE"}, rows)
}

func (s *Session) cmdSave(args []string) {
	path, ok := s.fileArg("save", args)
	if !ok {
		return
	}
	rs := s.store.Snapshot()
	if err := SaveFile(context.Background(), path, rs); err != nil {
		s.out.errorf("%v", err)
		return
	}
	s.logger.Info("saved", "path", path, "records", len(rs))
	s.out.ok("saved %d products to %s", len(rs), path)
}

func (s *Session) cmdLoad(args []string) {
	path, ok := s.fileArg("load", args)
	if !ok {
		return
	}
	rs, badRows, err := LoadFile(context.Background(), path)
	if err != nil {
		s.out.errorf("%v", err)
		return
	}
	for _, le := range badRows {
		s.out.warnf("%v, skipped", le)
	}
	s.restore(rs)
	s.logger.Info("loaded", "path", path, "records", s.store.Len(), "bad_lines", len(badRows))
	s.out.ok("loaded %d products from %s", s.store.Len(), path)
}

func (s *Session) restore(rs []record.Record) {
	rep := s.store.Restore(rs)
	for _, sk := range rep.Skipped {
		s.out.warnf("%v, skipped", sk)
	}
}

func (s *Session) fileArg(cmd string, args []string) (string, bool) {
	switch len(args) {
	case 0:
		if s.config.DefaultFile == "" {
			s.out.errorf("%s: no file named and no default file configured", cmd)
			return "", false
		}
		return s.config.DefaultFile, true
	case 1:
		return args[0], true
	}
	s.wrongArgs(cmd)
	return "", false
}

func (s *Session) cmdSnapshot(args []string) {
	if s.config.Snapshots == nil {
		s.out.errorf("snapshots are disabled")
		return
	}
	if len(args) == 0 {
		s.wrongArgs("snapshot")
		return
	}
	mgr := s.config.Snapshots
	sub, args := strings.ToUpper(args[0]), args[1:]

	switch sub {
	case "CREATE":
		if len(args) > 1 {
			s.wrongArgs("snapshot create")
			return
		}
		id := ""
		if len(args) == 1 {
			id = args[0]
		}
		meta, err := mgr.Create(id, s.store.Snapshot())
		if err != nil {
			s.out.errorf("%v", err)
			return
		}
		s.out.ok("snapshot %s (%d bytes)", meta.ID, meta.SizeBytes)

	case "LIST":
		metas, err := mgr.List()
		if err != nil {
			s.out.errorf("%v", err)
			return
		}
		if len(metas) == 0 {
			s.out.println("No snapshots.")
			return
		}
		rows := make([][]string, 0, len(metas))
		for _, m := range metas {
			rows = append(rows, []string{m.ID, m.CreatedAt.Format(time.DateTime), strconv.FormatInt(m.SizeBytes, 10)})
		}
		s.out.table([]string{"ID", "CREATED", "BYTES"}, rows)

	case "RESTORE":
		if len(args) != 1 {
			s.wrongArgs("snapshot restore")
			return
		}
		snap, err := mgr.Load(args[0])
		if err != nil {
			s.out.errorf("%v", err)
			return
		}
		s.restore(snap.Records)
		s.out.ok("restored %d products from snapshot %s", s.store.Len(), snap.ID)

	case "DELETE":
		if len(args) != 1 {
			s.wrongArgs("snapshot delete")
			return
		}
		if err := mgr.Delete(args[0]); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				s.out.errorf("no such snapshot %s", args[0])
				return
			}
			s.out.errorf("%v", err)
			return
		}
		s.out.ok("deleted snapshot %s", args[0])

	default:
		s.out.errorf("unknown snapshot subcommand '%s'", strings.ToLower(sub))
	}
}

func (s *Session) cmdStats(args []string) {
	if len(args) != 0 {
		s.wrongArgs("stats")
		return
	}
	st := s.store.Stats()
	s.out.kv([][2]string{
		{"records", strconv.Itoa(st.Records)},
		{"buckets", strconv.Itoa(st.Hash.Buckets)},
		{"used_buckets", strconv.Itoa(st.Hash.UsedBuckets)},
		{"longest_chain", strconv.Itoa(st.Hash.LongestChain)},
		{"tree_height", strconv.Itoa(st.TreeHeight)},
		{"undo_depth", strconv.Itoa(st.UndoDepth)},
		{"redo_depth", strconv.Itoa(st.RedoDepth)},
		{"changes", strconv.FormatUint(st.Feed.TotalEvents, 10)},
		{"tracked_ids", strconv.Itoa(st.TrackedIDs)},
	})
}

func (s *Session) cmdTop(args []string) {
	n := 0
	switch len(args) {
	case 0:
	case 1:
		v, err := strconv.Atoi(args[0])
		if err != nil || v <= 0 {
			s.out.errorf("top: count must be a positive integer")
			return
		}
		n = v
	default:
		s.wrongArgs("top")
		return
	}

	entries := s.store.Popular(n)
	if len(entries) == 0 {
		s.out.println("No lookups yet.")
		return
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.ID, strconv.FormatInt(e.Count, 10)})
	}
	s.out.table([]string{"ID", "LOOKUPS"}, rows)
}

func (s *Session) cmdCheck(args []string) {
	if len(args) != 0 {
		s.wrongArgs("check")
		return
	}
	if err := s.store.Verify(); err != nil {
		s.out.errorf("%v", err)
		return
	}
	s.out.ok("indexes consistent (%d records)", s.store.Len())
}
