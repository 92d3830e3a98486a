package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodstore/prodstore/internal/cdc"
	"github.com/prodstore/prodstore/internal/snapshot"
	"github.com/prodstore/prodstore/internal/store"
)

type harness struct {
	t     *testing.T
	st    *store.Store
	sess  *Session
	out   *bytes.Buffer
	snaps *snapshot.Manager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	mgr, err := snapshot.NewManager(filepath.Join(dir, "snapshots"))
	require.NoError(t, err)

	st := store.New()
	out := &bytes.Buffer{}
	sess := New(st, out, Config{
		DefaultFile: filepath.Join(dir, "data", "products.csv"),
		Snapshots:   mgr,
	})
	return &harness{t: t, st: st, sess: sess, out: out, snaps: mgr}
}

func (h *harness) exec(line string) string {
	h.t.Helper()
	h.out.Reset()
	h.sess.Execute(line)
	return h.out.String()
}

func (h *harness) seed() {
	h.t.Helper()
	for _, line := range []string{
		`ADD P-1 "Desk Lamp" home 24.5 4.2 10 300`,
		`ADD P-2 Cable electronics 5 3.9 100 1200`,
		`ADD P-3 Monitor electronics 199.99 4.8 3 42`,
	} {
		require.Equal(h.t, "OK added "+strings.Fields(line)[1]+"\n", h.exec(line))
	}
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"get P-1", []string{"get", "P-1"}},
		{"  add  a\tb ", []string{"add", "a", "b"}},
		{`add P-1 "Desk Lamp" home`, []string{"add", "P-1", "Desk Lamp", "home"}},
		{`add P-1 "" home`, []string{"add", "P-1", "", "home"}},
		{`add "say \"hi\""`, []string{"add", `say "hi"`}},
		{`x ab"c d"e`, []string{"x", "abc de"}},
	}
	for _, tt := range tests {
		got, err := splitArgs(tt.line)
		require.NoError(t, err, tt.line)
		assert.Equal(t, tt.want, got, tt.line)
	}

	_, err := splitArgs(`add "open`)
	assert.ErrorIs(t, err, errUnterminatedQuote)
}

func TestAddGetDelete(t *testing.T) {
	h := newHarness(t)
	h.seed()

	out := h.exec("get P-1")
	assert.Contains(t, out, "Desk Lamp")
	assert.Contains(t, out, "$24.50")
	assert.Contains(t, out, "4.2")

	assert.Equal(t, "OK deleted P-1\n", h.exec("del P-1"))
	assert.Contains(t, h.exec("get P-1"), "ERR store: not found")
	assert.Contains(t, h.exec("del P-1"), "ERR store: not found")
	assert.Equal(t, 2, h.st.Len())
}

func TestAdd_Errors(t *testing.T) {
	h := newHarness(t)
	h.seed()

	assert.Contains(t, h.exec("add P-9 short"), "ERR add: expected 7 fields")
	assert.Contains(t, h.exec("add P-9 n c abc 1 1 1"), "ERR add: invalid price")
	assert.Contains(t, h.exec("add P-9 n c 1 1 1.5 1"), "ERR add: invalid stock")
	assert.Contains(t, h.exec("add P-9 n c 1 6 1 1"), "ERR record: invalid rating")
	assert.Contains(t, h.exec("add P-9 n c -1 1 1 1"), "ERR record: invalid price")
	assert.Contains(t, h.exec("add bad/id n c 1 1 1 1"), "ERR record: invalid id")
	assert.Contains(t, h.exec("add P-1 n c 1 1 1 1"), "ERR store: duplicate key: P-1")
	assert.Contains(t, h.exec("get"), "ERR wrong number of arguments for 'get' command")
	assert.Contains(t, h.exec("get bad/id"), "ERR record: invalid id")
	assert.Equal(t, 3, h.st.Len())
}

func TestUpdate(t *testing.T) {
	h := newHarness(t)
	h.seed()

	assert.Equal(t, "OK updated P-2\n", h.exec(`update P-2 "Cable, braided" electronics 7.25 4 90 1300`))
	r, err := h.st.Find("P-2")
	require.NoError(t, err)
	assert.Equal(t, "Cable, braided", r.Name)
	assert.Equal(t, 7.25, r.Price)

	assert.Contains(t, h.exec("update P-404 n c 1 1 1 1"), "ERR store: not found")
}

func TestListSortRange(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "No products.\n", h.exec("list"))
	h.seed()

	out := h.exec("list")
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "(3 products)")

	out = h.exec("sort price quick desc")
	assert.Contains(t, out, "Sorted by price (descending, quick sort)")
	assertOrder(t, out, "P-3", "P-1", "P-2")

	out = h.exec("sort sales")
	assertOrder(t, out, "P-3", "P-1", "P-2")

	assert.Contains(t, h.exec("sort weight"), "ERR record: unknown sort key")
	assert.Contains(t, h.exec("sort price bubble"), "ERR sorting: unknown algorithm")

	out = h.exec("range 5 24.5")
	assert.Contains(t, out, "(2 products)")
	assertOrder(t, out, "P-2", "P-1")
	assert.NotContains(t, out, "P-3")

	assert.Contains(t, h.exec("range 10 1"), "ERR store: invalid range")
	assert.Contains(t, h.exec("range -1 1"), "ERR store: invalid range")
	assert.Contains(t, h.exec("range x 1"), "ERR invalid min")
}

func assertOrder(t *testing.T, out string, ids ...string) {
	t.Helper()
	last := -1
	for _, id := range ids {
		i := strings.Index(out, id)
		require.GreaterOrEqual(t, i, 0, "%s missing", id)
		assert.Greater(t, i, last, "%s out of order", id)
		last = i
	}
}

func TestUndoRedo(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "Nothing to undo.\n", h.exec("undo"))
	assert.Equal(t, "Nothing to redo.\n", h.exec("redo"))

	h.exec("add P-1 Lamp home 10 4 1 1")
	h.exec("update P-1 Lamp home 12 4 1 1")

	assert.Equal(t, "OK undo UPDATE P-1 (applied UPDATE)\n", h.exec("undo"))
	r, err := h.st.Find("P-1")
	require.NoError(t, err)
	assert.Equal(t, 10.0, r.Price)

	assert.Equal(t, "OK undo ADD P-1 (applied DELETE)\n", h.exec("undo"))
	assert.Equal(t, 0, h.st.Len())
	assert.Equal(t, "Nothing to undo.\n", h.exec("undo"))

	assert.Equal(t, "OK redo ADD P-1 (applied ADD)\n", h.exec("redo"))
	assert.Equal(t, 1, h.st.Len())

	// A new mutation discards what could still be redone.
	h.exec("del P-1")
	assert.Equal(t, "Nothing to redo.\n", h.exec("redo"))
	assert.Equal(t, "OK indexes consistent (0 records)\n", h.exec("check"))
}

func TestHistory(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "No changes.\n", h.exec("history"))

	h.exec("add P-1 Lamp home 10 4 1 1")
	h.exec("undo")

	out := h.exec("history")
	assert.Contains(t, out, "ADD")
	assert.Contains(t, out, "DELETE")
	assert.Contains(t, out, "undo")

	out = h.exec("history 1")
	assert.NotContains(t, out, "ADD")
	assert.Contains(t, h.exec("history 0"), "ERR history")
}

func TestHistory_Since(t *testing.T) {
	h := newHarness(t)
	h.exec("add P-1 Lamp home 10 4 1 1")
	h.exec("add P-2 Desk home 90 4 1 1")
	h.exec("del P-1")

	lines := strings.Split(strings.TrimSpace(h.exec("history since 1")), "\n")
	require.Len(t, lines, 3, "header plus two events")
	assert.True(t, strings.HasPrefix(lines[1], "2 "), lines[1])
	assert.Contains(t, lines[1], "P-2")
	assert.True(t, strings.HasPrefix(lines[2], "3 "), lines[2])
	assert.Contains(t, lines[2], "DELETE")

	assert.Equal(t, "No changes.\n", h.exec("history since 3"))
	assert.Contains(t, h.exec("history since x"), "ERR history: sequence")
	assert.Contains(t, h.exec("history since"), "ERR wrong number of arguments")
}

func TestHistory_JSON(t *testing.T) {
	h := newHarness(t)
	h.exec("add P-1 Lamp home 10 4 1 1")
	h.exec("undo")

	lines := strings.Split(strings.TrimSpace(h.exec("history json since 0")), "\n")
	require.Len(t, lines, 2)

	var first, second cdc.Event
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, uint64(1), first.ID)
	assert.Equal(t, cdc.OpAdd, first.Op)
	assert.Equal(t, "Lamp", first.Record.Name)
	assert.Equal(t, cdc.OpDelete, second.Op)
	assert.Equal(t, cdc.CauseUndo, second.Cause)

	assert.Len(t, strings.Split(strings.TrimSpace(h.exec("history json 1")), "\n"), 1)
}

func TestSaveLoad(t *testing.T) {
	for _, name := range []string{"catalogue.csv", "catalogue.db"} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			h.seed()
			path := filepath.Join(t.TempDir(), name)

			assert.Equal(t, "OK saved 3 products to "+path+"\n", h.exec("save "+path))
			h.exec("del P-1")
			h.exec("del P-2")

			assert.Equal(t, "OK loaded 3 products from "+path+"\n", h.exec("load "+path))
			assert.Equal(t, 3, h.st.Len())
			assert.Equal(t, "Nothing to undo.\n", h.exec("undo"))
		})
	}
}

func TestSaveLoad_DefaultFile(t *testing.T) {
	h := newHarness(t)
	h.seed()
	assert.Contains(t, h.exec("save"), "OK saved 3 products")
	assert.FileExists(t, h.sess.config.DefaultFile)

	h.exec("del P-3")
	assert.Contains(t, h.exec("load"), "OK loaded 3 products")
}

func TestLoad_SkipsBadLines(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "in.csv")
	content := "P-1,Lamp,home,10,4,1,1\n" +
		"P-2,short\n" +
		"P-3,Bad,home,x,4,1,1\n" +
		"P-4,Rated,home,10,9,1,1\n" +
		"P-1,Dup,home,10,4,1,1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	out := h.exec("load " + path)
	assert.Contains(t, out, "WARN codec: line 2")
	assert.Contains(t, out, "WARN codec: line 3")
	assert.Contains(t, out, `"P-4"`)
	assert.Contains(t, out, "duplicate key")
	assert.Contains(t, out, "OK loaded 1 products")

	assert.Contains(t, h.exec("load "+filepath.Join(t.TempDir(), "missing.csv")), "ERR codec: open")
}

func TestSnapshot(t *testing.T) {
	h := newHarness(t)
	h.seed()

	assert.Equal(t, "No snapshots.\n", h.exec("snapshot list"))
	assert.Contains(t, h.exec("snapshot create s1"), "OK snapshot s1")
	assert.Contains(t, h.exec("snapshot list"), "s1")

	h.exec("del P-1")
	h.exec("del P-2")
	assert.Equal(t, "OK restored 3 products from snapshot s1\n", h.exec("snapshot restore s1"))
	assert.Equal(t, 3, h.st.Len())

	assert.Equal(t, "OK deleted snapshot s1\n", h.exec("snapshot delete s1"))
	assert.Equal(t, "ERR no such snapshot s1\n", h.exec("snapshot delete s1"))
	assert.Contains(t, h.exec("snapshot restore s1"), "ERR")
	assert.Contains(t, h.exec("snapshot frob"), "ERR unknown snapshot subcommand 'frob'")
}

func TestSnapshot_Disabled(t *testing.T) {
	out := &bytes.Buffer{}
	sess := New(store.New(), out, Config{})
	sess.Execute("snapshot list")
	assert.Equal(t, "ERR snapshots are disabled\n", out.String())

	out.Reset()
	sess.Execute("save")
	assert.Contains(t, out.String(), "ERR save: no file named")
}

func TestStats(t *testing.T) {
	h := newHarness(t)
	h.seed()
	out := h.exec("stats")
	assert.Contains(t, out, "records:")
	assert.Contains(t, out, "buckets:")
	assert.Contains(t, out, "undo_depth:")
	assert.Regexp(t, `tracked_ids:\s+0\n`, out)

	h.exec("get P-1")
	h.exec("get P-2")
	h.exec("get P-404")
	assert.Regexp(t, `tracked_ids:\s+2\n`, h.exec("stats"))
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "ERR unknown command 'frobnicate'\n", h.exec("FROBNICATE"))
	assert.Equal(t, "", h.exec("   "))
	assert.Equal(t, "ERR unterminated quote\n", h.exec(`add "x`))
	assert.Contains(t, h.exec("help"), "Commands:")
}

func TestRun(t *testing.T) {
	h := newHarness(t)
	h.sess.config.Prompt = "> "
	in := strings.NewReader("add P-1 Lamp home 10 4 1 1\nexit\nadd P-2 Cable home 1 1 1 1\n")

	require.NoError(t, h.sess.Run(context.Background(), in))
	assert.Equal(t, 1, h.st.Len())
	assert.Contains(t, h.out.String(), "> OK added P-1")
	assert.Contains(t, h.out.String(), "Bye")
}

func TestRun_EOFAndCancel(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.sess.Run(context.Background(), strings.NewReader("add P-1 Lamp home 10 4 1 1")))
	assert.Equal(t, 1, h.st.Len())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := h.sess.Run(ctx, strings.NewReader("del P-1\n"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, h.st.Len())
}

func TestTop(t *testing.T) {
	h := newHarness(t)
	h.seed()
	assert.Equal(t, "No lookups yet.\n", h.exec("top"))

	h.exec("get P-3")
	h.exec("get P-3")
	h.exec("get P-1")

	out := h.exec("top 1")
	assert.Contains(t, out, "LOOKUPS")
	assert.Contains(t, out, "P-3")
	assert.NotContains(t, out, "P-1")
	assert.Contains(t, h.exec("top x"), "ERR top")
}
