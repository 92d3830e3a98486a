package cmdlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodstore/prodstore/internal/record"
)

var (
	a  = record.Record{ID: "a", Name: "A", Price: 1}
	a2 = record.Record{ID: "a", Name: "A2", Price: 2}
)

func TestCommand_Inverse(t *testing.T) {
	add := Command{Kind: Add, After: a}
	assert.False(t, add.HasBefore())
	assert.Equal(t, Command{Kind: Delete, After: a, Before: a}, add.Inverse())
	assert.Equal(t, add, add.Inverse().Inverse())

	upd := Command{Kind: Update, After: a2, Before: a}
	assert.Equal(t, Command{Kind: Update, After: a, Before: a2}, upd.Inverse())
	assert.Equal(t, upd, upd.Inverse().Inverse())

	del := Command{Kind: Delete, After: a, Before: a}
	assert.Equal(t, Command{Kind: Add, After: a}, del.Inverse())
	assert.Equal(t, del, del.Inverse().Inverse())
}

func TestLog_Empty(t *testing.T) {
	l := New()
	_, ok := l.Undo()
	assert.False(t, ok)
	_, ok = l.Redo()
	assert.False(t, ok)
}

func TestLog_UndoRedo(t *testing.T) {
	l := New()
	add := Command{Kind: Add, After: a}
	upd := Command{Kind: Update, After: a2, Before: a}
	l.Record(add)
	l.Record(upd)

	c, ok := l.Undo()
	require.True(t, ok)
	assert.Equal(t, upd, c)
	u, r := l.Len()
	assert.Equal(t, 1, u)
	assert.Equal(t, 1, r)

	c, ok = l.Redo()
	require.True(t, ok)
	assert.Equal(t, upd, c, "redo returns the original command")
	l.PushUndo(c)

	u, r = l.Len()
	assert.Equal(t, 2, u)
	assert.Equal(t, 0, r)
}

func TestLog_PushUndoKeepsRedo(t *testing.T) {
	l := New()
	l.Record(Command{Kind: Add, After: a})
	l.Record(Command{Kind: Update, After: a2, Before: a})
	l.Undo()
	l.Undo()

	c, _ := l.Redo()
	l.PushUndo(c)
	_, r := l.Len()
	assert.Equal(t, 1, r)
}

func TestLog_RecordClearsRedo(t *testing.T) {
	l := New()
	l.Record(Command{Kind: Add, After: a})
	l.Undo()
	l.Record(Command{Kind: Add, After: a2})

	_, ok := l.Redo()
	assert.False(t, ok)
}

func TestLog_Clear(t *testing.T) {
	l := New()
	l.Record(Command{Kind: Add, After: a})
	l.Undo()
	l.Clear()
	u, r := l.Len()
	assert.Zero(t, u)
	assert.Zero(t, r)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "ADD", Add.String())
	assert.Equal(t, "UPDATE", Update.String())
	assert.Equal(t, "DELETE", Delete.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}
