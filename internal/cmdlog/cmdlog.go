// Package cmdlog records reversible store mutations on an undo stack and a
// redo stack.
//
// The log never touches the indexes itself. The store applies the effect of
// every command it pops, through mutators that do not record again.
package cmdlog

import (
	"fmt"

	"github.com/prodstore/prodstore/internal/record"
)

// Kind is the type of mutation a Command records.
type Kind int

const (
	Add Kind = iota + 1
	Update
	Delete
)

func (k Kind) String() string {
	switch k {
	case Add:
		return "ADD"
	case Update:
		return "UPDATE"
	case Delete:
		return "DELETE"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Command is one reversible mutation.
//
// After is the value the mutation produced (for Delete, the removed record).
// Before is the value it replaced; for Add it is the zero Record, whose
// empty ID never matches a stored record.
type Command struct {
	Kind   Kind
	After  record.Record
	Before record.Record
}

// HasBefore reports whether c carries a prior value.
func (c Command) HasBefore() bool { return c.Before.ID != "" }

// Inverse returns the command that undoes c.
func (c Command) Inverse() Command {
	switch c.Kind {
	case Add:
		return Command{Kind: Delete, After: c.After, Before: c.After}
	case Delete:
		return Command{Kind: Add, After: c.Before}
	case Update:
		return Command{Kind: Update, After: c.Before, Before: c.After}
	}
	return c
}

func (c Command) String() string {
	return fmt.Sprintf("%s %s", c.Kind, c.After.ID)
}

// Log holds the undo and redo stacks, most recent command last.
// It is not safe for concurrent use.
type Log struct {
	undo []Command
	redo []Command
}

// New returns an empty log.
func New() *Log {
	return &Log{}
}

// Record pushes a newly performed command onto the undo stack and clears
// the redo stack, whose commands no longer lead to a reachable state.
func (l *Log) Record(c Command) {
	l.undo = append(l.undo, c)
	l.redo = l.redo[:0]
}

// Undo pops the most recent command, pushes its inverse onto the redo
// stack and returns the popped command. The caller applies c.Inverse().
func (l *Log) Undo() (Command, bool) {
	c, ok := pop(&l.undo)
	if !ok {
		return Command{}, false
	}
	l.redo = append(l.redo, c.Inverse())
	return c, true
}

// Redo pops the most recently undone command and returns the command to
// re-apply, i.e. the original mutation. The caller applies it and hands it
// back with PushUndo.
func (l *Log) Redo() (Command, bool) {
	c, ok := pop(&l.redo)
	if !ok {
		return Command{}, false
	}
	return c.Inverse(), true
}

// PushUndo pushes a re-applied command onto the undo stack without
// clearing the redo stack.
func (l *Log) PushUndo(c Command) {
	l.undo = append(l.undo, c)
}

// Len returns the depths of the undo and redo stacks.
func (l *Log) Len() (undo, redo int) {
	return len(l.undo), len(l.redo)
}

// Clear empties both stacks.
func (l *Log) Clear() {
	l.undo = nil
	l.redo = nil
}

func pop(s *[]Command) (Command, bool) {
	n := len(*s)
	if n == 0 {
		return Command{}, false
	}
	c := (*s)[n-1]
	*s = (*s)[:n-1]
	return c, true
}
