// Package shell implements the interactive command session over a product
// store: one command per line, dispatched by name, replies written as text.
package shell

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/prodstore/prodstore/internal/logging"
	"github.com/prodstore/prodstore/internal/snapshot"
	"github.com/prodstore/prodstore/internal/store"
)

// Config holds session configuration.
type Config struct {
	// DefaultFile is used by SAVE and LOAD when no file is named.
	DefaultFile string
	// Snapshots backs the SNAPSHOT command. Nil disables it.
	Snapshots *snapshot.Manager
	// Prompt is written before each line is read. Empty means no prompt.
	Prompt string
	Logger *slog.Logger
}

// Session runs commands against a store.
type Session struct {
	store  *store.Store
	config Config
	out    *printer
	logger *slog.Logger
}

// New creates a Session writing its replies to w.
func New(st *store.Store, w io.Writer, cfg Config) *Session {
	return &Session{
		store:  st,
		config: cfg,
		out:    newPrinter(w),
		logger: logging.Default(cfg.Logger).With("component", "shell"),
	}
}

// Run reads commands from r until EXIT, end of input or ctx is done.
func (s *Session) Run(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if s.config.Prompt != "" {
			s.out.printf("%s", s.config.Prompt)
		}
		if !sc.Scan() {
			return sc.Err()
		}
		if quit := s.Execute(sc.Text()); quit {
			return nil
		}
	}
}

// Execute runs a single command line. It reports true when the session
// should end.
func (s *Session) Execute(line string) bool {
	args, err := splitArgs(line)
	if err != nil {
		s.out.errorf("%v", err)
		return false
	}
	if len(args) == 0 {
		return false
	}

	cmd := strings.ToUpper(args[0])
	args = args[1:]
	s.logger.Debug("command", "name", cmd, "args", len(args))

	switch cmd {
	// Records
	case "ADD":
		s.cmdAdd(args)
	case "GET", "FIND":
		s.cmdGet(args)
	case "UPDATE":
		s.cmdUpdate(args)
	case "DEL", "DELETE":
		s.cmdDel(args)

	// Views
	case "LIST":
		s.cmdList(args)
	case "SORT":
		s.cmdSort(args)
	case "RANGE":
		s.cmdRange(args)

	// History
	case "UNDO":
		s.cmdUndo(args)
	case "REDO":
		s.cmdRedo(args)
	case "HISTORY":
		s.cmdHistory(args)

	// Files
	case "SAVE":
		s.cmdSave(args)
	case "LOAD":
		s.cmdLoad(args)
	case "SNAPSHOT":
		s.cmdSnapshot(args)

	// Introspection
	case "STATS":
		s.cmdStats(args)
	case "CHECK":
		s.cmdCheck(args)
	case "TOP":
		s.cmdTop(args)
	case "HELP":
		s.cmdHelp()
	case "EXIT", "QUIT":
		s.out.println("Bye")
		return true
	default:
		s.out.errorf("unknown command '%s'", strings.ToLower(cmd))
	}
	return false
}

// Load replaces the store contents with the catalogue at path, replying
// exactly as the LOAD command does.
func (s *Session) Load(path string) {
	s.cmdLoad([]string{path})
}

func (s *Session) wrongArgs(cmd string) {
	s.out.errorf("wrong number of arguments for '%s' command", cmd)
}

const helpText = `Commands:
  ADD id name category price rating stock sales
  GET id
  UPDATE id name category price rating stock sales
  DEL id
  LIST
  SORT price|rating|sales [merge|quick] [asc|desc]
  RANGE min max
  UNDO | REDO
  HISTORY [JSON] [n] | HISTORY [JSON] SINCE seq
  SAVE [file] | LOAD [file]      (.db files use SQLite)
  SNAPSHOT CREATE [id] | LIST | RESTORE id | DELETE id
  TOP [n]                        (most looked-up products)
  STATS | CHECK | HELP | EXIT
Quote arguments containing spaces: ADD P-1 "Desk Lamp" home 24.5 4.2 10 300`

func (s *Session) cmdHelp() {
	s.out.println(helpText)
}
