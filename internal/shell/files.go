package shell

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/prodstore/prodstore/internal/codec"
	"github.com/prodstore/prodstore/internal/record"
	"github.com/prodstore/prodstore/internal/snapshot"
)

// IsSQLite reports whether path names a SQLite catalogue rather than a
// delimited text one.
func IsSQLite(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// LoadFile reads a catalogue file. Text files may report lines that were
// skipped; SQLite files never do.
func LoadFile(ctx context.Context, path string) ([]record.Record, []*codec.LineError, error) {
	if IsSQLite(path) {
		rs, err := snapshot.ImportSQLite(ctx, path)
		return rs, nil, err
	}
	return codec.Load(path)
}

// SaveFile writes rs to path, creating its directory if needed.
func SaveFile(ctx context.Context, path string, rs []record.Record) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if IsSQLite(path) {
		return snapshot.ExportSQLite(ctx, path, rs)
	}
	return codec.Save(path, rs)
}
