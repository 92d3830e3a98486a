// Package snapshot stores point-in-time copies of the product catalogue.
// Each snapshot is one file: a msgpack body compressed with zstd.
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/prodstore/prodstore/internal/record"
)

const ext = ".snap"

// ErrInvalidID is returned for snapshot ids that could escape the directory.
var ErrInvalidID = errors.New("snapshot: invalid id")

// Snapshot is the full catalogue captured at a moment in time.
type Snapshot struct {
	ID        string          `msgpack:"id"`
	CreatedAt time.Time       `msgpack:"created_at"`
	Records   []record.Record `msgpack:"records"`
}

// Meta describes a snapshot without loading the full data.
type Meta struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	SizeBytes int64     `json:"size_bytes"`
	FilePath  string    `json:"file_path"`
}

// Manager handles snapshot CRUD backed by a directory on disk.
type Manager struct {
	dir string
}

// NewManager creates a Manager that stores snapshots in dir.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot: mkdir %s: %w", dir, err)
	}
	return &Manager{dir: dir}, nil
}

// Create writes a snapshot of rs. An empty id gets a random one.
// The body is written to a temporary file that is renamed into place, so a
// failed Create leaves neither a partial file nor a damaged older snapshot
// with the same id.
func (m *Manager) Create(id string, rs []record.Record) (Meta, error) {
	if id == "" {
		id = uuid.NewString()
	}
	path, err := m.path(id)
	if err != nil {
		return Meta{}, err
	}
	snap := Snapshot{ID: id, CreatedAt: time.Now().UTC(), Records: rs}

	f, err := os.CreateTemp(m.dir, id+ext+".tmp-*")
	if err != nil {
		return Meta{}, fmt.Errorf("snapshot: create file: %w", err)
	}
	tmp := f.Name()
	done := false
	defer func() {
		if !done {
			f.Close()
			os.Remove(tmp)
		}
	}()

	size, err := encode(f, &snap)
	if err != nil {
		return Meta{}, err
	}
	if err := f.Close(); err != nil {
		return Meta{}, fmt.Errorf("snapshot: close: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return Meta{}, fmt.Errorf("snapshot: rename: %w", err)
	}
	done = true

	return Meta{
		ID:        id,
		CreatedAt: snap.CreatedAt,
		SizeBytes: size,
		FilePath:  path,
	}, nil
}

// encode writes snap to f and returns the resulting file size.
func encode(f *os.File, snap *Snapshot) (int64, error) {
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return 0, fmt.Errorf("snapshot: zstd writer: %w", err)
	}
	if err := msgpack.NewEncoder(zw).Encode(snap); err != nil {
		zw.Close()
		return 0, fmt.Errorf("snapshot: encode: %w", err)
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("snapshot: flush: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("snapshot: stat: %w", err)
	}
	return info.Size(), nil
}

// List returns metadata for all snapshots, sorted newest first.
func (m *Manager) List() ([]Meta, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("snapshot: list dir: %w", err)
	}

	var metas []Meta
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		metas = append(metas, Meta{
			ID:        strings.TrimSuffix(e.Name(), ext),
			CreatedAt: info.ModTime(),
			SizeBytes: info.Size(),
			FilePath:  filepath.Join(m.dir, e.Name()),
		})
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].CreatedAt.After(metas[j].CreatedAt)
	})
	return metas, nil
}

// Load reads and decodes a snapshot by id.
func (m *Manager) Load(id string) (*Snapshot, error) {
	path, err := m.path(id)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", id, err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f, zstd.WithDecoderMaxMemory(256<<20))
	if err != nil {
		return nil, fmt.Errorf("snapshot: zstd reader %s: %w", id, err)
	}
	defer zr.Close()

	var snap Snapshot
	if err := msgpack.NewDecoder(zr).Decode(&snap); err != nil {
		return nil, fmt.Errorf("snapshot: decode %s: %w", id, err)
	}
	return &snap, nil
}

// Delete removes a snapshot by id.
func (m *Manager) Delete(id string) error {
	path, err := m.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("snapshot: delete %s: %w", id, err)
	}
	return nil
}

func (m *Manager) path(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return filepath.Join(m.dir, id+ext), nil
}
