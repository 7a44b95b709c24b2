package blockfile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"star/internal/fs"
)

// Archive is an open archive file. It is exclusively owned by one
// goroutine; every operation loads the allocation table, mutates the
// backing store and the table in memory, and persists the table back as
// its final step.
type Archive struct {
	file fs.File
	path string

	// Debugf, when non-nil, receives block-level placement narration.
	Debugf func(format string, args ...any)
}

// Source is one member input: a name and a way to open its content as a
// finite byte stream. A short final read signals end of stream.
type Source struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// Result is the per-member outcome of a multi-member operation. A nil
// Err means the member was processed; otherwise Err classifies the
// non-fatal failure (ErrNotFound, ErrSource, ErrNameTooLong) and the
// operation continued with the remaining members.
type Result struct {
	Name string
	Err  error
}

// Info describes one member for listings.
type Info struct {
	Name    string
	Size    uint64
	Blocks  int
	Offsets []uint64
}

// Stats summarizes an archive.
type Stats struct {
	Members   int
	FreeSlots int
	FileSize  int64
}

// Create creates or truncates the archive at path and writes a fresh
// allocation table.
func Create(fsys fs.FS, path string) (*Archive, error) {
	file, err := fsys.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating archive: %w", err)
	}

	a := &Archive{file: file, path: path}

	if err := a.file.Truncate(TableSize); err != nil {
		_ = file.Close()

		return nil, fmt.Errorf("sizing archive table: %w", err)
	}

	if err := a.store(freshTable()); err != nil {
		_ = file.Close()

		return nil, err
	}

	return a, nil
}

// Open opens an existing archive read-write and validates its table.
func Open(fsys fs.FS, path string) (*Archive, error) {
	file, err := fsys.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	a := &Archive{file: file, path: path}

	if _, _, err := a.load(); err != nil {
		_ = file.Close()

		return nil, err
	}

	return a, nil
}

// Path returns the archive's backing file path.
func (a *Archive) Path() string {
	return a.path
}

// Close closes the backing file. The archive must not be used after.
func (a *Archive) Close() error {
	if a.file == nil {
		return nil
	}

	file := a.file
	a.file = nil

	if err := file.Sync(); err != nil {
		_ = file.Close()

		return fmt.Errorf("syncing archive: %w", err)
	}

	return file.Close()
}

// load reads and validates the allocation table, returning it together
// with the current backing file length.
func (a *Archive) load() (*Table, int64, error) {
	if a.file == nil {
		return nil, 0, ErrClosed
	}

	buf := make([]byte, TableSize)

	if _, err := a.file.ReadAt(buf, 0); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, 0, fmt.Errorf("%w: file shorter than table", ErrCorrupt)
		}

		return nil, 0, fmt.Errorf("reading table: %w", err)
	}

	t, err := decodeTable(buf)
	if err != nil {
		return nil, 0, err
	}

	info, err := a.file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat archive: %w", err)
	}

	if err := validateTable(t, info.Size()); err != nil {
		return nil, 0, err
	}

	return t, info.Size(), nil
}

// store persists the allocation table at offset zero. It never
// truncates.
func (a *Archive) store(t *Table) error {
	if a.file == nil {
		return ErrClosed
	}

	if _, err := a.file.WriteAt(encodeTable(t), 0); err != nil {
		return fmt.Errorf("writing table: %w", err)
	}

	return nil
}

// List returns the directory in stored order.
func (a *Archive) List() ([]Info, error) {
	t, _, err := a.load()
	if err != nil {
		return nil, err
	}

	infos := make([]Info, len(t.Entries))
	for i := range t.Entries {
		e := &t.Entries[i]
		infos[i] = Info{
			Name:    e.Name,
			Size:    e.Size,
			Blocks:  len(e.Blocks),
			Offsets: append([]uint64(nil), e.Blocks...),
		}
	}

	return infos, nil
}

// Stats returns archive-level counters.
func (a *Archive) Stats() (Stats, error) {
	t, length, err := a.load()
	if err != nil {
		return Stats{}, err
	}

	return Stats{
		Members:   len(t.Entries),
		FreeSlots: freeSlots(t),
		FileSize:  length,
	}, nil
}

// Check reloads the allocation table and verifies every structural
// invariant, including block-offset disjointness across entries and the
// free list. It reports ErrCorrupt on violation and mutates nothing.
func (a *Archive) Check() error {
	_, _, err := a.load()

	return err
}

func (a *Archive) debugf(format string, args ...any) {
	if a.Debugf != nil {
		a.Debugf(format, args...)
	}
}

func findEntry(t *Table, name string) int {
	for i := range t.Entries {
		if t.Entries[i].Name == name {
			return i
		}
	}

	return -1
}
