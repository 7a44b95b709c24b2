package blockfile

import (
	"errors"
	"fmt"
	"io"
)

// Append streams each source into the archive. A source whose name is
// already present is added onto that member: its content starts on a
// fresh block after the member's existing blocks, and the member size
// grows by the bytes read. Zero padding in the member's old last block
// stays in place, so extraction yields an exact concatenation only when
// the member ended on a block boundary. Otherwise a new directory entry
// is created. An empty source still creates its entry, with size zero
// and no blocks.
//
// Sources that cannot be opened or read are reported per member and the
// operation continues. Structural and archive I/O errors abort without
// persisting the table.
func (a *Archive) Append(sources []Source) ([]Result, error) {
	t, _, err := a.load()
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(sources))

	for _, src := range sources {
		res, err := a.appendOne(t, src)
		if err != nil {
			return nil, err
		}

		results = append(results, res)
	}

	if err := a.store(t); err != nil {
		return nil, err
	}

	return results, nil
}

// Update replaces the content of each named member with the content of
// its source. The member keeps its directory position; its old blocks
// go back to the free list before the new content is streamed.
func (a *Archive) Update(sources []Source) ([]Result, error) {
	t, _, err := a.load()
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(sources))

	for _, src := range sources {
		res, err := a.updateOne(t, src)
		if err != nil {
			return nil, err
		}

		results = append(results, res)
	}

	if err := a.store(t); err != nil {
		return nil, err
	}

	return results, nil
}

func (a *Archive) appendOne(t *Table, src Source) (Result, error) {
	if len(src.Name) > MaxNameLen {
		return Result{Name: src.Name, Err: ErrNameTooLong}, nil
	}

	r, err := src.Open()
	if err != nil {
		return Result{Name: src.Name, Err: fmt.Errorf("%w: %w", ErrSource, err)}, nil
	}
	defer func() { _ = r.Close() }()

	idx := findEntry(t, src.Name)
	if idx < 0 {
		if len(t.Entries) == MaxEntries {
			return Result{}, fmt.Errorf("%w: adding %q", ErrTableFull, src.Name)
		}

		t.Entries = append(t.Entries, Entry{Name: src.Name})
		idx = len(t.Entries) - 1
	}

	return a.stream(t, idx, src.Name, r)
}

func (a *Archive) updateOne(t *Table, src Source) (Result, error) {
	idx := findEntry(t, src.Name)
	if idx < 0 {
		return Result{Name: src.Name, Err: ErrNotFound}, nil
	}

	// Open before releasing: an unreadable source must leave the member
	// untouched, not stripped of its blocks.
	r, err := src.Open()
	if err != nil {
		return Result{Name: src.Name, Err: fmt.Errorf("%w: %w", ErrSource, err)}, nil
	}
	defer func() { _ = r.Close() }()

	e := &t.Entries[idx]

	for _, off := range e.Blocks {
		if err := releaseBlock(t, off); err != nil {
			return Result{}, err
		}

		a.debugf("released block at %d from %q", off, e.Name)
	}

	e.Blocks = e.Blocks[:0]
	e.Size = 0

	return a.stream(t, idx, src.Name, r)
}

// stream reads block-sized chunks from r into freshly acquired blocks,
// growing the entry at idx. The trailing short chunk is zero padded on
// disk; only real bytes count toward the member size.
func (a *Archive) stream(t *Table, idx int, name string, r io.Reader) (Result, error) {
	buf := make([]byte, BlockSize)

	for {
		n, err := io.ReadFull(r, buf)
		if errors.Is(err, io.EOF) {
			break
		}

		short := errors.Is(err, io.ErrUnexpectedEOF)
		if err != nil && !short {
			return Result{Name: name, Err: fmt.Errorf("%w: %w", ErrSource, err)}, nil
		}

		e := &t.Entries[idx]
		if len(e.Blocks) == MaxBlocksPerEntry {
			return Result{}, fmt.Errorf("%w: member %q", ErrEntryFull, name)
		}

		pos, err := a.acquireBlock(t)
		if err != nil {
			return Result{}, err
		}

		for i := n; i < BlockSize; i++ {
			buf[i] = 0
		}

		if _, err := a.file.WriteAt(buf, int64(pos)); err != nil {
			return Result{}, fmt.Errorf("writing block at %d: %w", pos, err)
		}

		e.Blocks = append(e.Blocks, pos)
		e.Size += uint64(n)

		a.debugf("wrote block %d of %q at %d (%d bytes)", len(e.Blocks), name, pos, n)

		if short {
			break
		}
	}

	return Result{Name: name}, nil
}
