package blockfile

import "fmt"

// SinkOpener opens a writable sink for one member name. The returned
// sink's Close commits the member (callers typically write to a temp
// file and rename into place on Close).
type SinkOpener func(name string) (Sink, error)

// Sink is a forward-only byte sink for one extracted member.
type Sink interface {
	Write(p []byte) (int, error)
	Close() error
}

// Extract writes every member's content through a sink obtained from
// open. Blocks are read in the entry's logical order; the trailing
// block is truncated to the member size, which hides on-disk padding.
//
// Sink failures are per-member and non-fatal. Read failures on the
// archive itself abort.
func (a *Archive) Extract(open SinkOpener) ([]Result, error) {
	t, _, err := a.load()
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(t.Entries))
	buf := make([]byte, BlockSize)

	for i := range t.Entries {
		e := &t.Entries[i]

		res, err := a.extractOne(e, open, buf)
		if err != nil {
			return nil, err
		}

		results = append(results, res)
	}

	return results, nil
}

func (a *Archive) extractOne(e *Entry, open SinkOpener, buf []byte) (Result, error) {
	sink, err := open(e.Name)
	if err != nil {
		return Result{Name: e.Name, Err: fmt.Errorf("%w: %w", ErrSource, err)}, nil
	}

	remaining := e.Size

	for i, off := range e.Blocks {
		if _, err := a.file.ReadAt(buf, int64(off)); err != nil {
			_ = sink.Close()

			return Result{}, fmt.Errorf("reading block at %d: %w", off, err)
		}

		n := uint64(BlockSize)
		if remaining < n {
			n = remaining
		}

		if _, err := sink.Write(buf[:n]); err != nil {
			_ = sink.Close()

			return Result{Name: e.Name, Err: fmt.Errorf("%w: %w", ErrSource, err)}, nil
		}

		remaining -= n

		a.debugf("extracted block %d of %q from %d", i+1, e.Name, off)
	}

	if err := sink.Close(); err != nil {
		return Result{Name: e.Name, Err: fmt.Errorf("%w: %w", ErrSource, err)}, nil
	}

	return Result{Name: e.Name}, nil
}
