package blockfile

import "fmt"

// acquireBlock hands out one block offset for a write. It claims the
// first live slot in the free list; when the list holds nothing usable
// it grows the backing file by one block and retries exactly once.
func (a *Archive) acquireBlock(t *Table) (uint64, error) {
	if off, ok := claimFree(t); ok {
		return off, nil
	}

	if err := a.expand(t); err != nil {
		return 0, err
	}

	off, ok := claimFree(t)
	if !ok {
		// expand just pushed an offset; only a zero-length push bug
		// could land here.
		return 0, fmt.Errorf("%w: no free slot after expand", ErrCorrupt)
	}

	return off, nil
}

// claimFree scans for the first non-tombstone slot and claims it by
// writing the tombstone in place. Claimed slots are not compacted, so
// the list may contain holes until release compacts under pressure.
func claimFree(t *Table) (uint64, bool) {
	for i, off := range t.Free {
		if off != 0 {
			t.Free[i] = 0

			return off, true
		}
	}

	return 0, false
}

// expand grows the backing file by one block and pushes the old end of
// file onto the free list.
func (a *Archive) expand(t *Table) error {
	info, err := a.file.Stat()
	if err != nil {
		return fmt.Errorf("stat archive: %w", err)
	}

	length := info.Size()

	if err := a.file.Truncate(length + BlockSize); err != nil {
		return fmt.Errorf("growing archive to %d: %w", length+BlockSize, err)
	}

	a.debugf("expanded archive, new block at %d", length)

	return pushFree(t, uint64(length))
}

// releaseBlock returns off to the free list, for blocks freed by delete
// and update.
func releaseBlock(t *Table, off uint64) error {
	return pushFree(t, off)
}

// pushFree appends off to the free list. On pressure it first compacts
// tombstones left by earlier claims; if the list is full of live
// offsets even then, the push fails.
func pushFree(t *Table, off uint64) error {
	if len(t.Free) == FreeListCap {
		compactFree(t)
	}

	if len(t.Free) == FreeListCap {
		return ErrFreeListFull
	}

	t.Free = append(t.Free, off)

	return nil
}

func compactFree(t *Table) {
	live := t.Free[:0]

	for _, off := range t.Free {
		if off != 0 {
			live = append(live, off)
		}
	}

	t.Free = live
}

// freeSlots counts live (non-tombstone) free-list slots.
func freeSlots(t *Table) int {
	n := 0

	for _, off := range t.Free {
		if off != 0 {
			n++
		}
	}

	return n
}
