package blockfile

import "fmt"

// Pack defragments the archive: live blocks are moved to a contiguous
// prefix of the block region in directory order and per-member logical
// order, the free list is emptied, and the backing file is truncated to
// the last live block.
//
// Every block is read fully into memory before being written. A block
// already in place is skipped. When the destination of a move is still
// occupied by a block that has not had its turn yet (a freed slot early
// in the region was reused by a later member), the occupant is first
// evacuated to staging space past the old end of file; the final
// truncation reclaims the staging area. Pack is idempotent.
//
// Pack is not atomic: a failure mid-move returns before the table is
// persisted, so the table on disk still names the pre-pack offsets and
// stays structurally valid, but blocks it names may already have been
// overwritten by moved data.
func (a *Archive) Pack() error {
	t, length, err := a.load()
	if err != nil {
		return err
	}

	// Where each still-unmoved live block currently sits.
	type loc struct{ entry, block int }

	occupied := make(map[uint64]loc)

	for i := range t.Entries {
		for j, off := range t.Entries[i].Blocks {
			occupied[off] = loc{entry: i, block: j}
		}
	}

	cursor := uint64(TableSize)
	staging := uint64(length)
	buf := make([]byte, BlockSize)

	for i := range t.Entries {
		e := &t.Entries[i]

		for j := range e.Blocks {
			src := e.Blocks[j]

			if src == cursor {
				delete(occupied, src)

				cursor += BlockSize

				continue
			}

			// A not-yet-moved block of a later member may occupy the
			// destination; evacuate it before overwriting.
			if occ, ok := occupied[cursor]; ok {
				if err := a.moveBlock(buf, cursor, staging); err != nil {
					return err
				}

				t.Entries[occ.entry].Blocks[occ.block] = staging

				delete(occupied, cursor)
				occupied[staging] = occ

				a.debugf("evacuated block at %d to staging at %d", cursor, staging)

				staging += BlockSize
				src = e.Blocks[j]
			}

			if err := a.moveBlock(buf, src, cursor); err != nil {
				return err
			}

			delete(occupied, src)
			e.Blocks[j] = cursor

			a.debugf("moved block %d of %q from %d to %d", j+1, e.Name, src, cursor)

			cursor += BlockSize
		}
	}

	t.Free = t.Free[:0]

	if err := a.file.Truncate(int64(cursor)); err != nil {
		return fmt.Errorf("truncating archive to %d: %w", cursor, err)
	}

	return a.store(t)
}

// moveBlock copies one full block from src to dst through memory.
func (a *Archive) moveBlock(buf []byte, src, dst uint64) error {
	if _, err := a.file.ReadAt(buf, int64(src)); err != nil {
		return fmt.Errorf("reading block at %d: %w", src, err)
	}

	if _, err := a.file.WriteAt(buf, int64(dst)); err != nil {
		return fmt.Errorf("writing block at %d: %w", dst, err)
	}

	return nil
}
