package blockfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// On-disk layout of the allocation table. All integers are little-endian
// uint64; names are a fixed 256-byte NUL-terminated field. The layout is
// a deterministic function of the format constants and does not depend
// on content:
//
//	entries      [MaxEntries]entry      at 0x00000
//	entry_count  uint64                 at entriesSize
//	free_offsets [FreeListCap]uint64    following
//	free_count   uint64                 last
//
// Each serialized entry is:
//
//	name          [256]byte  NUL-terminated
//	size          uint64     real payload bytes
//	block_offsets [64]uint64 absolute byte offsets, logical order
//	block_count   uint64     valid prefix of block_offsets
//
// The format is not portable to implementations choosing different
// widths or endianness.
const (
	nameFieldSize = MaxNameLen + 1
	entrySize     = nameFieldSize + 8 + MaxBlocksPerEntry*8 + 8

	offEntries    = 0
	offEntryCount = offEntries + MaxEntries*entrySize
	offFreeList   = offEntryCount + 8
	offFreeCount  = offFreeList + FreeListCap*8

	// TableSize is the serialized table size S. The block region starts
	// here, and every block offset is of the form S + k*BlockSize.
	TableSize = offFreeCount + 8
)

// Entry is one directory record: a member's name, payload size, and the
// blocks it owns in logical byte order.
type Entry struct {
	Name   string
	Size   uint64
	Blocks []uint64
}

// Table is the in-memory allocation table. Entries holds the directory
// in stored order; Free holds the free list, where a zero is a tombstone
// left by a claimed slot (offset zero can never name a block because the
// table itself occupies it).
type Table struct {
	Entries []Entry
	Free    []uint64
}

// freshTable returns the table of a newly created archive: no entries,
// and a single free slot naming the first block position. The block
// itself materializes when the first write lands there.
func freshTable() *Table {
	return &Table{
		Free: []uint64{TableSize},
	}
}

// encodeTable serializes t into a TableSize-byte buffer.
func encodeTable(t *Table) []byte {
	buf := make([]byte, TableSize)

	for i := range t.Entries {
		encodeEntry(buf[offEntries+i*entrySize:], &t.Entries[i])
	}

	binary.LittleEndian.PutUint64(buf[offEntryCount:], uint64(len(t.Entries)))

	for i, off := range t.Free {
		binary.LittleEndian.PutUint64(buf[offFreeList+i*8:], off)
	}

	binary.LittleEndian.PutUint64(buf[offFreeCount:], uint64(len(t.Free)))

	return buf
}

func encodeEntry(buf []byte, e *Entry) {
	copy(buf[:MaxNameLen], e.Name)

	binary.LittleEndian.PutUint64(buf[nameFieldSize:], e.Size)

	for i, off := range e.Blocks {
		binary.LittleEndian.PutUint64(buf[nameFieldSize+8+i*8:], off)
	}

	binary.LittleEndian.PutUint64(buf[nameFieldSize+8+MaxBlocksPerEntry*8:], uint64(len(e.Blocks)))
}

// decodeTable deserializes a TableSize-byte buffer. Counts are bounds
// checked here; full invariant validation happens in validateTable.
func decodeTable(buf []byte) (*Table, error) {
	if len(buf) != TableSize {
		return nil, fmt.Errorf("%w: table is %d bytes, want %d", ErrCorrupt, len(buf), TableSize)
	}

	entryCount := binary.LittleEndian.Uint64(buf[offEntryCount:])
	if entryCount > MaxEntries {
		return nil, fmt.Errorf("%w: entry count %d exceeds %d", ErrCorrupt, entryCount, MaxEntries)
	}

	freeCount := binary.LittleEndian.Uint64(buf[offFreeCount:])
	if freeCount > FreeListCap {
		return nil, fmt.Errorf("%w: free count %d exceeds %d", ErrCorrupt, freeCount, FreeListCap)
	}

	t := &Table{
		Entries: make([]Entry, entryCount),
		Free:    make([]uint64, freeCount),
	}

	for i := range t.Entries {
		e, err := decodeEntry(buf[offEntries+i*entrySize:])
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}

		t.Entries[i] = e
	}

	for i := range t.Free {
		t.Free[i] = binary.LittleEndian.Uint64(buf[offFreeList+i*8:])
	}

	return t, nil
}

func decodeEntry(buf []byte) (Entry, error) {
	nameField := buf[:nameFieldSize]

	end := bytes.IndexByte(nameField, 0)
	if end < 0 {
		return Entry{}, fmt.Errorf("%w: name missing terminator", ErrCorrupt)
	}

	blockCount := binary.LittleEndian.Uint64(buf[nameFieldSize+8+MaxBlocksPerEntry*8:])
	if blockCount > MaxBlocksPerEntry {
		return Entry{}, fmt.Errorf("%w: block count %d exceeds %d", ErrCorrupt, blockCount, MaxBlocksPerEntry)
	}

	e := Entry{
		Name:   string(nameField[:end]),
		Size:   binary.LittleEndian.Uint64(buf[nameFieldSize:]),
		Blocks: make([]uint64, blockCount),
	}

	for i := range e.Blocks {
		e.Blocks[i] = binary.LittleEndian.Uint64(buf[nameFieldSize+8+i*8:])
	}

	return e, nil
}

// validateTable checks the structural invariants against the current
// backing file length:
//
//  1. every block offset appears in at most one place (one entry's
//     block list or the free list)
//  2. entry block offsets are aligned, inside the block region, and
//     fully materialized; free offsets are tombstones or aligned slots
//     no further than end of file
//  3. a member's block count covers its size and size zero means no
//     blocks
//
// A free slot may sit exactly at end of file: a fresh archive arms the
// first block position before the file has grown to hold it.
func validateTable(t *Table, fileLen int64) error {
	seen := make(map[uint64]struct{}, len(t.Free))

	claim := func(off uint64, what string) error {
		if _, dup := seen[off]; dup {
			return fmt.Errorf("%w: offset %d owned twice (%s)", ErrCorrupt, off, what)
		}

		seen[off] = struct{}{}

		return nil
	}

	for i := range t.Entries {
		e := &t.Entries[i]

		if len(e.Name) == 0 {
			return fmt.Errorf("%w: entry %d has empty name", ErrCorrupt, i)
		}

		need := (e.Size + BlockSize - 1) / BlockSize
		if need > uint64(len(e.Blocks)) {
			return fmt.Errorf("%w: member %q has %d blocks for %d bytes", ErrCorrupt, e.Name, len(e.Blocks), e.Size)
		}

		if e.Size == 0 && len(e.Blocks) != 0 {
			return fmt.Errorf("%w: empty member %q owns blocks", ErrCorrupt, e.Name)
		}

		for _, off := range e.Blocks {
			if !alignedOffset(off) {
				return fmt.Errorf("%w: member %q block offset %d misaligned", ErrCorrupt, e.Name, off)
			}

			if off+BlockSize > uint64(fileLen) {
				return fmt.Errorf("%w: member %q block offset %d past end of file", ErrCorrupt, e.Name, off)
			}

			if err := claim(off, "entry "+e.Name); err != nil {
				return err
			}
		}
	}

	for _, off := range t.Free {
		if off == 0 {
			continue // tombstone
		}

		if !alignedOffset(off) {
			return fmt.Errorf("%w: free offset %d misaligned", ErrCorrupt, off)
		}

		if off > uint64(fileLen) {
			return fmt.Errorf("%w: free offset %d past end of file", ErrCorrupt, off)
		}

		if err := claim(off, "free list"); err != nil {
			return err
		}
	}

	return nil
}

func alignedOffset(off uint64) bool {
	return off >= TableSize && (off-TableSize)%BlockSize == 0
}
