// Package blockfile implements a single-file archive container: a fixed
// allocation table at offset zero followed by a region of fixed-size
// payload blocks.
//
// The table is the single source of truth. It holds a directory of up to
// 100 member entries (name, byte size, ordered block offsets) and a free
// list of block offsets not owned by any entry. Every operation loads
// the table, performs block I/O while mutating the table in memory, and
// persists the table back to offset zero as its last step. There is no
// incremental persistence: a crash between the block writes and the
// final table write loses the bookkeeping for the new blocks but never
// corrupts existing entries.
//
// Members are stored in 256 KiB blocks. The trailing block of a member
// is zero padded on disk; the entry's size field counts only real bytes,
// and extraction truncates from it. The block region is therefore not
// reconstructible from file content alone - only through the table.
//
// The package is single-threaded by design. An [Archive] must not be
// shared across goroutines, and concurrent processes are expected to
// exclude each other through an external lock.
package blockfile
