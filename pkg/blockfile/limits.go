package blockfile

// Fixed format constants.
//
// These are part of the on-disk format: changing any of them changes the
// serialized table size and therefore every block offset in existing
// archives. They are sized so the table stays small relative to payload
// and per-member fragmentation stays bounded.
const (
	// BlockSize is the unit of allocation and I/O, in bytes.
	BlockSize = 256 * 1024

	// MaxEntries is the maximum number of members in one archive.
	MaxEntries = 100

	// MaxBlocksPerEntry bounds one member to 64 blocks (16 MiB).
	MaxBlocksPerEntry = 64

	// FreeListCap is the free-list capacity: one slot per block every
	// entry could own.
	FreeListCap = MaxEntries * MaxBlocksPerEntry

	// MaxNameLen is the longest member name, in bytes. The serialized
	// name field is MaxNameLen+1 bytes with a NUL terminator.
	MaxNameLen = 255

	// MaxMemberSize is the per-member payload cap implied by the block
	// limits.
	MaxMemberSize = BlockSize * MaxBlocksPerEntry
)

// StdinName is the entry name used when content is read from the
// standard byte source instead of a named file. Repeated unnamed appends
// merge into this one entry.
const StdinName = "stdin"
