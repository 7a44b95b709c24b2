// Package fs provides the filesystem seam between the archive engine and
// the operating system.
//
// The main types are:
//   - [FS]: interface for path-level operations
//   - [File]: interface for open files (satisfied by [os.File])
//   - [Real]: production implementation using the [os] package
//   - [Lock] / [LockArchive]: flock-based advisory locking for archive files
//
// The engine only ever touches an archive through [File]: positioned
// reads and writes, length queries, and truncation. Keeping the surface
// behind an interface lets tests substitute failing implementations
// without touching the engine.
package fs

import (
	"io"
	"os"
)

// File represents an open archive or member file.
//
// The interface is satisfied by [os.File]. All archive I/O is positioned
// (ReadAt/WriteAt); there is no seek state to share or corrupt.
type File interface {
	io.ReaderAt
	io.WriterAt
	io.Closer

	// Truncate changes the size of the file. See [os.File.Truncate].
	Truncate(size int64) error

	// Stat returns the [os.FileInfo] for this file. See [os.File.Stat].
	Stat() (os.FileInfo, error)

	// Sync commits the file's contents to disk. See [os.File.Sync].
	Sync() error

	// Fd returns the file descriptor, used for flock(2).
	Fd() uintptr
}

// FS defines the path-level operations the CLI and engine need.
//
// All methods mirror their [os] package equivalents.
type FS interface {
	// Open opens a file for reading. See [os.Open].
	Open(path string) (File, error)

	// Create creates or truncates a file for read-write. Unlike
	// [os.Create] the result is opened O_RDWR so positioned reads work.
	Create(path string) (File, error)

	// OpenFile opens a file with specified flags and permissions.
	// See [os.OpenFile].
	OpenFile(path string, flag int, perm os.FileMode) (File, error)

	// Stat returns file info for path. See [os.Stat].
	Stat(path string) (os.FileInfo, error)

	// Remove removes the named file. See [os.Remove].
	Remove(path string) error
}
