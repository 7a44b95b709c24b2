package blockfile_test

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"star/internal/fs"
	"star/pkg/blockfile"
)

// Serialized positions of the table counters, derived from the exported
// format constants.
const (
	freeCountPos  = blockfile.TableSize - 8
	freeListPos   = freeCountPos - blockfile.FreeListCap*8
	entryCountPos = freeListPos - 8
)

func Test_Open_Rejects_Files_Shorter_Than_The_Table(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "short.star")
	require.NoError(t, os.WriteFile(path, make([]byte, blockfile.TableSize/2), 0o644))

	_, err := blockfile.Open(fs.NewReal(), path)
	require.ErrorIs(t, err, blockfile.ErrCorrupt)
}

func Test_Open_Rejects_Corrupted_Counters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(raw []byte)
	}{
		{
			name: "entry count past max",
			mutate: func(raw []byte) {
				binary.LittleEndian.PutUint64(raw[entryCountPos:], blockfile.MaxEntries+1)
			},
		},
		{
			name: "free count past cap",
			mutate: func(raw []byte) {
				binary.LittleEndian.PutUint64(raw[freeCountPos:], blockfile.FreeListCap+1)
			},
		},
		{
			name: "misaligned block offset",
			mutate: func(raw []byte) {
				// First entry, first block offset: name[256] + size.
				binary.LittleEndian.PutUint64(raw[256+8:], blockfile.TableSize+1)
			},
		},
		{
			name: "duplicated offset between entry and free list",
			mutate: func(raw []byte) {
				binary.LittleEndian.PutUint64(raw[freeListPos:], blockfile.TableSize)
				binary.LittleEndian.PutUint64(raw[freeCountPos:], 1)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			arch, path := newArchive(t)
			appendOK(t, arch, memSource("victim", []byte("data")))
			require.NoError(t, arch.Close())

			raw, err := os.ReadFile(path)
			require.NoError(t, err)

			tc.mutate(raw)
			require.NoError(t, os.WriteFile(path, raw, 0o644))

			_, err = blockfile.Open(fs.NewReal(), path)
			require.ErrorIs(t, err, blockfile.ErrCorrupt)
		})
	}
}

func Test_Open_Rejects_Non_Archive_Content(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "noise.star")

	raw := make([]byte, blockfile.TableSize+blockfile.BlockSize)
	for i := range raw {
		raw[i] = byte(i*7 + 3)
	}

	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, err := blockfile.Open(fs.NewReal(), path)
	require.ErrorIs(t, err, blockfile.ErrCorrupt)
}
