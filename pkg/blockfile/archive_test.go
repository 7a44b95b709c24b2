package blockfile_test

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"star/internal/fs"
	"star/pkg/blockfile"
)

// newArchive creates a fresh archive in a temp dir and returns it with
// its backing path.
func newArchive(t *testing.T) (*blockfile.Archive, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.star")

	arch, err := blockfile.Create(fs.NewReal(), path)
	require.NoError(t, err)

	t.Cleanup(func() { _ = arch.Close() })

	return arch, path
}

func memSource(name string, data []byte) blockfile.Source {
	return blockfile.Source{
		Name: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// memSink collects extracted members into a map.
type memSink struct {
	buf  bytes.Buffer
	name string
	got  map[string][]byte
}

func (s *memSink) Write(p []byte) (int, error) { return s.buf.Write(p) }

func (s *memSink) Close() error {
	s.got[s.name] = append([]byte(nil), s.buf.Bytes()...)
	return nil
}

func extractAll(t *testing.T, arch *blockfile.Archive) map[string][]byte {
	t.Helper()

	got := make(map[string][]byte)

	results, err := arch.Extract(func(name string) (blockfile.Sink, error) {
		return &memSink{name: name, got: got}, nil
	})
	require.NoError(t, err)

	for _, res := range results {
		require.NoError(t, res.Err, "member %s", res.Name)
	}

	return got
}

func appendOK(t *testing.T, arch *blockfile.Archive, sources ...blockfile.Source) {
	t.Helper()

	results, err := arch.Append(sources)
	require.NoError(t, err)

	for _, res := range results {
		require.NoError(t, res.Err, "member %s", res.Name)
	}
}

func fileLen(t *testing.T, path string) int64 {
	t.Helper()

	info, err := os.Stat(path)
	require.NoError(t, err)

	return info.Size()
}

func Test_Create_Then_Extract_Reproduces_Members_Byte_For_Byte(t *testing.T) {
	t.Parallel()

	arch, path := newArchive(t)

	hello := []byte("hello, world!") // 13 bytes
	appendOK(t, arch, memSource("hello", hello))

	infos, err := arch.List()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.Equal(t, "hello", infos[0].Name)
	require.Equal(t, uint64(13), infos[0].Size)
	require.Equal(t, 1, infos[0].Blocks)

	require.Equal(t, int64(blockfile.TableSize+blockfile.BlockSize), fileLen(t, path))

	got := extractAll(t, arch)
	require.Equal(t, hello, got["hello"])
}

func Test_Empty_Member_Survives_Round_Trip(t *testing.T) {
	t.Parallel()

	arch, path := newArchive(t)

	appendOK(t, arch, memSource("empty", nil))

	infos, err := arch.List()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.Equal(t, uint64(0), infos[0].Size)
	require.Equal(t, 0, infos[0].Blocks)

	// No block was consumed.
	require.Equal(t, int64(blockfile.TableSize), fileLen(t, path))

	got := extractAll(t, arch)
	require.Empty(t, got["empty"])
}

func Test_Block_Boundary_Sizes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		size       int
		wantBlocks int
	}{
		{"one byte short of a block", blockfile.BlockSize - 1, 1},
		{"exactly one block", blockfile.BlockSize, 1},
		{"one byte past a block", blockfile.BlockSize + 1, 2},
		{"three full blocks", 3 * blockfile.BlockSize, 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			arch, _ := newArchive(t)

			data := deterministicBytes(tc.size)
			appendOK(t, arch, memSource("data", data))

			infos, err := arch.List()
			require.NoError(t, err)
			require.Equal(t, uint64(tc.size), infos[0].Size)
			require.Equal(t, tc.wantBlocks, infos[0].Blocks)

			got := extractAll(t, arch)
			require.True(t, bytes.Equal(data, got["data"]), "content mismatch")
		})
	}
}

func Test_Append_To_Existing_Member_Concatenates(t *testing.T) {
	t.Parallel()

	arch, _ := newArchive(t)

	first := deterministicBytes(blockfile.BlockSize)
	second := []byte("tail")

	appendOK(t, arch, memSource("log", first))
	appendOK(t, arch, memSource("log", second))

	infos, err := arch.List()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.Equal(t, uint64(blockfile.BlockSize+4), infos[0].Size)
	require.Equal(t, 2, infos[0].Blocks)

	got := extractAll(t, arch)
	require.True(t, bytes.Equal(append(append([]byte(nil), first...), second...), got["log"]))
}

func Test_Unnamed_Appends_Merge_Into_Stdin_Member(t *testing.T) {
	t.Parallel()

	arch, _ := newArchive(t)

	appendOK(t, arch, memSource(blockfile.StdinName, deterministicBytes(blockfile.BlockSize)))
	appendOK(t, arch, memSource(blockfile.StdinName, []byte("more")))

	infos, err := arch.List()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.Equal(t, blockfile.StdinName, infos[0].Name)
	require.Equal(t, 2, infos[0].Blocks)
}

func Test_Delete_Frees_Blocks_And_Preserves_Order(t *testing.T) {
	t.Parallel()

	arch, path := newArchive(t)

	appendOK(t, arch,
		memSource("a", []byte("aaa")),
		memSource("b", []byte("bbb")),
	)

	lenBefore := fileLen(t, path)

	results, err := arch.Delete([]string{"a"})
	require.NoError(t, err)
	require.NoError(t, results[0].Err)

	infos, err := arch.List()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.Equal(t, "b", infos[0].Name)

	// The freed block is reusable: a one-block append must not grow the
	// file.
	appendOK(t, arch, memSource("c", []byte("ccc")))
	require.Equal(t, lenBefore, fileLen(t, path))

	infos, err = arch.List()
	require.NoError(t, err)
	require.Equal(t, "b", infos[0].Name)
	require.Equal(t, "c", infos[1].Name)

	require.NoError(t, arch.Check())
}

func Test_Delete_Unknown_Member_Is_Non_Fatal(t *testing.T) {
	t.Parallel()

	arch, _ := newArchive(t)

	appendOK(t, arch, memSource("keep", []byte("k")), memSource("drop", []byte("d")))

	results, err := arch.Delete([]string{"missing", "drop"})
	require.NoError(t, err)
	require.ErrorIs(t, results[0].Err, blockfile.ErrNotFound)
	require.NoError(t, results[1].Err)

	infos, err := arch.List()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.Equal(t, "keep", infos[0].Name)
}

func Test_Directory_Full_Leaves_Prior_State_Unchanged(t *testing.T) {
	t.Parallel()

	arch, _ := newArchive(t)

	sources := make([]blockfile.Source, blockfile.MaxEntries)
	for i := range sources {
		sources[i] = memSource(fmt.Sprintf("member-%03d", i), []byte{byte(i)})
	}

	appendOK(t, arch, sources...)

	_, err := arch.Append([]blockfile.Source{memSource("one-too-many", []byte("x"))})
	require.ErrorIs(t, err, blockfile.ErrTableFull)

	infos, err := arch.List()
	require.NoError(t, err)
	require.Len(t, infos, blockfile.MaxEntries)
	require.NoError(t, arch.Check())
}

func Test_Member_Block_Limit_Is_Enforced(t *testing.T) {
	t.Parallel()

	arch, _ := newArchive(t)

	tooBig := make([]byte, (blockfile.MaxBlocksPerEntry+1)*blockfile.BlockSize)

	_, err := arch.Append([]blockfile.Source{memSource("huge", tooBig)})
	require.ErrorIs(t, err, blockfile.ErrEntryFull)

	// The aborted append was never persisted.
	infos, err := arch.List()
	require.NoError(t, err)
	require.Empty(t, infos)
	require.NoError(t, arch.Check())
}

func Test_Name_Too_Long_Is_Non_Fatal(t *testing.T) {
	t.Parallel()

	arch, _ := newArchive(t)

	long := make([]byte, blockfile.MaxNameLen+1)
	for i := range long {
		long[i] = 'n'
	}

	results, err := arch.Append([]blockfile.Source{
		memSource(string(long), []byte("x")),
		memSource("ok", []byte("y")),
	})
	require.NoError(t, err)
	require.ErrorIs(t, results[0].Err, blockfile.ErrNameTooLong)
	require.NoError(t, results[1].Err)
}

func Test_Unreadable_Source_Is_Non_Fatal(t *testing.T) {
	t.Parallel()

	arch, _ := newArchive(t)

	broken := blockfile.Source{
		Name: "broken",
		Open: func() (io.ReadCloser, error) {
			return nil, os.ErrNotExist
		},
	}

	results, err := arch.Append([]blockfile.Source{broken, memSource("ok", []byte("y"))})
	require.NoError(t, err)
	require.ErrorIs(t, results[0].Err, blockfile.ErrSource)
	require.NoError(t, results[1].Err)

	infos, err := arch.List()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.Equal(t, "ok", infos[0].Name)
}

func Test_Update_Replaces_Content_And_Keeps_Position(t *testing.T) {
	t.Parallel()

	arch, _ := newArchive(t)

	appendOK(t, arch,
		memSource("x", []byte("xxx")),
		memSource("y", deterministicBytes(blockfile.BlockSize)),
		memSource("z", []byte("zzz")),
	)

	// Double y's content.
	newContent := deterministicBytes(2 * blockfile.BlockSize)

	results, err := arch.Update([]blockfile.Source{memSource("y", newContent)})
	require.NoError(t, err)
	require.NoError(t, results[0].Err)

	infos, err := arch.List()
	require.NoError(t, err)
	require.Equal(t, []string{"x", "y", "z"}, memberNames(infos))
	require.Equal(t, 2, infos[1].Blocks)
	require.Equal(t, uint64(2*blockfile.BlockSize), infos[1].Size)

	got := extractAll(t, arch)
	require.True(t, bytes.Equal(newContent, got["y"]))
	require.NoError(t, arch.Check())
}

func Test_Update_Matches_Delete_Then_Append(t *testing.T) {
	t.Parallel()

	content := deterministicBytes(blockfile.BlockSize + 100)

	updated, _ := newArchive(t)
	appendOK(t, updated, memSource("n", []byte("old")), memSource("other", []byte("o")))

	results, err := updated.Update([]blockfile.Source{memSource("n", content)})
	require.NoError(t, err)
	require.NoError(t, results[0].Err)

	recreated, _ := newArchive(t)
	appendOK(t, recreated, memSource("n", []byte("old")), memSource("other", []byte("o")))

	_, err = recreated.Delete([]string{"n"})
	require.NoError(t, err)
	appendOK(t, recreated, memSource("n", content))

	// Same extracted bytes and same member shape either way.
	require.Equal(t, extractAll(t, updated), extractAll(t, recreated))

	updatedInfos, err := updated.List()
	require.NoError(t, err)

	recreatedInfos, err := recreated.List()
	require.NoError(t, err)

	require.Equal(t, findInfo(t, updatedInfos, "n").Size, findInfo(t, recreatedInfos, "n").Size)
	require.Equal(t, findInfo(t, updatedInfos, "n").Blocks, findInfo(t, recreatedInfos, "n").Blocks)
}

func Test_Update_Unknown_Member_Is_Non_Fatal(t *testing.T) {
	t.Parallel()

	arch, _ := newArchive(t)

	results, err := arch.Update([]blockfile.Source{memSource("ghost", []byte("x"))})
	require.NoError(t, err)
	require.ErrorIs(t, results[0].Err, blockfile.ErrNotFound)
}

func Test_Update_With_Unreadable_Source_Leaves_Member_Intact(t *testing.T) {
	t.Parallel()

	arch, _ := newArchive(t)

	appendOK(t, arch, memSource("keep", []byte("precious")))

	broken := blockfile.Source{
		Name: "keep",
		Open: func() (io.ReadCloser, error) {
			return nil, os.ErrPermission
		},
	}

	results, err := arch.Update([]blockfile.Source{broken})
	require.NoError(t, err)
	require.ErrorIs(t, results[0].Err, blockfile.ErrSource)

	got := extractAll(t, arch)
	require.Equal(t, []byte("precious"), got["keep"])
	require.NoError(t, arch.Check())
}

func Test_Reopen_Sees_Persisted_State(t *testing.T) {
	t.Parallel()

	arch, path := newArchive(t)

	content := deterministicBytes(blockfile.BlockSize + 17)
	appendOK(t, arch, memSource("data", content))
	require.NoError(t, arch.Close())

	reopened, err := blockfile.Open(fs.NewReal(), path)
	require.NoError(t, err)

	t.Cleanup(func() { _ = reopened.Close() })

	got := extractAll(t, reopened)
	require.True(t, bytes.Equal(content, got["data"]))
}

func memberNames(infos []blockfile.Info) []string {
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}

	return names
}

func findInfo(t *testing.T, infos []blockfile.Info, name string) blockfile.Info {
	t.Helper()

	for _, info := range infos {
		if info.Name == name {
			return info
		}
	}

	t.Fatalf("member %s not found", name)

	return blockfile.Info{}
}

// deterministicBytes returns size bytes with a fixed, position-derived
// pattern so content mismatches show up anywhere in a block.
func deterministicBytes(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i*31 + i/blockfile.BlockSize)
	}

	return data
}
