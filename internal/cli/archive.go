package cli

import (
	"errors"
	"io"
	"path/filepath"

	"star/internal/fs"
	"star/pkg/blockfile"
)

var errArchiveRequired = errors.New("archive path is required")

// resolvePath makes path absolute relative to the working directory.
func (a *app) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(a.workDir, path)
}

// withArchive opens the archive at path under an exclusive lock and
// runs fn. When create is true the archive is created or truncated
// instead of opened. The lock and the archive are released on all
// paths.
func (a *app) withArchive(o *IO, path string, create bool, fn func(*blockfile.Archive) error) error {
	resolved := a.resolvePath(path)

	lock, err := fs.LockArchive(a.fsys, resolved, fs.LockTimeout)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Close() }()

	var arch *blockfile.Archive
	if create {
		arch, err = blockfile.Create(a.fsys, resolved)
	} else {
		arch, err = blockfile.Open(a.fsys, resolved)
	}

	if err != nil {
		return err
	}

	if a.debug {
		arch.Debugf = func(format string, args ...any) {
			o.Printf("debug: "+format+"\n", args...)
		}
	}

	fnErr := fn(arch)

	closeErr := arch.Close()
	if fnErr != nil {
		return fnErr
	}

	return closeErr
}

// fileSources builds engine sources from filesystem paths. Each source
// is named by its path argument verbatim; the engine compares names
// byte for byte.
func (a *app) fileSources(paths []string) []blockfile.Source {
	sources := make([]blockfile.Source, len(paths))

	for i, path := range paths {
		resolved := a.resolvePath(path)
		sources[i] = blockfile.Source{
			Name: path,
			Open: func() (io.ReadCloser, error) {
				return a.fsys.Open(resolved)
			},
		}
	}

	return sources
}

// stdinSource reads the standard byte source into the "stdin" member.
func (a *app) stdinSource() blockfile.Source {
	return blockfile.Source{
		Name: blockfile.StdinName,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(a.stdin), nil
		},
	}
}

// reportResults converts per-member outcomes into warnings and verbose
// narration.
func reportResults(o *IO, verb string, results []blockfile.Result) {
	for _, res := range results {
		if res.Err != nil {
			o.Warn(res.Name+":", res.Err)

			continue
		}

		o.Verbosef("%s %s", verb, res.Name)
	}
}
