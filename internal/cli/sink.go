package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"star/pkg/blockfile"
)

// fileSink streams one extracted member into a temp file next to its
// destination and renames it into place on Close. A half-extracted
// member never replaces an existing file.
type fileSink struct {
	tmp  *os.File
	dest string
}

// newSinkOpener returns a SinkOpener writing members into dir.
func newSinkOpener(dir string) blockfile.SinkOpener {
	return func(name string) (blockfile.Sink, error) {
		dest := filepath.Join(dir, name)

		tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
		if err != nil {
			return nil, err
		}

		return &fileSink{tmp: tmp, dest: dest}, nil
	}
}

func (s *fileSink) Write(p []byte) (int, error) {
	return s.tmp.Write(p)
}

// Close syncs the temp file and atomically replaces the destination.
func (s *fileSink) Close() error {
	name := s.tmp.Name()

	abort := func(err error) error {
		_ = s.tmp.Close()
		_ = os.Remove(name)

		return err
	}

	if err := s.tmp.Sync(); err != nil {
		return abort(fmt.Errorf("syncing %s: %w", s.dest, err))
	}

	if err := s.tmp.Close(); err != nil {
		_ = os.Remove(name)

		return fmt.Errorf("closing %s: %w", s.dest, err)
	}

	if err := atomic.ReplaceFile(name, s.dest); err != nil {
		_ = os.Remove(name)

		return fmt.Errorf("replacing %s: %w", s.dest, err)
	}

	return nil
}
