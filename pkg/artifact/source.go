package artifact

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/dtnitsch/perf-budget/pkg/storage"
)

// StdinPath is the argument that reads an artifact from standard input.
const StdinPath = "-"

// Source walks files and directories and yields artifacts in a stable order:
// arguments as given, directory contents lexically.
type Source struct {
	paths   []string
	exclude []string
	stdin   io.Reader
	store   *storage.Storage
	logger  *slog.Logger

	unreadable int
}

// NewSource validates the exclude patterns and returns a Source over paths.
func NewSource(paths, exclude []string, stdin io.Reader, logger *slog.Logger) (*Source, error) {
	for _, p := range exclude {
		if _, err := path.Match(p, ""); err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{paths: paths, exclude: exclude, stdin: stdin, store: &storage.Storage{}, logger: logger}, nil
}

// Unreadable is the number of artifacts the last Walk skipped because they
// could not be stat'ed or read.
func (s *Source) Unreadable() int {
	return s.unreadable
}

// Walk calls fn for every artifact. An error from fn stops the walk and is
// returned, as does a path argument that does not exist. Artifacts that cannot
// be read are logged and skipped.
func (s *Source) Walk(fn func(Artifact) error) error {
	s.unreadable = 0
	for _, p := range s.paths {
		if p == StdinPath {
			if err := fn(Artifact{Path: StdinPath, Stream: s.stdin}); err != nil {
				return err
			}
			continue
		}

		stats, err := s.store.GetFileStats(p)
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", p, err)
		}

		if !stats.Dir {
			if s.excluded(p) {
				continue
			}
			if err := s.visit(p, stats, fn); err != nil {
				return err
			}
			continue
		}

		err = filepath.WalkDir(p, func(walked string, d fs.DirEntry, err error) error {
			if err != nil {
				if walked == p {
					return err
				}
				s.skip(walked, err)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if walked != p && s.excluded(walked) {
					return filepath.SkipDir
				}
				return nil
			}
			if s.excluded(walked) {
				s.logger.Debug("artifact excluded", "path", walked)
				return nil
			}

			stats, err := s.store.GetFileStats(walked)
			if err != nil {
				s.skip(walked, err)
				return nil
			}
			if stats.Dir {
				return nil
			}
			return s.visit(walked, stats, fn)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// visit loads one file and hands it to fn. A read failure skips the artifact.
func (s *Source) visit(p string, stats *storage.FileStats, fn func(Artifact) error) error {
	a, err := s.load(p, stats)
	if err != nil {
		s.skip(p, err)
		return nil
	}
	return fn(a)
}

func (s *Source) skip(p string, err error) {
	s.unreadable++
	s.logger.Warn("skipping unreadable artifact", "path", p, "error", err)
}

// excluded matches patterns against the slash path and against the base name.
func (s *Source) excluded(p string) bool {
	slashed := filepath.ToSlash(p)
	base := path.Base(slashed)
	for _, pattern := range s.exclude {
		if ok, _ := path.Match(pattern, slashed); ok {
			return true
		}
		if ok, _ := path.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// load materializes a regular file. Pipes, devices and sockets become streams.
func (s *Source) load(p string, stats *storage.FileStats) (Artifact, error) {
	slashed := filepath.ToSlash(p)
	if !stats.Regular {
		return Artifact{Path: slashed, Stream: &lazyFile{path: p}}, nil
	}

	contents, err := s.store.ReadFile(p)
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to read %s: %w", p, err)
	}
	if contents == nil {
		contents = []byte{}
	}

	return Artifact{
		Path:     slashed,
		Stat:     &FileInfo{Size: stats.SizeBytes, ModTime: stats.ModTime},
		Contents: contents,
	}, nil
}

// lazyFile opens its file on first read, so walking past a FIFO never blocks.
type lazyFile struct {
	path string
	f    *os.File
}

func (l *lazyFile) Read(p []byte) (int, error) {
	if l.f == nil {
		f, err := os.Open(l.path)
		if err != nil {
			return 0, err
		}
		l.f = f
	}
	n, err := l.f.Read(p)
	if err == io.EOF {
		_ = l.f.Close()
	}
	return n, err
}
