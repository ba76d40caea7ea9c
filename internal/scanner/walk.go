package scanner

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"medialink/internal/logging"
)

// Candidate is a source file that passed the scan filters.
type Candidate struct {
	Path     string
	DeviceID uint64
	Inode    uint64
	Size     int64
}

type identity struct {
	device uint64
	inode  uint64
}

// walkOptions controls a single directory traversal.
type walkOptions struct {
	root           string
	extensions     map[string]struct{}
	minSizeBytes   int64
	excludedSubdir string
	followSymlinks bool
}

// walkSource traverses the source tree and collects candidate files.
// Unreadable entries are logged and skipped rather than failing the scan.
// Symlinks are ignored unless followSymlinks is set; when they are
// followed, both file and directory links are resolved, and a visited
// (device, inode) set of directories breaks cycles.
func walkSource(opts walkOptions, logger *slog.Logger) ([]Candidate, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	w := &sourceWalker{
		opts:    opts,
		logger:  logger,
		visited: map[identity]struct{}{},
	}
	if err := w.walkDir(opts.root, 0); err != nil {
		return nil, err
	}
	return w.candidates, nil
}

type sourceWalker struct {
	opts       walkOptions
	logger     *slog.Logger
	visited    map[identity]struct{}
	candidates []Candidate
}

// walkDir descends into dir. Only the root directory's failure aborts the
// walk; anything deeper is skipped with a warning. Each directory is
// entered at most once, keyed by its filesystem identity, so link cycles
// and diamond layouts terminate.
func (w *sourceWalker) walkDir(dir string, depth int) error {
	info, err := os.Stat(dir)
	if err != nil {
		if depth == 0 {
			return fmt.Errorf("walk source root: %w", err)
		}
		w.logger.Warn("skipping unreadable directory", logging.String("path", dir), logging.Error(err))
		return nil
	}
	if dev, ino, ok := fileIdentity(info); ok {
		id := identity{device: dev, inode: ino}
		if _, seen := w.visited[id]; seen {
			return nil
		}
		w.visited[id] = struct{}{}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if depth == 0 {
			return fmt.Errorf("walk source root: %w", err)
		}
		w.logger.Warn("skipping unreadable directory", logging.String("path", dir), logging.Error(err))
		return nil
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		switch {
		case entry.IsDir():
			if w.excluded(path) {
				continue
			}
			if err := w.walkDir(path, depth+1); err != nil {
				return err
			}
		case entry.Type()&fs.ModeSymlink != 0:
			if !w.opts.followSymlinks {
				continue
			}
			if err := w.walkSymlink(path, depth); err != nil {
				return err
			}
		case entry.Type().IsRegular():
			info, err := entry.Info()
			if err != nil {
				w.logger.Warn("skipping unreadable entry", logging.String("path", path), logging.Error(err))
				continue
			}
			w.addCandidate(path, info)
		}
	}
	return nil
}

// walkSymlink resolves a symlink entry and continues the walk through its
// target: directories are descended into, regular files become candidates.
func (w *sourceWalker) walkSymlink(path string, depth int) error {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		w.logger.Warn("skipping broken symlink", logging.String("path", path), logging.Error(err))
		return nil
	}
	info, err := os.Stat(resolved)
	if err != nil {
		w.logger.Warn("skipping unreadable symlink target", logging.String("path", path), logging.Error(err))
		return nil
	}
	if info.IsDir() {
		if w.excluded(path) || w.excluded(resolved) {
			return nil
		}
		return w.walkDir(resolved, depth+1)
	}
	if info.Mode().IsRegular() {
		w.addCandidate(resolved, info)
	}
	return nil
}

func (w *sourceWalker) addCandidate(path string, info fs.FileInfo) {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := w.opts.extensions[ext]; !ok {
		return
	}
	if info.Size() < w.opts.minSizeBytes {
		return
	}
	dev, ino, ok := fileIdentity(info)
	if !ok {
		w.logger.Warn("skipping file without inode identity", logging.String("path", path))
		return
	}
	w.candidates = append(w.candidates, Candidate{Path: path, DeviceID: dev, Inode: ino, Size: info.Size()})
}

func (w *sourceWalker) excluded(path string) bool {
	return w.opts.excludedSubdir != "" && isWithin(w.opts.excludedSubdir, path)
}

// isWithin reports whether path is base or sits underneath it.
func isWithin(base, path string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && rel != "..")
}

func fileIdentity(info fs.FileInfo) (device, inode uint64, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, 0, false
	}
	return uint64(stat.Dev), uint64(stat.Ino), true
}
