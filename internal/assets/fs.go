package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/dmitrijs2005/closetsync/internal/category"
	"github.com/dmitrijs2005/closetsync/internal/common"
	"github.com/dmitrijs2005/closetsync/internal/filex"
	"github.com/dmitrijs2005/closetsync/internal/logging"
	"github.com/dmitrijs2005/closetsync/internal/timex"
)

// FSStore keeps files on local disk. Every path is resolved through an
// os.Root opened at the data directory, so no component can escape it
// regardless of what a filename contains.
type FSStore struct {
	root   *os.Root
	logger logging.Logger
}

// NewFSStore opens (creating if needed) the data directory dir.
func NewFSStore(dir string, logger logging.Logger) (*FSStore, error) {
	path, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	root, err := os.OpenRoot(path)
	if err != nil {
		return nil, fmt.Errorf("open asset root: %w", err)
	}
	return &FSStore{root: root, logger: logger}, nil
}

// Close releases the root directory handle.
func (s *FSStore) Close() error {
	return s.root.Close()
}

func (s *FSStore) ensureDir(userID string, c category.Category) (string, error) {
	for _, dir := range []string{userID, filepath.Join(userID, string(c))} {
		if err := s.root.Mkdir(dir, 0o750); err != nil && !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	return filepath.Join(userID, string(c)), nil
}

func (s *FSStore) write(dir, filename string, flags int, data []byte) error {
	f, err := s.root.OpenFile(filepath.Join(dir, filename), flags, 0o640)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", common.ErrorAlreadyExists, filename)
		}
		return fmt.Errorf("open %s: %w", filename, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return f.Close()
}

func (s *FSStore) Put(ctx context.Context, userID string, c category.Category, data []byte) (string, error) {
	if err := validateDir(userID, c); err != nil {
		return "", err
	}
	dir, err := s.ensureDir(userID, c)
	if err != nil {
		return "", err
	}
	name, err := newFilename(c, SniffExtension(data), timex.Now())
	if err != nil {
		return "", err
	}
	if err := s.write(dir, name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, data); err != nil {
		return "", err
	}
	return name, nil
}

func (s *FSStore) Replace(ctx context.Context, userID string, c category.Category, filename string, data []byte) error {
	if err := validatePath(userID, c, filename); err != nil {
		return err
	}
	dir, err := s.ensureDir(userID, c)
	if err != nil {
		return err
	}
	return s.write(dir, filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, data)
}

func (s *FSStore) Get(ctx context.Context, userID, filename string, declared category.Category) ([]byte, category.Category, error) {
	if err := validatePath(userID, category.Default, filename); err != nil {
		return nil, "", err
	}
	for _, c := range category.FallbackOrder(declared) {
		data, err := s.read(filepath.Join(userID, string(c), filename))
		if err == nil {
			return data, c, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("read %s: %w", filename, err)
		}
	}
	return nil, "", fmt.Errorf("%w: %s", common.ErrorNotFound, filename)
}

func (s *FSStore) read(path string) ([]byte, error) {
	f, err := s.root.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if st.IsDir() {
		return nil, fs.ErrNotExist
	}
	return io.ReadAll(f)
}

func (s *FSStore) Delete(ctx context.Context, userID, filename string, c category.Category) error {
	if err := validatePath(userID, c, filename); err != nil {
		return err
	}
	err := s.root.Remove(filepath.Join(userID, string(c), filename))
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn(ctx, "file already missing on delete", "user_id", userID, "category", c, "filename", filename)
		return nil
	}
	if err != nil {
		return fmt.Errorf("remove %s: %w", filename, err)
	}
	return nil
}

func (s *FSStore) ListFileInfo(ctx context.Context, userID string, c category.Category) ([]FileInfo, error) {
	if err := validateDir(userID, c); err != nil {
		return nil, err
	}
	dir, err := s.root.Open(filepath.Join(userID, string(c)))
	if errors.Is(err, fs.ErrNotExist) {
		return []FileInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s/%s: %w", userID, c, err)
	}
	defer dir.Close()

	entries, err := dir.ReadDir(-1)
	if err != nil {
		return nil, fmt.Errorf("list %s/%s: %w", userID, c, err)
	}

	result := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		result = append(result, FileInfo{Name: e.Name(), Category: c, Size: info.Size(), ModTime: info.ModTime().UTC()})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}
