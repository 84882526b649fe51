package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.lumeweb.com/accounts/core"
	"go.uber.org/zap"
)

var ErrInvalidAvatarName = errors.New("invalid avatar name")

var _ core.AvatarStore = (*FileSystemAvatarStore)(nil)

// FileSystemAvatarStore keeps avatars as flat files in one directory.
type FileSystemAvatarStore struct {
	dir    string
	logger *zap.Logger
}

func NewFileSystemAvatarStore(dir string, logger *zap.Logger) (*FileSystemAvatarStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir all: %w", err)
	}

	return &FileSystemAvatarStore{dir: dir, logger: logger}, nil
}

func (s *FileSystemAvatarStore) List(ctx context.Context, prefix string) (names []string, err error) {
	defer func() {
		if err != nil {
			s.logger.Error("avatar list failed", zap.String("prefix", prefix), zap.Error(err))
		}
	}()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if strings.HasPrefix(entry.Name(), prefix) {
			names = append(names, entry.Name())
		}
	}

	sort.Strings(names)

	return names, nil
}

func (s *FileSystemAvatarStore) Delete(ctx context.Context, name string) (err error) {
	defer func() {
		if err != nil {
			s.logger.Error("avatar delete failed", zap.String("name", name), zap.Error(err))
		} else {
			s.logger.Debug("avatar deleted", zap.String("name", name))
		}
	}()

	filename, err := s.filename(name)
	if err != nil {
		return err
	}

	if err := os.Remove(filename); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove: %w", err)
	}

	return nil
}

// Write stores the avatar through a temp file and a rename so readers never see a partial file.
func (s *FileSystemAvatarStore) Write(ctx context.Context, name string, r io.Reader) (err error) {
	defer func() {
		if err != nil {
			s.logger.Error("avatar write failed", zap.String("name", name), zap.Error(err))
		} else {
			s.logger.Debug("avatar stored", zap.String("name", name))
		}
	}()

	filename, err := s.filename(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	return nil
}

func (s *FileSystemAvatarStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	filename, err := s.filename(name)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	return file, nil
}

func (s *FileSystemAvatarStore) filename(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidAvatarName, name)
	}

	return filepath.Join(s.dir, name), nil
}
