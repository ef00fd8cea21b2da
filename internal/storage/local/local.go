package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/ondrasimku/file-server-go/internal/storage"
	"go.uber.org/multierr"
)

const stagingDir = ".staging"

type LocalStorage struct {
	baseDir       string
	stagingDir    string
	publicBaseURL string
	resolver      *resolver
}

// NewLocalStorage prepares baseDir, its staging area and every extra
// directory (relative to baseDir), creating whatever is missing.
func NewLocalStorage(baseDir, publicBaseURL string, extraDirs ...string) (*LocalStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	res, err := newResolver(baseDir, stagingDir)
	if err != nil {
		return nil, err
	}

	s := &LocalStorage{
		baseDir:       res.root,
		stagingDir:    filepath.Join(res.root, stagingDir),
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		resolver:      res,
	}

	err = os.MkdirAll(s.stagingDir, 0755)
	for _, dir := range extraDirs {
		if dir == "" {
			continue
		}
		if _, rerr := res.Mkdir(dir); rerr != nil {
			err = multierr.Append(err, fmt.Errorf("directory %q: %w", dir, rerr))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create storage directories: %w", err)
	}

	return s, nil
}

func (s *LocalStorage) BaseDir() string {
	return s.baseDir
}

func (s *LocalStorage) Stage(ctx context.Context, r io.Reader, originalName string, maxSize int64) (storage.StagedFile, error) {
	id := uuid.New().String()
	filePath := filepath.Join(s.stagingDir, id)

	file, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return storage.StagedFile{}, fmt.Errorf("failed to create file: %w", err)
	}

	src := r
	if maxSize > 0 {
		src = io.LimitReader(r, maxSize+1)
	}

	size, err := io.Copy(file, src)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err == nil && maxSize > 0 && size > maxSize {
		err = storage.ErrTooLarge
	}
	if err != nil {
		os.Remove(filePath)
		if errors.Is(err, storage.ErrTooLarge) {
			return storage.StagedFile{}, err
		}
		return storage.StagedFile{}, fmt.Errorf("failed to write file: %w", err)
	}

	return storage.StagedFile{
		ID:           id,
		OriginalName: originalName,
		Size:         size,
	}, nil
}

func (s *LocalStorage) Commit(ctx context.Context, staged storage.StagedFile, name string) (storage.FileInfo, error) {
	src, err := s.stagedPath(staged)
	if err != nil {
		return storage.FileInfo{}, err
	}

	dst, created, err := s.resolver.resolveTracked(name)
	if err != nil {
		return storage.FileInfo{}, err
	}

	if info, err := os.Lstat(dst); err == nil && info.IsDir() {
		removeDirs(created)
		return storage.FileInfo{}, storage.ErrNotFile
	}

	if err := os.Rename(src, dst); err != nil {
		removeDirs(created)
		return storage.FileInfo{}, fmt.Errorf("failed to move file into place: %w", err)
	}

	info, err := os.Stat(dst)
	if err != nil {
		return storage.FileInfo{}, fmt.Errorf("failed to stat file: %w", err)
	}

	fi, err := s.fileInfo(dst, info)
	if err != nil {
		return storage.FileInfo{}, err
	}
	fi.OriginalName = staged.OriginalName
	return fi, nil
}

func (s *LocalStorage) Discard(ctx context.Context, staged storage.StagedFile) error {
	src, err := s.stagedPath(staged)
	if err != nil {
		return err
	}
	if err := os.Remove(src); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to discard staged file: %w", err)
	}
	return nil
}

func (s *LocalStorage) Open(ctx context.Context, name string) (io.ReadSeekCloser, storage.FileInfo, error) {
	filePath, err := s.resolver.Locate(name)
	if err != nil {
		return nil, storage.FileInfo{}, err
	}

	if canon, err := filepath.EvalSymlinks(filePath); err == nil && !s.resolver.contains(canon) {
		return nil, storage.FileInfo{}, storage.ErrPathTraversal
	}

	file, err := os.Open(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, storage.FileInfo{}, storage.ErrNotFound
	}
	if err != nil {
		return nil, storage.FileInfo{}, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, storage.FileInfo{}, fmt.Errorf("failed to stat file: %w", err)
	}
	if !stat.Mode().IsRegular() {
		file.Close()
		return nil, storage.FileInfo{}, storage.ErrNotFound
	}

	info, err := s.fileInfo(filePath, stat)
	if err != nil {
		file.Close()
		return nil, storage.FileInfo{}, err
	}
	return file, info, nil
}

func (s *LocalStorage) Delete(ctx context.Context, name string) error {
	filePath, err := s.resolver.Locate(name)
	if err != nil {
		return err
	}

	info, err := os.Lstat(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return storage.ErrNotFile
	}

	if err := os.Remove(filePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// List walks the storage root and returns every regular file, sorted by
// path. Staged uploads are skipped.
func (s *LocalStorage) List(ctx context.Context) ([]storage.FileInfo, error) {
	files := make([]storage.FileInfo, 0)

	err := filepath.WalkDir(s.baseDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p == s.stagingDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		fi, err := s.fileInfo(p, info)
		if err != nil {
			return err
		}
		files = append(files, fi)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return files, nil
}

// Check reports whether the storage root and staging area are usable.
func (s *LocalStorage) Check(ctx context.Context) error {
	for _, dir := range []string{s.baseDir, s.stagingDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("storage unavailable: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("storage unavailable: %s is not a directory", dir)
		}
	}
	return nil
}

func (s *LocalStorage) stagedPath(staged storage.StagedFile) (string, error) {
	if _, err := uuid.Parse(staged.ID); err != nil {
		return "", fmt.Errorf("invalid staged file id %q", staged.ID)
	}
	return filepath.Join(s.stagingDir, staged.ID), nil
}

func (s *LocalStorage) fileInfo(filePath string, info fs.FileInfo) (storage.FileInfo, error) {
	rel, err := s.resolver.rel(filePath)
	if err != nil {
		return storage.FileInfo{}, fmt.Errorf("failed to compute relative path: %w", err)
	}

	return storage.FileInfo{
		Name:     rel,
		Filename: filepath.Base(filePath),
		Size:     info.Size(),
		URL:      fmt.Sprintf("%s/%s", s.publicBaseURL, rel),
		ModTime:  info.ModTime(),
	}, nil
}
