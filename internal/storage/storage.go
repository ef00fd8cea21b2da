package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrPathTraversal   = errors.New("path escapes storage root")
	ErrMissingFilename = errors.New("missing or invalid filename")
	ErrNotFound        = errors.New("file not found")
	ErrNotFile         = errors.New("target is not a regular file")
	ErrTooLarge        = errors.New("file exceeds maximum size")
)

// StagedFile is an upload that has been fully received but not yet published
// under its final name.
type StagedFile struct {
	ID           string
	OriginalName string
	Size         int64
}

type FileInfo struct {
	Name         string    `json:"name"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"-"`
	Size         int64     `json:"size"`
	URL          string    `json:"url"`
	ModTime      time.Time `json:"modified"`
}

type Storage interface {
	// Stage streams r to a temporary location. At most maxSize bytes are
	// accepted; anything larger fails with ErrTooLarge and leaves nothing behind.
	Stage(ctx context.Context, r io.Reader, originalName string, maxSize int64) (StagedFile, error)
	// Commit publishes a staged file under name, replacing any existing file.
	Commit(ctx context.Context, staged StagedFile, name string) (FileInfo, error)
	Discard(ctx context.Context, staged StagedFile) error
	Open(ctx context.Context, name string) (io.ReadSeekCloser, FileInfo, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]FileInfo, error)
	Check(ctx context.Context) error
}
