package store

import (
	"context"

	"github.com/YuminosukeSato/loangate/core/model"
)

// FileStore keeps the latest snapshot in a single JSON file.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the snapshot file.
func (f *FileStore) Path() string { return f.path }

// Save replaces the file atomically.
func (f *FileStore) Save(ctx context.Context, s *model.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}
	return model.SaveSnapshot(s, f.path)
}

// Load reads and validates the file.
func (f *FileStore) Load(ctx context.Context) (*model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return model.LoadSnapshot(f.path)
}

// Close is a no-op.
func (f *FileStore) Close() error { return nil }
