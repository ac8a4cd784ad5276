package storage

import (
	"context"
	"errors"
	"io/fs"

	appErrors "github.com/noah-isme/classroom-registry/pkg/errors"
)

// FileBackend stores the snapshot as a single file.
type FileBackend struct {
	local    *LocalStorage
	filename string
}

// NewFileBackend stores the snapshot at filename inside local.
func NewFileBackend(local *LocalStorage, filename string) *FileBackend {
	if filename == "" {
		filename = "classes.json"
	}
	return &FileBackend{local: local, filename: filename}
}

func (b *FileBackend) Name() string { return "file" }

func (b *FileBackend) Read(ctx context.Context) ([]byte, error) {
	data, err := b.local.Read(b.filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, appErrors.ErrSnapshotMissing
		}
		return nil, err
	}
	return data, nil
}

func (b *FileBackend) Write(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.local.Save(b.filename, payload)
	return err
}

// Path returns the snapshot file location.
func (b *FileBackend) Path() string {
	return b.local.Path(b.filename)
}
