package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mobilityp/errorsender/internal/model"
)

// FileStore writes uploads to the local file system and records them in the
// files table.
type FileStore struct {
	db       DBTX
	basePath string
}

func NewFileStore(db DBTX, basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0o750); err != nil {
		return nil, fmt.Errorf("files: create storage directory: %w", err)
	}
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("files: absolute path: %w", err)
	}
	return &FileStore{db: db, basePath: absPath}, nil
}

// Save stores data under <root>/{private,public}/files/<id>/<name>.
func (s *FileStore) Save(ctx context.Context, name string, data []byte, private bool) (*model.File, error) {
	name = sanitizeFilename(name)
	id := uuid.New()

	visibility := "public"
	if private {
		visibility = "private"
	}
	rel := filepath.Join(visibility, "files", id.String(), name)
	full := filepath.Join(s.basePath, rel)

	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return nil, fmt.Errorf("files: create directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o640); err != nil {
		return nil, fmt.Errorf("files: write: %w", err)
	}

	sum := sha256.Sum256(data)
	f := &model.File{
		ID:        id.String(),
		FileName:  name,
		IsPrivate: private,
		Size:      int64(len(data)),
		SHA256:    hex.EncodeToString(sum[:]),
		Path:      rel,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO files (id, file_name, is_private, size, sha256, path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, f.FileName, f.IsPrivate, f.Size, f.SHA256, f.Path, f.CreatedAt,
	)
	if err != nil {
		_ = os.Remove(full)
		return nil, fmt.Errorf("files: record: %w", err)
	}
	return f, nil
}

// sanitizeFilename removes path components and dangerous characters
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "\x00", "")
	if name == "." || name == ".." {
		name = ""
	}
	if len(name) > 100 {
		name = name[:100]
	}
	if name == "" {
		name = "attachment"
	}
	return name
}
