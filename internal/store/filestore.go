package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const fileExt = ".yaml"

// =============================================================================
// FileStore
// =============================================================================

// FileStore implements Store with one YAML file per template in a directory.
type FileStore struct {
	dir string
	log *zap.Logger
	mu  sync.Mutex
}

// NewFileStore creates the directory if needed and returns a store over it.
func NewFileStore(dir string, log *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, NewStoreError("NewFileStore", "", err.Error(), ErrConnectionFailed)
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &FileStore{dir: dir, log: log}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+fileExt)
}

func (s *FileStore) Save(ctx context.Context, rec *Record) error {
	if err := ctx.Err(); err != nil {
		return NewStoreError("Save", rec.Name, err.Error(), err)
	}
	if err := ValidateName(rec.Name); err != nil {
		return NewStoreError("Save", rec.Name, "invalid name", ErrInvalidName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *rec
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}

	now := time.Now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = now
	}

	existing, err := s.read(rec.Name)
	switch {
	case err == nil:
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	case !errors.Is(err, ErrNotFound):
		return err
	}

	data, err := yaml.Marshal(&stored)
	if err != nil {
		return NewStoreError("Save", rec.Name, "failed to serialize record", ErrInvalidData)
	}

	if err := writeFileAtomic(s.path(rec.Name), data); err != nil {
		return NewStoreError("Save", rec.Name, err.Error(), err)
	}

	*rec = stored

	s.log.Info("template saved",
		zap.String("name", rec.Name),
		zap.String("kind", string(rec.Kind)),
		zap.String("path", s.path(rec.Name)))

	return nil
}

func (s *FileStore) Load(ctx context.Context, name string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewStoreError("Load", name, err.Error(), err)
	}
	if err := ValidateName(name); err != nil {
		return nil, NewStoreError("Load", name, "invalid name", ErrInvalidName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.read(name)
}

func (s *FileStore) List(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewStoreError("List", "", err.Error(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, NewStoreError("List", "", err.Error(), err)
	}

	var records []Record
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}

		name := strings.TrimSuffix(e.Name(), fileExt)
		if ValidateName(name) != nil {
			s.log.Warn("skipping file with invalid template name", zap.String("file", e.Name()))
			continue
		}

		rec, err := s.read(name)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Name < records[j].Name
	})

	return records, nil
}

func (s *FileStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return NewStoreError("Delete", name, err.Error(), err)
	}
	if err := ValidateName(name); err != nil {
		return NewStoreError("Delete", name, "invalid name", ErrInvalidName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewStoreError("Delete", name, "template not found", ErrNotFound)
		}
		return NewStoreError("Delete", name, err.Error(), err)
	}

	s.log.Info("template deleted", zap.String("name", name))

	return nil
}

// Close is a no-op; the directory stays in place.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) read(name string) (*Record, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewStoreError("Load", name, "template not found", ErrNotFound)
		}
		return nil, NewStoreError("Load", name, err.Error(), err)
	}

	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, NewStoreError("Load", name, fmt.Sprintf("failed to parse record: %v", err), ErrInvalidData)
	}

	if rec.Name != name {
		return nil, NewStoreError("Load", name, fmt.Sprintf("file holds template %q", rec.Name), ErrInvalidData)
	}

	return &rec, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
