package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"github.com/viant/tickos/service/dao"
	"github.com/viant/tickos/service/dao/criteria"
	"github.com/viant/tickos/service/snapshot"
)

// Service stores snapshots as JSON files under a base URL of any afs
// supported storage.
type Service struct {
	basePath string
	fs       afs.Service
	mu       sync.RWMutex
}

// Ensure Service implements dao.Service
var _ dao.Service[string, snapshot.Snapshot] = (*Service)(nil)

// Save persists a snapshot.
func (s *Service) Save(ctx context.Context, aSnapshot *snapshot.Snapshot) error {
	if aSnapshot == nil {
		return dao.ErrNilEntity
	}
	if aSnapshot.ID == "" {
		return dao.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(aSnapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	filePath := s.snapshotPath(aSnapshot.ID)
	if err = s.fs.Upload(ctx, filePath, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save snapshot to file %s: %w", filePath, err)
	}
	return nil
}

// Load retrieves a snapshot or dao.ErrNotFound.
func (s *Service) Load(ctx context.Context, id string) (*snapshot.Snapshot, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	filePath := s.snapshotPath(id)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to check if snapshot exists: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("snapshot %s: %w", id, dao.ErrNotFound)
	}

	data, err := s.fs.DownloadWithURL(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var ret snapshot.Snapshot
	if err := json.Unmarshal(data, &ret); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot data: %w", err)
	}
	return &ret, nil
}

// Delete removes a snapshot.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	filePath := s.snapshotPath(id)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return fmt.Errorf("failed to check if snapshot exists: %w", err)
	}
	if !exists {
		return fmt.Errorf("snapshot %s: %w", id, dao.ErrNotFound)
	}
	if err := s.fs.Delete(ctx, filePath); err != nil {
		return fmt.Errorf("failed to delete snapshot file: %w", err)
	}
	return nil
}

// List returns the stored snapshots ordered by ID.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*snapshot.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, err := s.fs.List(ctx, s.basePath, option.NewRecursive(false))
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot files: %w", err)
	}

	var ret []*snapshot.Snapshot
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot file %s: %w", object.URL(), err)
		}
		var aSnapshot snapshot.Snapshot
		if err := json.Unmarshal(data, &aSnapshot); err != nil {
			return nil, fmt.Errorf("failed to unmarshal snapshot %s: %w", object.URL(), err)
		}
		if !criteria.FilterByID(aSnapshot.ID, parameters) {
			continue
		}
		ret = append(ret, &aSnapshot)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].ID < ret[j].ID })
	return ret, nil
}

func (s *Service) snapshotPath(id string) string {
	return path.Join(s.basePath, fmt.Sprintf("%s.json", id))
}

// New creates a store rooted at basePath, creating the directory if needed.
func New(basePath string) (*Service, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}

	fs := afs.New()
	ctx := context.Background()
	exists, _ := fs.Exists(ctx, basePath)
	if !exists {
		if err := fs.Create(ctx, basePath, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", err)
		}
	}

	return &Service{
		basePath: url.Normalize(basePath, file.Scheme),
		fs:       fs,
	}, nil
}
