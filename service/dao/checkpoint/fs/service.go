package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"github.com/viant/arbiter/service/dao"
	"github.com/viant/arbiter/state"
)

// Service implements a filesystem-based checkpoint store on top of afs, so
// the base path may point at any supported scheme (file, mem, s3...).
type Service struct {
	basePath string
	fs       afs.Service
	mu       sync.RWMutex
}

var _ dao.Service[string, state.Checkpoint] = (*Service)(nil)

// Save persists a checkpoint as a JSON document.
func (s *Service) Save(ctx context.Context, checkpoint *state.Checkpoint) error {
	if checkpoint == nil {
		return dao.ErrNilEntity
	}
	if checkpoint.ID == "" {
		return dao.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(checkpoint)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	filePath := s.checkpointPath(checkpoint.ID)
	if err = s.fs.Upload(ctx, filePath, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save checkpoint to file %s: %w", filePath, err)
	}
	return nil
}

// Load retrieves a checkpoint by id.
func (s *Service) Load(ctx context.Context, id string) (*state.Checkpoint, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	filePath := s.checkpointPath(id)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to check if checkpoint exists: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("checkpoint %s: %w", id, dao.ErrNotFound)
	}

	data, err := s.fs.DownloadWithURL(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	checkpoint := &state.Checkpoint{}
	if err := json.Unmarshal(data, checkpoint); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint data: %w", err)
	}
	return checkpoint, nil
}

// Delete removes a checkpoint by id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	filePath := s.checkpointPath(id)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return fmt.Errorf("failed to check if checkpoint exists: %w", err)
	}
	if !exists {
		return fmt.Errorf("checkpoint %s: %w", id, dao.ErrNotFound)
	}
	if err := s.fs.Delete(ctx, filePath); err != nil {
		return fmt.Errorf("failed to delete checkpoint file: %w", err)
	}
	return nil
}

// List returns the stored checkpoints, newest ordering left to the caller.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*state.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, err := s.fs.List(ctx, s.basePath, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoint files: %w", err)
	}

	var checkpoints []*state.Checkpoint
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			continue
		}
		checkpoint := &state.Checkpoint{}
		if err := json.Unmarshal(data, checkpoint); err != nil {
			continue
		}
		if !dao.FilterByID(checkpoint.ID, parameters) {
			continue
		}
		checkpoints = append(checkpoints, checkpoint)
	}
	return checkpoints, nil
}

// checkpointPath joins scheme-aware: path.Join would collapse the "//" of a
// normalized base URL and relocate checkpoints outside the base.
func (s *Service) checkpointPath(id string) string {
	return url.Join(s.basePath, fmt.Sprintf("%s.json", id))
}

// New creates a filesystem checkpoint store rooted at basePath.
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
	basePath = url.Normalize(basePath, file.Scheme)

	return &Service{basePath: basePath, fs: fs}, nil
}
