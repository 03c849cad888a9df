package memory

import (
	"context"
	"sync"

	"github.com/viant/arbiter/service/dao"
	"github.com/viant/arbiter/state"
)

// Service implements an in-memory, thread-safe checkpoint store.  All API
// methods work with copies to eliminate data races between goroutines.
type Service struct {
	checkpoints map[string]*state.Checkpoint
	mux         sync.RWMutex
}

var _ dao.Service[string, state.Checkpoint] = (*Service)(nil)

func (s *Service) Save(_ context.Context, checkpoint *state.Checkpoint) error {
	if checkpoint == nil {
		return dao.ErrNilEntity
	}
	if checkpoint.ID == "" {
		return dao.ErrInvalidID
	}

	s.mux.Lock()
	defer s.mux.Unlock()
	s.checkpoints[checkpoint.ID] = checkpoint.Clone()
	return nil
}

func (s *Service) Load(_ context.Context, id string) (*state.Checkpoint, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}

	s.mux.RLock()
	checkpoint, ok := s.checkpoints[id]
	s.mux.RUnlock()

	if !ok {
		return nil, dao.ErrNotFound
	}
	return checkpoint.Clone(), nil
}

func (s *Service) Delete(_ context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	if _, ok := s.checkpoints[id]; !ok {
		return dao.ErrNotFound
	}
	delete(s.checkpoints, id)
	return nil
}

func (s *Service) List(_ context.Context, parameters ...*dao.Parameter) ([]*state.Checkpoint, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()

	out := make([]*state.Checkpoint, 0, len(s.checkpoints))
	for _, checkpoint := range s.checkpoints {
		if !dao.FilterByID(checkpoint.ID, parameters) {
			continue
		}
		out = append(out, checkpoint.Clone())
	}
	return out, nil
}

func New() *Service {
	return &Service{checkpoints: map[string]*state.Checkpoint{}}
}
