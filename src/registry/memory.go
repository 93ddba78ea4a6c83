package registry

import (
	"context"
	"sync"

	"github.com/admiralbulldogtv/echotts/src/datastructures"
	"github.com/admiralbulldogtv/echotts/src/instances"
)

type memoryStore struct {
	mtx      sync.RWMutex
	profiles map[string]datastructures.VoiceProfile
}

// NewMemoryStore keeps profiles for the lifetime of the process only.
// Voices cloned on the provider survive a restart, their profiles do not.
func NewMemoryStore() instances.ProfileStore {
	return &memoryStore{
		profiles: map[string]datastructures.VoiceProfile{},
	}
}

func (s *memoryStore) Insert(ctx context.Context, p datastructures.VoiceProfile) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.profiles[p.ID] = p
	return nil
}

func (s *memoryStore) Get(ctx context.Context, id string) (datastructures.VoiceProfile, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return p, instances.ErrNotFound
	}
	return p, nil
}

func (s *memoryStore) List(ctx context.Context, workspaceID string) ([]datastructures.VoiceProfile, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	out := []datastructures.VoiceProfile{}
	for _, p := range s.profiles {
		if p.WorkspaceID == workspaceID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memoryStore) Update(ctx context.Context, id string, fn func(p *datastructures.VoiceProfile) error) (datastructures.VoiceProfile, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return p, instances.ErrNotFound
	}
	if err := fn(&p); err != nil {
		return p, err
	}
	s.profiles[id] = p
	return p, nil
}

func (s *memoryStore) Delete(ctx context.Context, id string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.profiles[id]; !ok {
		return instances.ErrNotFound
	}
	delete(s.profiles, id)
	return nil
}

func (s *memoryStore) Ping(ctx context.Context) error {
	return nil
}
