package store

import (
	"sort"

	"github.com/openziti/vmcap/kernel/model"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// MemoryStore is an in-memory implementation of VMStore for testing.
type MemoryStore struct {
	vms cmap.ConcurrentMap[string, model.VMRecord]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{vms: cmap.New[model.VMRecord]()}
}

// GetVM returns a copy of the stored record.
func (s *MemoryStore) GetVM(id string) (*model.VMRecord, error) {
	rec, ok := s.vms.Get(id)
	if !ok {
		return nil, notFound(id)
	}
	return &rec, nil
}

func (s *MemoryStore) SaveVM(rec *model.VMRecord) error {
	s.vms.Set(rec.ID, *rec)
	return nil
}

func (s *MemoryStore) DeleteVM(id string) error {
	s.vms.Remove(id)
	return nil
}

func (s *MemoryStore) ListVMs() ([]string, error) {
	keys := s.vms.Keys()
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
