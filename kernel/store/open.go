package store

import (
	"github.com/openziti/vmcap/kernel/model"
	"github.com/pkg/errors"
)

// Open creates the store selected by cfg.
func Open(cfg model.StoreConfig) (VMStore, error) {
	switch cfg.Backend {
	case model.MemoryBackend, "":
		return NewMemoryStore(), nil
	case model.FileBackend:
		return NewFileStore(cfg.Path), nil
	case model.BadgerBackend:
		return NewBadgerStore(cfg.Path)
	}
	return nil, errors.Errorf("unknown store backend '%s'", cfg.Backend)
}
