package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gofrs/flock"
	"github.com/openziti/vmcap/kernel/model"
	"github.com/pkg/errors"
)

// FileStore keeps all VM records in one JSON file. Writers in other
// processes are excluded with a flock on "<path>.lock".
type FileStore struct {
	path string
	fl   *flock.Flock
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		fl:   flock.New(path + ".lock"),
	}
}

func (s *FileStore) GetVM(id string) (*model.VMRecord, error) {
	var out *model.VMRecord
	err := s.withLock(false, func() error {
		vms, err := s.readUnsafe()
		if err != nil {
			return err
		}
		rec, ok := vms[id]
		if !ok {
			return notFound(id)
		}
		out = rec
		return nil
	})
	return out, err
}

func (s *FileStore) SaveVM(rec *model.VMRecord) error {
	return s.withLock(true, func() error {
		vms, err := s.readUnsafe()
		if err != nil {
			return err
		}
		vms[rec.ID] = rec
		return s.writeUnsafe(vms)
	})
}

func (s *FileStore) DeleteVM(id string) error {
	return s.withLock(true, func() error {
		vms, err := s.readUnsafe()
		if err != nil {
			return err
		}
		delete(vms, id)
		return s.writeUnsafe(vms)
	})
}

func (s *FileStore) ListVMs() ([]string, error) {
	var keys []string
	err := s.withLock(false, func() error {
		vms, err := s.readUnsafe()
		if err != nil {
			return err
		}
		keys = make([]string, 0, len(vms))
		for k := range vms {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil
	})
	return keys, err
}

func (s *FileStore) Close() error {
	return s.fl.Close()
}

func (s *FileStore) withLock(write bool, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return errors.Wrap(err, "failed to create directory")
	}

	var err error
	if write {
		err = s.fl.Lock()
	} else {
		err = s.fl.RLock()
	}
	if err != nil {
		return errors.Wrapf(err, "failed to lock [%s]", s.path)
	}
	defer func() { _ = s.fl.Unlock() }()

	return fn()
}

func (s *FileStore) readUnsafe() (map[string]*model.VMRecord, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[string]*model.VMRecord), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read vms")
	}

	vms := make(map[string]*model.VMRecord)
	if err := json.Unmarshal(data, &vms); err != nil {
		return nil, errors.Wrap(err, "failed to parse vms")
	}
	return vms, nil
}

func (s *FileStore) writeUnsafe(vms map[string]*model.VMRecord) error {
	data, err := json.MarshalIndent(vms, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal vms")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write vms")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "failed to replace vms")
	}
	return nil
}
