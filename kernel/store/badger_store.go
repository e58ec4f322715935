package store

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/openziti/vmcap/kernel/model"
	"github.com/pkg/errors"
)

const vmKeyPrefix = "vm:"

// BadgerStore implements VMStore with Badger DB.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens a store at path. An empty path opens an in-memory store.
func NewBadgerStore(path string) (*BadgerStore, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(filepath.Clean(path))
		opts = opts.WithValueLogFileSize(1 << 20)
	}
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open badger store [%s]", path)
	}
	return &BadgerStore{db: db}, nil
}

func vmKey(id string) []byte {
	return []byte(vmKeyPrefix + id)
}

func (s *BadgerStore) GetVM(id string) (*model.VMRecord, error) {
	var out model.VMRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(vmKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return notFound(id)
			}
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &out)
		})
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *BadgerStore) SaveVM(rec *model.VMRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "failed to marshal vm")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(vmKey(rec.ID), data)
	})
}

func (s *BadgerStore) DeleteVM(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(vmKey(id))
	})
}

func (s *BadgerStore) ListVMs() ([]string, error) {
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(vmKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, strings.TrimPrefix(string(it.Item().Key()), vmKeyPrefix))
		}
		return nil
	})
	sort.Strings(ids)
	return ids, err
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
