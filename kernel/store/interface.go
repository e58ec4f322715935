package store

import (
	"github.com/openziti/vmcap/kernel/model"
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("not found")

// VMStore persists VM records between reconciliation runs.
type VMStore interface {
	GetVM(id string) (*model.VMRecord, error)
	SaveVM(rec *model.VMRecord) error
	DeleteVM(id string) error
	ListVMs() ([]string, error)
	Close() error
}

func notFound(id string) error {
	return errors.Wrapf(ErrNotFound, "vm [%s]", id)
}
