package loader

import (
	"github.com/openziti/vmcap/kernel/store"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Overlay replaces inventory VMs with their persisted records, so state
// changed by earlier reconciliations survives a reload. Records for VMs the
// inventory does not know are ignored; records whose references no longer
// resolve are skipped and the inventory copy is kept. Returns the number of
// VMs replaced.
func (inv *Inventory) Overlay(s store.VMStore) (int, error) {
	ids, err := s.ListVMs()
	if err != nil {
		return 0, errors.Wrap(err, "unable to list persisted vms")
	}

	index := make(map[string]int, len(inv.VMs))
	for i, v := range inv.VMs {
		index[v.ID] = i
	}

	replaced := 0
	for _, id := range ids {
		i, found := index[id]
		if !found {
			logrus.WithField("vm", id).Debug("persisted vm not in inventory, ignoring")
			continue
		}
		rec, err := s.GetVM(id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return replaced, errors.Wrapf(err, "unable to read persisted vm [%s]", id)
		}
		v, err := inv.VMFromRecord(rec)
		if err != nil {
			logrus.WithField("vm", id).WithError(err).Warn("persisted record no longer resolves, keeping inventory copy")
			continue
		}
		inv.VMs[i] = v
		replaced++
	}
	return replaced, nil
}
