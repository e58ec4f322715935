package provider

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var ErrUnreachable = errors.New("provider unreachable")

const diskSeparator = "/disks/"

// InventoryServices answers provider queries from a recorded snapshot of the
// provider's live state instead of a network connection.
type InventoryServices struct {
	ManagerID string

	mu        sync.RWMutex
	liveDisks map[string]struct{}
	liveVMs   map[string]struct{}
	offline   bool
}

func NewInventoryServices(managerID string, liveDisks, liveVMs []string) *InventoryServices {
	s := &InventoryServices{
		ManagerID: managerID,
		liveDisks: make(map[string]struct{}, len(liveDisks)),
		liveVMs:   make(map[string]struct{}, len(liveVMs)),
	}
	for _, ref := range liveDisks {
		s.liveDisks[ref] = struct{}{}
	}
	for _, ref := range liveVMs {
		s.liveVMs[ref] = struct{}{}
	}
	return s
}

// SetOffline makes every query fail with ErrUnreachable until reset.
func (s *InventoryServices) SetOffline(offline bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offline = offline
}

// SplitDiskRef splits "{storage}/disks/{filename}" into its parts.
func SplitDiskRef(ref string) (storageRef, filename string, ok bool) {
	i := strings.LastIndex(ref, diskSeparator)
	if i <= 0 {
		return "", "", false
	}
	return ref[:i], ref[i+len(diskSeparator):], true
}

// CollectDisksByRefs returns the distinct storage refs of the requested disks
// that are live, in request order.
func (s *InventoryServices) CollectDisksByRefs(ctx context.Context, refs []string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.offline {
		return nil, errors.Wrapf(ErrUnreachable, "manager [%s]", s.ManagerID)
	}

	seen := make(map[string]struct{})
	var storages []string
	for _, ref := range refs {
		if _, live := s.liveDisks[ref]; !live {
			logrus.WithField("manager", s.ManagerID).Debugf("disk [%s] not found on provider", ref)
			continue
		}
		storageRef, _, ok := SplitDiskRef(ref)
		if !ok {
			continue
		}
		if _, dup := seen[storageRef]; dup {
			continue
		}
		seen[storageRef] = struct{}{}
		storages = append(storages, storageRef)
	}
	return storages, nil
}

func (s *InventoryServices) VMExistsOnProvider(ctx context.Context, vmEmsRef string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.offline {
		return false, errors.Wrapf(ErrUnreachable, "manager [%s]", s.ManagerID)
	}
	_, ok := s.liveVMs[vmEmsRef]
	return ok, nil
}
