package engine

import (
	"context"
	"fmt"

	"github.com/openziti/vmcap/kernel/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DiskQuery answers which storages actually back the given disk refs.
type DiskQuery interface {
	CollectDisksByRefs(ctx context.Context, refs []string) ([]string, error)
}

// Target is a resource whose storage associations can be reconciled.
type Target interface {
	Identity() string
	IsActive() bool
	// StorageSet is the primary plus secondary storages, deduplicated.
	StorageSet() []*model.Storage
	// Disks are the hardware disk descriptors; nil when hardware is unknown.
	Disks() []*model.Disk
	// DiskQuery returns nil when the target has no provider to ask.
	DiskQuery() DiskQuery
	RemoveStorages(stale []*model.Storage)
}

// StorageDisconnector removes stale storage associations from a target.
type StorageDisconnector interface {
	Disconnect(ctx context.Context, t Target, stale []*model.Storage) error
}

// DefaultDisconnector drops the associations from the target itself.
type DefaultDisconnector struct{}

func (DefaultDisconnector) Disconnect(_ context.Context, t Target, stale []*model.Storage) error {
	t.RemoveStorages(stale)
	return nil
}

// DryRunDisconnector reports stale storages without touching the target.
type DryRunDisconnector struct{}

func (DryRunDisconnector) Disconnect(_ context.Context, t Target, stale []*model.Storage) error {
	for _, s := range stale {
		logrus.WithField("vm", t.Identity()).Infof("dry run: would disconnect storage [%s]", s.EmsRef)
	}
	return nil
}

type Result struct {
	Target       string
	Skipped      bool
	Kept         []*model.Storage
	Disconnected []*model.Storage
}

type DiskReconciler struct {
	Disconnector StorageDisconnector
}

func NewDiskReconciler(d StorageDisconnector) *DiskReconciler {
	if d == nil {
		d = DefaultDisconnector{}
	}
	return &DiskReconciler{Disconnector: d}
}

// DiskRef builds the composite key the provider uses to identify a disk.
func DiskRef(storageRef, filename string) string {
	return fmt.Sprintf("%s/disks/%s", storageRef, filename)
}

// DiskRefs returns the composite keys of every disk that has a storage.
func DiskRefs(disks []*model.Disk) []string {
	refs := make([]string, 0, len(disks))
	for _, disk := range disks {
		if disk == nil || disk.Storage == nil {
			continue
		}
		refs = append(refs, DiskRef(disk.Storage.EmsRef, disk.Filename))
	}
	return refs
}

// Reconcile disconnects the target's storages that no live disk is placed on.
// Inactive targets and targets without storages are left untouched.
func (r *DiskReconciler) Reconcile(ctx context.Context, t Target) (*Result, error) {
	result := &Result{Target: t.Identity()}
	log := logrus.WithField("vm", t.Identity())

	if !t.IsActive() {
		log.Debug("not active, skipping storage reconciliation")
		result.Skipped = true
		return result, nil
	}

	storages := t.StorageSet()
	if len(storages) == 0 {
		log.Debug("no storages, skipping storage reconciliation")
		result.Skipped = true
		return result, nil
	}

	live, err := r.liveStorages(ctx, t)
	if err != nil {
		return nil, err
	}

	for _, s := range storages {
		if _, ok := live[s.EmsRef]; ok {
			result.Kept = append(result.Kept, s)
		} else {
			result.Disconnected = append(result.Disconnected, s)
		}
	}
	reconciliations.Inc()

	if len(result.Disconnected) == 0 {
		log.Debugf("all %d storage(s) backed by live disks", len(storages))
		return result, nil
	}

	if err := r.Disconnector.Disconnect(ctx, t, result.Disconnected); err != nil {
		return nil, errors.Wrapf(err, "unable to disconnect storages from vm [%s]", t.Identity())
	}
	storagesDisconnected.Add(float64(len(result.Disconnected)))

	for _, s := range result.Disconnected {
		log.WithField("storage", s.EmsRef).Info("disconnected storage without live disks")
	}
	return result, nil
}

func (r *DiskReconciler) liveStorages(ctx context.Context, t Target) (map[string]struct{}, error) {
	live := make(map[string]struct{})

	refs := DiskRefs(t.Disks())
	if len(refs) == 0 {
		return live, nil
	}

	query := t.DiskQuery()
	if query == nil {
		return nil, errors.Errorf("vm [%s] has no provider to query disks from", t.Identity())
	}

	storageRefs, err := query.CollectDisksByRefs(ctx, refs)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to collect disks for vm [%s]", t.Identity())
	}
	for _, ref := range storageRefs {
		live[ref] = struct{}{}
	}
	return live, nil
}
