package vm

import (
	"context"

	"github.com/openziti/vmcap/kernel/capability"
	"github.com/openziti/vmcap/kernel/engine"
	"github.com/openziti/vmcap/kernel/model"
	"github.com/openziti/vmcap/kernel/power"
	"github.com/pkg/errors"
)

var (
	defaultNormalizer   = power.NewNormalizer(nil)
	defaultCapabilities = capability.NewVMRegistry()
	defaultReconciler   = engine.NewDiskReconciler(nil)
)

// VM is a Red Hat Virtualization virtual machine as tracked by the platform.
type VM struct {
	ID     string
	Name   string
	EmsRef string
	// PowerState is the raw provider state, e.g. "up" or "powering_up".
	PowerState string

	Storage   *model.Storage
	Storages  []*model.Storage
	Hardware  *model.Hardware
	Snapshots []*model.Snapshot
	Lifecycle model.Lifecycle

	// Manager is nil for VMs no longer associated with a provider.
	Manager model.ManagementSystem
	// Parent is the resource pool the VM is placed in.
	Parent *model.PlacementNode

	normalizer   *power.Normalizer
	capabilities *capability.Registry
	reconciler   *engine.DiskReconciler
}

type Option func(*VM)

func WithNormalizer(n *power.Normalizer) Option {
	return func(v *VM) { v.normalizer = n }
}

func WithCapabilities(r *capability.Registry) Option {
	return func(v *VM) { v.capabilities = r }
}

func WithReconciler(r *engine.DiskReconciler) Option {
	return func(v *VM) { v.reconciler = r }
}

func New(id, name string, opts ...Option) *VM {
	v := &VM{
		ID:           id,
		Name:         name,
		normalizer:   defaultNormalizer,
		capabilities: defaultCapabilities,
		reconciler:   defaultReconciler,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *VM) Identity() string {
	return v.ID
}

func (v *VM) CurrentState() power.CanonicalState {
	return v.normalizer.Normalize(v.PowerState)
}

func (v *VM) IsBlank() bool { return v.Lifecycle.Has(model.Blank) }
func (v *VM) IsOrphaned() bool { return v.Lifecycle.Has(model.Orphaned) }
func (v *VM) IsArchived() bool { return v.Lifecycle.Has(model.Archived) }
func (v *VM) IsActive() bool { return v.Lifecycle.Has(model.Active) }

func (v *VM) HasStorage() bool {
	return v.Storage != nil
}

// ManagementSystem returns the owning provider, or an untyped nil.
func (v *VM) ManagementSystem() capability.Provider {
	if v.Manager == nil {
		return nil
	}
	return v.Manager
}

func (v *VM) SnapshotCount() int {
	return len(v.Snapshots)
}

// Decision evaluates op against the VM's current attributes.
func (v *VM) Decision(op capability.Operation) capability.Decision {
	return v.capabilities.Evaluate(op, v)
}

func (v *VM) Decisions() []capability.Decision {
	return v.capabilities.EvaluateAll(v)
}

func (v *VM) Supports(op capability.Operation) bool {
	return v.Decision(op).Supported
}

// UnsupportedReason is empty when op is supported.
func (v *VM) UnsupportedReason(op capability.Operation) string {
	return v.Decision(op).Reason
}

// StorageSet is the primary storage plus secondary storages, deduplicated.
func (v *VM) StorageSet() []*model.Storage {
	return model.UniqueStorages(append([]*model.Storage{v.Storage}, v.Storages...)...)
}

func (v *VM) Disks() []*model.Disk {
	if v.Hardware == nil {
		return nil
	}
	return v.Hardware.Disks
}

// DiskRefs returns the provider keys of the VM's disks placed on a storage.
func (v *VM) DiskRefs() []string {
	return engine.DiskRefs(v.Disks())
}

func (v *VM) DiskQuery() engine.DiskQuery {
	services := v.services()
	if services == nil {
		return nil
	}
	return services
}

func (v *VM) services() model.ProviderServices {
	if v.Manager == nil {
		return nil
	}
	return v.Manager.Services()
}

// RemoveStorages drops the given storages from the primary and secondary
// associations. Nil secondary entries are dropped as well.
func (v *VM) RemoveStorages(stale []*model.Storage) {
	drop := make(map[string]struct{}, len(stale))
	for _, s := range stale {
		drop[s.ID] = struct{}{}
	}
	if v.Storage != nil {
		if _, ok := drop[v.Storage.ID]; ok {
			v.Storage = nil
		}
	}
	var kept []*model.Storage
	for _, s := range v.Storages {
		if s == nil {
			continue
		}
		if _, ok := drop[s.ID]; !ok {
			kept = append(kept, s)
		}
	}
	v.Storages = kept
}

// CollectDisks asks the provider which of the VM's storages back a live disk.
func (v *VM) CollectDisks(ctx context.Context) ([]string, error) {
	if v.Hardware == nil {
		return nil, nil
	}
	services := v.services()
	if services == nil {
		return nil, errors.Errorf("vm [%s] has no provider services", v.ID)
	}
	return services.CollectDisksByRefs(ctx, v.DiskRefs())
}

// DisconnectStorage prunes storage associations that no live disk is placed on.
func (v *VM) DisconnectStorage(ctx context.Context) (*engine.Result, error) {
	return v.reconciler.Reconcile(ctx, v)
}

// ExistsOnProvider reports whether the provider still knows the VM. VMs
// without a management system never exist on a provider.
func (v *VM) ExistsOnProvider(ctx context.Context) (bool, error) {
	if v.Manager == nil {
		return false, nil
	}
	services := v.Manager.Services()
	if services == nil {
		return false, errors.Errorf("manager [%s] has no provider services", v.Manager.ID())
	}
	return services.VMExistsOnProvider(ctx, v.EmsRef)
}

// ParentCluster returns the nearest cluster above the VM's resource pool.
func (v *VM) ParentCluster() *model.PlacementNode {
	if v.Parent == nil {
		return nil
	}
	return v.Parent.DetectAncestor(model.KindCluster)
}

func (v *VM) OwningCluster() *model.PlacementNode {
	return v.ParentCluster()
}

func (v *VM) EmsCluster() *model.PlacementNode {
	return v.ParentCluster()
}

// ScanViaEMS is true: RHV VMs are scanned through the engine, not a host agent.
func (v *VM) ScanViaEMS() bool {
	return true
}

func (v *VM) HasRequiredHost() bool {
	return true
}

func DisplayName(n int) string {
	if n == 1 {
		return "Virtual Machine (Red Hat)"
	}
	return "Virtual Machines (Red Hat)"
}
