package vm

import (
	"context"
	"errors"
	"testing"

	"github.com/openziti/vmcap/kernel/capability"
	"github.com/openziti/vmcap/kernel/model"
	"github.com/openziti/vmcap/kernel/power"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServices struct {
	live      []string
	exists    bool
	err       error
	diskCalls int
}

func (s *fakeServices) CollectDisksByRefs(_ context.Context, _ []string) ([]string, error) {
	s.diskCalls++
	return s.live, s.err
}

func (s *fakeServices) VMExistsOnProvider(_ context.Context, _ string) (bool, error) {
	return s.exists, s.err
}

func newManager(t *testing.T, services model.ProviderServices, features ...string) model.ManagementSystem {
	t.Helper()
	m, err := model.NewManager(model.ManagerConfig{
		ID:           "rhv-1",
		Type:         "generic",
		Capabilities: features,
		Services:     services,
	})
	require.NoError(t, err)
	return m
}

var (
	storageA = &model.Storage{ID: "a", Name: "data-a", EmsRef: "/api/storagedomains/a"}
	storageB = &model.Storage{ID: "b", Name: "data-b", EmsRef: "/api/storagedomains/b"}
)

func TestCurrentState(t *testing.T) {
	v := New("vm-1", "web")

	v.PowerState = "powering_up"
	assert.Equal(t, power.On, v.CurrentState())
	v.PowerState = "down"
	assert.Equal(t, power.Off, v.CurrentState())
	v.PowerState = "image_locked"
	assert.Equal(t, power.Unknown, v.CurrentState())
}

func TestCurrentState_InjectedFallback(t *testing.T) {
	n := power.NewNormalizer(power.FallbackFunc(func(string) power.CanonicalState { return "template" }))
	v := New("vm-1", "web", WithNormalizer(n))
	v.PowerState = "never_started"

	assert.Equal(t, power.CanonicalState("template"), v.CurrentState())
}

func TestManagementSystem_NilIsUntyped(t *testing.T) {
	v := New("vm-1", "web")
	assert.Nil(t, v.ManagementSystem())
	assert.Equal(t, "The virtual machine is not associated with a provider", v.UnsupportedReason(capability.Publish))
}

func TestPublish(t *testing.T) {
	v := New("vm-1", "web")
	v.Lifecycle = model.Active
	v.Manager = newManager(t, &fakeServices{}, "publish")
	v.PowerState = "down"

	assert.True(t, v.Supports(capability.Publish))
	assert.Empty(t, v.UnsupportedReason(capability.Publish))

	v.PowerState = "up"
	assert.False(t, v.Supports(capability.Publish))
	assert.Equal(t, capability.ReasonMustBeDown, v.UnsupportedReason(capability.Publish))

	v.PowerState = "down"
	v.Lifecycle = v.Lifecycle.With(model.Archived)
	assert.Equal(t, capability.ReasonPublishLifecycle, v.UnsupportedReason(capability.Publish))
}

func TestReconfigureDisksize_Boundary(t *testing.T) {
	v := New("vm-1", "web")
	v.Snapshots = []*model.Snapshot{{ID: "s1"}}
	assert.True(t, v.Supports(capability.ReconfigureDisksize))

	v.Snapshots = append(v.Snapshots, &model.Snapshot{ID: "s2"})
	assert.False(t, v.Supports(capability.ReconfigureDisksize))
}

func TestDecisions_AllCarryReasons(t *testing.T) {
	v := New("vm-1", "web")
	v.Lifecycle = model.Blank

	decisions := v.Decisions()
	require.Len(t, decisions, 6)
	for _, d := range decisions {
		if d.Operation == capability.ReconfigureNetworkAdapters || d.Operation == capability.ReconfigureDisksize {
			assert.True(t, d.Supported)
			continue
		}
		assert.False(t, d.Supported, d.Operation)
		assert.NotEmpty(t, d.Reason, d.Operation)
	}
}

func TestDisconnectStorage_PrunesSecondary(t *testing.T) {
	services := &fakeServices{live: []string{storageA.EmsRef}}
	v := New("vm-1", "web")
	v.Lifecycle = model.Active
	v.Manager = newManager(t, services)
	v.Storage = storageA
	v.Storages = []*model.Storage{storageA, storageB}
	v.Hardware = &model.Hardware{Disks: []*model.Disk{{Filename: "disk-1", Storage: storageA}}}

	result, err := v.DisconnectStorage(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []*model.Storage{storageB}, result.Disconnected)
	assert.Same(t, storageA, v.Storage)
	assert.Equal(t, []*model.Storage{storageA}, v.Storages)
	assert.Equal(t, 1, services.diskCalls)
}

func TestDisconnectStorage_EmptyHardware(t *testing.T) {
	services := &fakeServices{live: []string{storageA.EmsRef}}
	v := New("vm-1", "web")
	v.Lifecycle = model.Active
	v.Manager = newManager(t, services)
	v.Storage = storageA
	v.Storages = []*model.Storage{storageB}
	v.Hardware = &model.Hardware{}

	_, err := v.DisconnectStorage(context.Background())
	require.NoError(t, err)

	assert.Nil(t, v.Storage)
	assert.Empty(t, v.Storages)
	assert.Zero(t, services.diskCalls)
	assert.False(t, v.Supports(capability.ReconfigureDisks))
}

func TestDisconnectStorage_NilSecondary(t *testing.T) {
	services := &fakeServices{}
	v := New("vm-1", "web")
	v.Lifecycle = model.Active
	v.Manager = newManager(t, services)
	v.Storages = []*model.Storage{nil, storageB}
	v.Hardware = &model.Hardware{}

	result, err := v.DisconnectStorage(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []*model.Storage{storageB}, result.Disconnected)
	assert.Empty(t, v.Storages)
	assert.Empty(t, v.StorageSet())
}

func TestRemoveStorages_SkipsNil(t *testing.T) {
	v := New("vm-1", "web")
	v.Storage = storageA
	v.Storages = []*model.Storage{nil, storageA, storageB}

	v.RemoveStorages([]*model.Storage{storageB})

	assert.Same(t, storageA, v.Storage)
	assert.Equal(t, []*model.Storage{storageA}, v.Storages)
}

func TestDisconnectStorage_InactiveIsNoop(t *testing.T) {
	services := &fakeServices{}
	v := New("vm-1", "web")
	v.Lifecycle = model.Orphaned
	v.Manager = newManager(t, services)
	v.Storage = storageA

	result, err := v.DisconnectStorage(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Same(t, storageA, v.Storage)
	assert.Zero(t, services.diskCalls)
}

func TestDisconnectStorage_QueryFailure(t *testing.T) {
	boom := errors.New("connection refused")
	v := New("vm-1", "web")
	v.Lifecycle = model.Active
	v.Manager = newManager(t, &fakeServices{err: boom})
	v.Storage = storageA
	v.Hardware = &model.Hardware{Disks: []*model.Disk{{Filename: "disk-1", Storage: storageA}}}

	_, err := v.DisconnectStorage(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Same(t, storageA, v.Storage)
}

func TestCollectDisks(t *testing.T) {
	v := New("vm-1", "web")
	disks, err := v.CollectDisks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, disks)

	v.Hardware = &model.Hardware{Disks: []*model.Disk{{Filename: "disk-1", Storage: storageA}}}
	_, err = v.CollectDisks(context.Background())
	assert.Error(t, err)

	v.Manager = newManager(t, &fakeServices{live: []string{storageA.EmsRef}})
	disks, err = v.CollectDisks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{storageA.EmsRef}, disks)
	assert.Equal(t, []string{"/api/storagedomains/a/disks/disk-1"}, v.DiskRefs())
}

func TestExistsOnProvider(t *testing.T) {
	v := New("vm-1", "web")
	exists, err := v.ExistsOnProvider(context.Background())
	require.NoError(t, err)
	assert.False(t, exists)

	v.Manager = newManager(t, &fakeServices{exists: true})
	exists, err = v.ExistsOnProvider(context.Background())
	require.NoError(t, err)
	assert.True(t, exists)

	boom := errors.New("timeout")
	v.Manager = newManager(t, &fakeServices{err: boom})
	_, err = v.ExistsOnProvider(context.Background())
	assert.ErrorIs(t, err, boom)

	v.Manager = newManager(t, nil)
	_, err = v.ExistsOnProvider(context.Background())
	assert.Error(t, err)
}

func TestParentCluster(t *testing.T) {
	dc := &model.PlacementNode{ID: "dc", Kind: model.KindDatacenter}
	cluster := &model.PlacementNode{ID: "cl", Kind: model.KindCluster, Parent: dc}
	pool := &model.PlacementNode{ID: "rp", Kind: model.KindResourcePool, Parent: cluster}

	v := New("vm-1", "web")
	assert.Nil(t, v.ParentCluster())

	v.Parent = pool
	assert.Same(t, cluster, v.ParentCluster())
	assert.Same(t, cluster, v.OwningCluster())
	assert.Same(t, cluster, v.EmsCluster())

	v.Parent = &model.PlacementNode{ID: "orphan-rp", Kind: model.KindResourcePool}
	assert.Nil(t, v.ParentCluster())
}

func TestParamsForCreateSnapshot(t *testing.T) {
	v := New("vm-1", "web")
	v.PowerState = "up"

	schema := v.ParamsForCreateSnapshot()
	require.Len(t, schema.Fields, 2)
	assert.Equal(t, "description", schema.Fields[0].Name)
	assert.True(t, schema.Fields[0].IsRequired)
	assert.Equal(t, []Validation{{Type: "required"}}, schema.Fields[0].Validate)
	assert.Equal(t, "switch", schema.Fields[1].Component)
	assert.False(t, schema.Fields[1].IsDisabled)

	v.PowerState = "suspended"
	assert.True(t, v.ParamsForCreateSnapshot().Fields[1].IsDisabled)
}

func TestRecord(t *testing.T) {
	v := New("vm-1", "web")
	v.EmsRef = "/api/vms/1"
	v.PowerState = "up"
	v.Lifecycle = model.Active
	v.Manager = newManager(t, nil)
	v.Storage = storageA
	v.Storages = []*model.Storage{storageB}
	v.Hardware = &model.Hardware{Disks: []*model.Disk{{Filename: "disk-1", Size: 1 << 30, Storage: storageA}, {Filename: "cd"}}}
	v.Snapshots = []*model.Snapshot{{ID: "s1", Name: "Active VM"}}
	v.Parent = &model.PlacementNode{ID: "rp"}

	rec := v.Record()
	assert.Equal(t, "rhv-1", rec.ManagerID)
	assert.Equal(t, "a", rec.StorageID)
	assert.Equal(t, []string{"b"}, rec.StorageIDs)
	assert.Equal(t, []string{"active"}, rec.Lifecycle)
	require.Len(t, rec.Disks, 2)
	assert.Equal(t, "a", rec.Disks[0].StorageID)
	assert.Empty(t, rec.Disks[1].StorageID)
	assert.Equal(t, "rp", rec.ParentID)
	assert.Len(t, rec.Snapshots, 1)
}

func TestMisc(t *testing.T) {
	v := New("vm-1", "web")
	assert.True(t, v.ScanViaEMS())
	assert.True(t, v.HasRequiredHost())
	assert.Equal(t, "Virtual Machine (Red Hat)", DisplayName(1))
	assert.Equal(t, "Virtual Machines (Red Hat)", DisplayName(2))
}
