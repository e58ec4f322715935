package loader

import (
	"os"

	units "github.com/docker/go-units"
	"github.com/google/uuid"
	"github.com/openziti/vmcap/kernel/model"
	"github.com/openziti/vmcap/kernel/provider"
	"github.com/openziti/vmcap/kernel/vm"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type InventoryYaml struct {
	Managers  []ManagerYaml   `yaml:"managers"`
	Placement []NodeYaml      `yaml:"placement"`
	Storages  []model.Storage `yaml:"storages"`
	VMs       []VMYaml        `yaml:"vms"`
}

type ManagerYaml struct {
	model.ManagerConfig `yaml:",inline"`
	Offline             bool     `yaml:"offline"`
	Live                LiveYaml `yaml:"live"`
}

// LiveYaml is the provider-side state the inventory services answer from.
type LiveYaml struct {
	VMs   []string `yaml:"vms"`
	Disks []string `yaml:"disks"`
}

type NodeYaml struct {
	Id     string `yaml:"id"`
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Parent string `yaml:"parent"`
}

type VMYaml struct {
	Id         string           `yaml:"id"`
	Name       string           `yaml:"name"`
	EmsRef     string           `yaml:"ems_ref"`
	Manager    string           `yaml:"manager"`
	PowerState string           `yaml:"power_state"`
	Lifecycle  []string         `yaml:"lifecycle"`
	Storage    string           `yaml:"storage"`
	Storages   []string         `yaml:"storages"`
	Parent     string           `yaml:"parent"`
	Disks      []DiskYaml       `yaml:"disks"`
	Snapshots  []model.Snapshot `yaml:"snapshots"`
}

type DiskYaml struct {
	Filename   string `yaml:"filename"`
	DeviceName string `yaml:"device_name"`
	Size       string `yaml:"size"`
	Storage    string `yaml:"storage"`
}

// Inventory is a resolved inventory: every reference points at a live object.
type Inventory struct {
	Managers map[string]model.ManagementSystem
	Services map[string]*provider.InventoryServices
	Storages map[string]*model.Storage
	Nodes    map[string]*model.PlacementNode
	VMs      []*vm.VM
}

func LoadInventory(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseInventory(data)
}

// ParseInventory validates and resolves an inventory document.
func ParseInventory(data []byte) (*Inventory, error) {
	var doc InventoryYaml
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, errors.Wrap(err, "unable to parse inventory")
	}

	result := Validate(&doc)
	if !result.IsValid() {
		return nil, result.Err()
	}
	return Build(&doc)
}

// Build resolves a validated document into VM facades.
func Build(doc *InventoryYaml) (*Inventory, error) {
	inv := &Inventory{
		Managers: make(map[string]model.ManagementSystem),
		Services: make(map[string]*provider.InventoryServices),
		Storages: make(map[string]*model.Storage),
		Nodes:    make(map[string]*model.PlacementNode),
	}

	for _, m := range doc.Managers {
		services := provider.NewInventoryServices(m.ID, m.Live.Disks, m.Live.VMs)
		services.SetOffline(m.Offline)
		cfg := m.ManagerConfig
		cfg.Services = services
		ems, err := model.NewManager(cfg)
		if err != nil {
			return nil, err
		}
		inv.Managers[m.ID] = ems
		inv.Services[m.ID] = services
	}

	for i := range doc.Storages {
		s := doc.Storages[i]
		inv.Storages[s.ID] = &s
	}

	for _, n := range doc.Placement {
		name := n.Name
		if name == "" {
			name = n.Id
		}
		inv.Nodes[n.Id] = &model.PlacementNode{ID: n.Id, Name: name, Kind: model.NodeKind(n.Kind)}
	}
	for _, n := range doc.Placement {
		if n.Parent != "" {
			inv.Nodes[n.Id].Parent = inv.Nodes[n.Parent]
		}
	}

	for _, v := range doc.VMs {
		rec, err := v.Record()
		if err != nil {
			return nil, err
		}
		built, err := inv.VMFromRecord(rec)
		if err != nil {
			return nil, err
		}
		inv.VMs = append(inv.VMs, built)
	}
	return inv, nil
}

// Record converts the yaml form into a persistable record.
func (v VMYaml) Record() (*model.VMRecord, error) {
	id := v.Id
	if id == "" {
		id = uuid.NewString()
	}
	rec := &model.VMRecord{
		ID:         id,
		Name:       v.Name,
		EmsRef:     v.EmsRef,
		ManagerID:  v.Manager,
		PowerState: v.PowerState,
		StorageID:  v.Storage,
		StorageIDs: v.Storages,
		Snapshots:  v.Snapshots,
		Lifecycle:  v.Lifecycle,
		ParentID:   v.Parent,
	}
	for _, d := range v.Disks {
		var size int64
		if d.Size != "" {
			var err error
			if size, err = units.RAMInBytes(d.Size); err != nil {
				return nil, errors.Wrapf(err, "vm [%s] disk [%s] has invalid size", id, d.Filename)
			}
		}
		rec.Disks = append(rec.Disks, model.DiskRecord{
			Filename:   d.Filename,
			DeviceName: d.DeviceName,
			Size:       size,
			StorageID:  d.Storage,
		})
	}
	return rec, nil
}

// Lookup returns the VM with the given id.
func (inv *Inventory) Lookup(id string) (*vm.VM, bool) {
	for _, v := range inv.VMs {
		if v.ID == id {
			return v, true
		}
	}
	return nil, false
}

// VMFromRecord resolves a record's references against the inventory.
func (inv *Inventory) VMFromRecord(rec *model.VMRecord) (*vm.VM, error) {
	v := vm.New(rec.ID, rec.Name)
	v.EmsRef = rec.EmsRef
	v.PowerState = rec.PowerState

	lifecycle, err := model.ParseLifecycle(rec.Lifecycle)
	if err != nil {
		return nil, errors.Wrapf(err, "vm [%s]", rec.ID)
	}
	v.Lifecycle = lifecycle

	if rec.ManagerID != "" {
		ems, ok := inv.Managers[rec.ManagerID]
		if !ok {
			return nil, errors.Errorf("vm [%s] references unknown manager [%s]", rec.ID, rec.ManagerID)
		}
		v.Manager = ems
	}

	if v.Storage, err = inv.storage(rec.ID, rec.StorageID); err != nil {
		return nil, err
	}
	for _, id := range rec.StorageIDs {
		s, err := inv.storage(rec.ID, id)
		if err != nil {
			return nil, err
		}
		v.Storages = append(v.Storages, s)
	}

	v.Hardware = &model.Hardware{}
	for _, d := range rec.Disks {
		s, err := inv.storage(rec.ID, d.StorageID)
		if err != nil {
			return nil, err
		}
		v.Hardware.Disks = append(v.Hardware.Disks, &model.Disk{
			Filename:   d.Filename,
			DeviceName: d.DeviceName,
			Size:       d.Size,
			Storage:    s,
		})
	}

	for i := range rec.Snapshots {
		snap := rec.Snapshots[i]
		v.Snapshots = append(v.Snapshots, &snap)
	}

	if rec.ParentID != "" {
		parent, ok := inv.Nodes[rec.ParentID]
		if !ok {
			return nil, errors.Errorf("vm [%s] references unknown parent [%s]", rec.ID, rec.ParentID)
		}
		v.Parent = parent
	}
	return v, nil
}

func (inv *Inventory) storage(vmId, id string) (*model.Storage, error) {
	if id == "" {
		return nil, nil
	}
	s, ok := inv.Storages[id]
	if !ok {
		return nil, errors.Errorf("vm [%s] references unknown storage [%s]", vmId, id)
	}
	return s, nil
}
