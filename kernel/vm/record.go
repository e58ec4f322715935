package vm

import "github.com/openziti/vmcap/kernel/model"

// Record snapshots the VM into its persisted form.
func (v *VM) Record() *model.VMRecord {
	rec := &model.VMRecord{
		ID:         v.ID,
		Name:       v.Name,
		EmsRef:     v.EmsRef,
		PowerState: v.PowerState,
		Lifecycle:  v.Lifecycle.Names(),
	}
	if v.Manager != nil {
		rec.ManagerID = v.Manager.ID()
	}
	if v.Storage != nil {
		rec.StorageID = v.Storage.ID
	}
	for _, s := range v.Storages {
		rec.StorageIDs = append(rec.StorageIDs, s.ID)
	}
	for _, d := range v.Disks() {
		dr := model.DiskRecord{Filename: d.Filename, DeviceName: d.DeviceName, Size: d.Size}
		if d.Storage != nil {
			dr.StorageID = d.Storage.ID
		}
		rec.Disks = append(rec.Disks, dr)
	}
	for _, s := range v.Snapshots {
		rec.Snapshots = append(rec.Snapshots, *s)
	}
	if v.Parent != nil {
		rec.ParentID = v.Parent.ID
	}
	return rec
}
