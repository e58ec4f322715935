package model

// VMRecord is the persisted form of a VM. Related objects are referenced by ID.
type VMRecord struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	EmsRef     string       `json:"ems_ref,omitempty"`
	ManagerID  string       `json:"manager_id,omitempty"`
	PowerState string       `json:"power_state"`
	StorageID  string       `json:"storage_id,omitempty"`
	StorageIDs []string     `json:"storage_ids,omitempty"`
	Disks      []DiskRecord `json:"disks,omitempty"`
	Snapshots  []Snapshot   `json:"snapshots,omitempty"`
	Lifecycle  []string     `json:"lifecycle,omitempty"`
	ParentID   string       `json:"parent_id,omitempty"`
}

type DiskRecord struct {
	Filename   string `json:"filename"`
	DeviceName string `json:"device_name,omitempty"`
	Size       int64  `json:"size,omitempty"`
	StorageID  string `json:"storage_id,omitempty"`
}
