package model

import "time"

// Storage is a provider storage domain a VM can be associated with.
type Storage struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	EmsRef string `json:"ems_ref" yaml:"ems_ref"`
}

// Disk is a hardware disk descriptor as last synced from the provider.
type Disk struct {
	Filename   string
	DeviceName string
	Size       int64
	// Storage is nil for disks the provider reported without a storage domain.
	Storage *Storage
}

type Hardware struct {
	Disks []*Disk
}

type Snapshot struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// UniqueStorages returns the non-nil storages in order, dropping repeats by ID.
func UniqueStorages(storages ...*Storage) []*Storage {
	seen := make(map[string]struct{}, len(storages))
	out := make([]*Storage, 0, len(storages))
	for _, s := range storages {
		if s == nil {
			continue
		}
		if _, dup := seen[s.ID]; dup {
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	return out
}
