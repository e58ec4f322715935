package model

import "context"

// ProviderServices are the live queries a management system answers about its provider.
type ProviderServices interface {
	// CollectDisksByRefs takes "{storage_ems_ref}/disks/{filename}" keys and
	// returns the ems refs of storages that actually back one of those disks.
	CollectDisksByRefs(ctx context.Context, refs []string) ([]string, error)
	VMExistsOnProvider(ctx context.Context, vmEmsRef string) (bool, error)
}

// ManagementSystem is the provider connection owning a VM.
type ManagementSystem interface {
	ID() string
	Type() string
	Version() string
	Supports(feature string) bool
	Services() ProviderServices
}

// ManagerConfig carries everything a manager factory needs.
type ManagerConfig struct {
	ID           string   `yaml:"id"`
	Type         string   `yaml:"type"`
	Version      string   `yaml:"version"`
	Capabilities []string `yaml:"capabilities"`

	Services ProviderServices `yaml:"-"`
}

func featureSet(features []string) map[string]struct{} {
	set := make(map[string]struct{}, len(features))
	for _, f := range features {
		set[f] = struct{}{}
	}
	return set
}
