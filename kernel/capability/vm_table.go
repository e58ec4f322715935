package capability

import "github.com/openziti/vmcap/kernel/power"

const (
	ReasonMigrateLifecycle        = "Migrate operation is not supported"
	ReasonMigrateAPIVersion       = "RHV API version does not support migrate"
	ReasonStorageMissing          = "storage is missing"
	ReasonNoProvider              = "The virtual machine is not associated with a provider"
	ReasonProviderReconfigure     = "The provider does not support reconfigure disks"
	ReasonPublishLifecycle        = "Publish operation is not supported"
	ReasonPublishAPIVersion       = "This feature is not supported by the api version of the provider"
	ReasonMustBeDown              = "The virtual machine must be down"
	ReasonResizeWithSnapshots     = "Cannot resize disks of a VM with snapshots"
	maxSnapshotsForDisksizeChange = 1
)

// NewVMRegistry returns the capability table for RHV virtual machines.
func NewVMRegistry() *Registry {
	r := NewRegistry()

	r.Register(Migrate,
		Lifecycle(ReasonMigrateLifecycle),
		ProviderSupports(string(Migrate), ReasonMigrateAPIVersion),
	)

	r.Register(ReconfigureDisks,
		StoragePresent(ReasonStorageMissing),
		ProviderPresent(ReasonNoProvider),
		ProviderSupports(string(ReconfigureDisks), ReasonProviderReconfigure),
	)

	r.RegisterUnsupported(Reset, ReasonNotSupported)

	r.Register(Publish,
		Lifecycle(ReasonPublishLifecycle),
		ProviderPresent(ReasonNoProvider),
		ProviderSupports(string(Publish), ReasonPublishAPIVersion),
		StateIs(power.Off, ReasonMustBeDown),
	)

	r.Register(ReconfigureNetworkAdapters)

	// More than one snapshot, not any snapshot, blocks a resize.
	r.Register(ReconfigureDisksize,
		MaxSnapshots(maxSnapshotsForDisksizeChange, ReasonResizeWithSnapshots),
	)

	return r
}
