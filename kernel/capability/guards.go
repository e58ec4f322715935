package capability

import "github.com/openziti/vmcap/kernel/power"

// Lifecycle denies blank, orphaned and archived subjects.
func Lifecycle(reason string) Guard {
	return func(s Subject) (string, bool) {
		if s.IsBlank() || s.IsOrphaned() || s.IsArchived() {
			return reason, false
		}
		return "", true
	}
}

func StoragePresent(reason string) Guard {
	return func(s Subject) (string, bool) {
		if !s.HasStorage() {
			return reason, false
		}
		return "", true
	}
}

func ProviderPresent(reason string) Guard {
	return func(s Subject) (string, bool) {
		if s.ManagementSystem() == nil {
			return reason, false
		}
		return "", true
	}
}

// ProviderSupports denies when the owning management system is missing or
// does not declare feature.
func ProviderSupports(feature, reason string) Guard {
	return func(s Subject) (string, bool) {
		ems := s.ManagementSystem()
		if ems == nil || !ems.Supports(feature) {
			return reason, false
		}
		return "", true
	}
}

func StateIs(state power.CanonicalState, reason string) Guard {
	return func(s Subject) (string, bool) {
		if s.CurrentState() != state {
			return reason, false
		}
		return "", true
	}
}

// MaxSnapshots denies when the subject has more than limit snapshots.
func MaxSnapshots(limit int, reason string) Guard {
	return func(s Subject) (string, bool) {
		if s.SnapshotCount() > limit {
			return reason, false
		}
		return "", true
	}
}
