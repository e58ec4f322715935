package model

import (
	"strconv"
	"strings"
)

// RedhatManager is an oVirt/RHV engine connection. Unless capabilities are
// configured explicitly they follow the engine API major version.
type RedhatManager struct {
	id       string
	version  string
	features map[string]struct{}
	services ProviderServices
}

func (m *RedhatManager) ID() string {
	return m.id
}

func (m *RedhatManager) Type() string {
	return "redhat"
}

func (m *RedhatManager) Version() string {
	return m.version
}

func (m *RedhatManager) Supports(feature string) bool {
	_, ok := m.features[feature]
	return ok
}

func (m *RedhatManager) Services() ProviderServices {
	return m.services
}

// APIMajor returns the major component of the engine API version, 0 if unparsable.
func (m *RedhatManager) APIMajor() int {
	return apiMajor(m.version)
}

func apiMajor(version string) int {
	major, _, _ := strings.Cut(strings.TrimPrefix(version, "v"), ".")
	n, err := strconv.Atoi(major)
	if err != nil {
		return 0
	}
	return n
}

func redhatFeatures(version string) []string {
	if apiMajor(version) >= 4 {
		return []string{"migrate", "publish", "reconfigure_disks"}
	}
	return []string{"migrate"}
}

func init() {
	RegisterManagerType("redhat", func(cfg ManagerConfig) ManagementSystem {
		features := cfg.Capabilities
		if features == nil {
			features = redhatFeatures(cfg.Version)
		}
		return &RedhatManager{
			id:       cfg.ID,
			version:  cfg.Version,
			features: featureSet(features),
			services: cfg.Services,
		}
	})
}
