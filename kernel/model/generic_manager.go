package model

// GenericManager supports exactly the features it was configured with.
type GenericManager struct {
	id       string
	version  string
	features map[string]struct{}
	services ProviderServices
}

func (m *GenericManager) ID() string {
	return m.id
}

func (m *GenericManager) Type() string {
	return "generic"
}

func (m *GenericManager) Version() string {
	return m.version
}

func (m *GenericManager) Supports(feature string) bool {
	_, ok := m.features[feature]
	return ok
}

func (m *GenericManager) Services() ProviderServices {
	return m.services
}

func init() {
	RegisterManagerType("generic", func(cfg ManagerConfig) ManagementSystem {
		return &GenericManager{
			id:       cfg.ID,
			version:  cfg.Version,
			features: featureSet(cfg.Capabilities),
			services: cfg.Services,
		}
	})
}
