package capability

import (
	"sort"
	"sync"

	"github.com/openziti/vmcap/kernel/power"
)

// Operation names a gated VM operation.
type Operation string

const (
	Migrate                    Operation = "migrate"
	ReconfigureDisks           Operation = "reconfigure_disks"
	Reset                      Operation = "reset"
	Publish                    Operation = "publish"
	ReconfigureNetworkAdapters Operation = "reconfigure_network_adapters"
	ReconfigureDisksize        Operation = "reconfigure_disksize"
)

const (
	ReasonNotAvailable = "Feature not available"
	ReasonNotSupported = "Feature not supported"
)

// Provider is the management system as seen by guards.
type Provider interface {
	Supports(feature string) bool
}

// Subject is the read-only view of a resource that guards evaluate.
type Subject interface {
	IsBlank() bool
	IsOrphaned() bool
	IsArchived() bool
	HasStorage() bool
	// ManagementSystem returns nil when the resource has no owning provider.
	ManagementSystem() Provider
	CurrentState() power.CanonicalState
	SnapshotCount() int
}

// Decision is the outcome of evaluating one operation against one subject.
type Decision struct {
	Operation Operation `json:"operation"`
	Supported bool      `json:"supported"`
	Reason    string    `json:"reason,omitempty"`
}

// Guard returns ok=false with a display reason to deny the operation.
type Guard func(s Subject) (reason string, ok bool)

// Registry maps operations to ordered guard chains.
// It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	guards map[Operation][]Guard
}

func NewRegistry() *Registry {
	return &Registry{guards: make(map[Operation][]Guard)}
}

// Register declares op as supported subject to guards, evaluated in order.
// Registering an operation again replaces its chain.
func (r *Registry) Register(op Operation, guards ...Guard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guards[op] = append([]Guard(nil), guards...)
}

// RegisterUnsupported declares op as statically disabled.
func (r *Registry) RegisterUnsupported(op Operation, reason string) {
	if reason == "" {
		reason = ReasonNotSupported
	}
	r.Register(op, func(Subject) (string, bool) { return reason, false })
}

func (r *Registry) Has(op Operation) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.guards[op]
	return ok
}

// Operations returns the registered operations, sorted.
func (r *Registry) Operations() []Operation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ops := make([]Operation, 0, len(r.guards))
	for op := range r.guards {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

// Evaluate runs the guard chain for op against s. The first failing guard
// decides; later guards are not called.
func (r *Registry) Evaluate(op Operation, s Subject) Decision {
	r.mu.RLock()
	guards, ok := r.guards[op]
	r.mu.RUnlock()

	if !ok {
		return Decision{Operation: op, Reason: ReasonNotAvailable}
	}
	for _, guard := range guards {
		if reason, pass := guard(s); !pass {
			if reason == "" {
				reason = ReasonNotSupported
			}
			return Decision{Operation: op, Reason: reason}
		}
	}
	return Decision{Operation: op, Supported: true}
}

// EvaluateAll evaluates every registered operation, sorted by operation.
func (r *Registry) EvaluateAll(s Subject) []Decision {
	ops := r.Operations()
	decisions := make([]Decision, 0, len(ops))
	for _, op := range ops {
		decisions = append(decisions, r.Evaluate(op, s))
	}
	return decisions
}
