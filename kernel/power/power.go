package power

// CanonicalState is the small vocabulary every provider power state is mapped into.
type CanonicalState string

const (
	On        CanonicalState = "on"
	Off       CanonicalState = "off"
	Suspended CanonicalState = "suspended"
	Never     CanonicalState = "never"
	Unknown   CanonicalState = "unknown"
)

func (s CanonicalState) String() string {
	return string(s)
}

// Fallback resolves raw states the provider table has no entry for.
type Fallback interface {
	Normalize(raw string) CanonicalState
}

// FallbackFunc adapts a plain function to Fallback.
type FallbackFunc func(raw string) CanonicalState

func (f FallbackFunc) Normalize(raw string) CanonicalState {
	return f(raw)
}

// DefaultFallback is the platform-wide mapping used for unrecognized raw states.
type DefaultFallback struct{}

func (DefaultFallback) Normalize(raw string) CanonicalState {
	if raw == string(Never) {
		return Never
	}
	return Unknown
}

// oVirt/RHV power states. Keys are matched case-sensitively.
var powerStates = map[string]CanonicalState{
	"up":          On,
	"powering_up": On,
	"down":        Off,
	"suspended":   Suspended,
}

// PowerStates returns a copy of the raw -> canonical table.
func PowerStates() map[string]CanonicalState {
	out := make(map[string]CanonicalState, len(powerStates))
	for k, v := range powerStates {
		out[k] = v
	}
	return out
}

type Normalizer struct {
	fallback Fallback
}

// NewNormalizer returns a Normalizer delegating unmapped states to fallback.
// A nil fallback selects DefaultFallback.
func NewNormalizer(fallback Fallback) *Normalizer {
	if fallback == nil {
		fallback = DefaultFallback{}
	}
	return &Normalizer{fallback: fallback}
}

// Normalize maps a raw provider power state to its canonical form. It never fails.
func (n *Normalizer) Normalize(raw string) CanonicalState {
	if state, ok := powerStates[raw]; ok {
		return state
	}
	return n.fallback.Normalize(raw)
}
