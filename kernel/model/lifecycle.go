package model

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Lifecycle is the set of inventory lifecycle flags carried by a VM.
type Lifecycle uint8

const (
	Blank Lifecycle = 1 << iota
	Orphaned
	Archived
	Active
)

var lifecycleNames = map[Lifecycle]string{
	Blank:    "blank",
	Orphaned: "orphaned",
	Archived: "archived",
	Active:   "active",
}

func (l Lifecycle) Has(flag Lifecycle) bool {
	return l&flag == flag
}

func (l Lifecycle) With(flag Lifecycle) Lifecycle {
	return l | flag
}

func (l Lifecycle) Without(flag Lifecycle) Lifecycle {
	return l &^ flag
}

// Names returns the flag names in sorted order.
func (l Lifecycle) Names() []string {
	var names []string
	for flag, name := range lifecycleNames {
		if l.Has(flag) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (l Lifecycle) String() string {
	if l == 0 {
		return "none"
	}
	return strings.Join(l.Names(), ",")
}

// ParseLifecycle builds a flag set from flag names.
func ParseLifecycle(names []string) (Lifecycle, error) {
	var l Lifecycle
	for _, name := range names {
		flag, ok := lookupLifecycle(strings.TrimSpace(name))
		if !ok {
			return 0, errors.Errorf("unknown lifecycle flag '%s'", name)
		}
		l |= flag
	}
	return l, nil
}

func lookupLifecycle(name string) (Lifecycle, bool) {
	for flag, n := range lifecycleNames {
		if n == name {
			return flag, true
		}
	}
	return 0, false
}
