package loader

import (
	"fmt"
	"regexp"
	"strings"

	units "github.com/docker/go-units"
	"github.com/openziti/vmcap/kernel/model"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:/-]*$`)

type ValidationError struct {
	Path    string
	Message string
}

func (e ValidationError) String() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Err folds all validation errors into one error, nil when valid.
func (r *ValidationResult) Err() error {
	if r.IsValid() {
		return nil
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.String())
	}
	return errors.Errorf("invalid inventory: %s", strings.Join(msgs, "; "))
}

func (r *ValidationResult) addError(path, format string, args ...interface{}) {
	r.Errors = append(r.Errors, ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationResult) addWarning(path, format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
}

// ValidateInventoryBytes parses and validates an inventory document. A parse
// failure is returned as an error; semantic problems are reported in the result.
func ValidateInventoryBytes(data []byte) (*ValidationResult, error) {
	var doc InventoryYaml
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, errors.Wrap(err, "unable to parse inventory")
	}
	return Validate(&doc), nil
}

func Validate(doc *InventoryYaml) *ValidationResult {
	r := &ValidationResult{}

	if len(doc.VMs) == 0 {
		r.addWarning("vms", "inventory has no vms")
	}

	managers := make(map[string]bool)
	for i, m := range doc.Managers {
		path := fmt.Sprintf("managers[%d]", i)
		checkId(r, path+".id", m.ID, managers)
		if !model.HasManagerType(m.Type) {
			r.addError(path+".type", "unknown manager type '%s' (known: %s)", m.Type, strings.Join(model.ManagerTypes(), ", "))
		}
	}

	storages := make(map[string]bool)
	for i, s := range doc.Storages {
		path := fmt.Sprintf("storages[%d]", i)
		checkId(r, path+".id", s.ID, storages)
		if s.EmsRef == "" {
			r.addError(path+".ems_ref", "storage '%s' has no ems_ref", s.ID)
		}
	}

	nodes := make(map[string]bool)
	for i, n := range doc.Placement {
		path := fmt.Sprintf("placement[%d]", i)
		checkId(r, path+".id", n.Id, nodes)
		if !model.NodeKind(n.Kind).Valid() {
			r.addError(path+".kind", "unknown placement kind '%s'", n.Kind)
		}
	}
	parents := make(map[string]string)
	for i, n := range doc.Placement {
		if n.Parent == "" {
			continue
		}
		if !nodes[n.Parent] {
			r.addError(fmt.Sprintf("placement[%d].parent", i), "unknown parent '%s'", n.Parent)
			continue
		}
		parents[n.Id] = n.Parent
	}
	for _, n := range doc.Placement {
		if placementCycle(parents, n.Id) {
			r.addError("placement", "placement cycle through '%s'", n.Id)
			break
		}
	}

	vms := make(map[string]bool)
	for i, v := range doc.VMs {
		path := fmt.Sprintf("vms[%d]", i)
		if v.Id != "" {
			checkId(r, path+".id", v.Id, vms)
		}
		if v.Name == "" {
			r.addError(path+".name", "vm name is required")
		}
		if v.Manager != "" && !managers[v.Manager] {
			r.addError(path+".manager", "unknown manager '%s'", v.Manager)
		}
		if v.Storage != "" && !storages[v.Storage] {
			r.addError(path+".storage", "unknown storage '%s'", v.Storage)
		}
		for j, s := range v.Storages {
			if !storages[s] {
				r.addError(fmt.Sprintf("%s.storages[%d]", path, j), "unknown storage '%s'", s)
			}
		}
		if v.Parent != "" && !nodes[v.Parent] {
			r.addError(path+".parent", "unknown parent '%s'", v.Parent)
		}
		if _, err := model.ParseLifecycle(v.Lifecycle); err != nil {
			r.addError(path+".lifecycle", "%v", err)
		}
		for j, d := range v.Disks {
			dpath := fmt.Sprintf("%s.disks[%d]", path, j)
			if d.Filename == "" {
				r.addError(dpath+".filename", "disk filename is required")
			}
			if d.Storage != "" && !storages[d.Storage] {
				r.addError(dpath+".storage", "unknown storage '%s'", d.Storage)
			}
			if d.Size != "" {
				if _, err := units.RAMInBytes(d.Size); err != nil {
					r.addError(dpath+".size", "invalid size '%s'", d.Size)
				}
			}
		}
		if v.Manager == "" && hasLifecycle(v.Lifecycle, "active") {
			r.addWarning(path+".lifecycle", "vm '%s' is active but has no manager", v.Name)
		}
	}

	return r
}

func checkId(r *ValidationResult, path, id string, seen map[string]bool) {
	if id == "" {
		r.addError(path, "id is required")
		return
	}
	if !idPattern.MatchString(id) {
		r.addError(path, "invalid id '%s'", id)
	}
	if seen[id] {
		r.addError(path, "duplicate id '%s'", id)
	}
	seen[id] = true
}

func placementCycle(parents map[string]string, start string) bool {
	visited := map[string]bool{start: true}
	for cur := parents[start]; cur != ""; cur = parents[cur] {
		if visited[cur] {
			return true
		}
		visited[cur] = true
	}
	return false
}

func hasLifecycle(names []string, flag string) bool {
	for _, n := range names {
		if n == flag {
			return true
		}
	}
	return false
}
