package vm

import "github.com/openziti/vmcap/kernel/power"

type Validation struct {
	Type string `json:"type"`
}

// FormField is one field of a declarative form schema.
type FormField struct {
	Component  string       `json:"component"`
	Name       string       `json:"name"`
	ID         string       `json:"id"`
	Label      string       `json:"label"`
	IsRequired bool         `json:"isRequired,omitempty"`
	Validate   []Validation `json:"validate,omitempty"`
	OnText     string       `json:"onText,omitempty"`
	OffText    string       `json:"offText,omitempty"`
	IsDisabled bool         `json:"isDisabled,omitempty"`
	HelperText string       `json:"helperText,omitempty"`
}

type FormSchema struct {
	Fields []FormField `json:"fields"`
}

// ParamsForCreateSnapshot describes the snapshot creation form. Memory can
// only be included while the VM is powered on.
func (v *VM) ParamsForCreateSnapshot() FormSchema {
	return FormSchema{
		Fields: []FormField{
			{
				Component:  "textarea",
				Name:       "description",
				ID:         "description",
				Label:      "Description",
				IsRequired: true,
				Validate:   []Validation{{Type: "required"}},
			},
			{
				Component:  "switch",
				Name:       "memory",
				ID:         "memory",
				Label:      "Snapshot VM memory",
				OnText:     "Yes",
				OffText:    "No",
				IsDisabled: v.CurrentState() != power.On,
				HelperText: "Snapshotting the memory is only available if the VM is powered on.",
			},
		},
	}
}
