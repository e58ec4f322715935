/*
	(c) Copyright NetFoundry Inc. Inc.

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

	https://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package subcmd

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/openziti/vmcap/kernel/capability"
	"github.com/openziti/vmcap/kernel/store"
	"github.com/openziti/vmcap/kernel/vm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func init() {
	RootCmd.AddCommand(NewCheckCommand())
}

func NewCheckCommand() *cobra.Command {
	checkCmd := &CheckCommand{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Show which operations each virtual machine supports, and why not",
		RunE:  checkCmd.run,
	}

	cmd.Flags().StringVarP(&checkCmd.InventoryPath, "inventory", "i", "", "path to inventory YAML file")
	cmd.Flags().StringVar(&checkCmd.VMId, "vm", "", "only check this vm")
	cmd.Flags().StringVar(&checkCmd.Operation, "op", "", "only evaluate this operation")

	return cmd
}

type CheckCommand struct {
	InventoryPath string
	VMId          string
	Operation     string
}

func (c *CheckCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	inv, err := loadInventory(cfg, c.InventoryPath, s)
	if err != nil {
		return err
	}
	vms, err := selectVMs(inv, c.VMId)
	if err != nil {
		return err
	}

	decisions := make([][]capability.Decision, len(vms))
	var g errgroup.Group
	g.SetLimit(cfg.Workers)
	for i, v := range vms {
		g.Go(func() error {
			decisions[i] = c.evaluate(v)
			return nil
		})
	}
	_ = g.Wait()

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"VM", "Name", "State", "Operation", "Supported", "Reason"})
	for i, v := range vms {
		for _, d := range decisions[i] {
			t.AppendRow(table.Row{v.ID, v.Name, v.CurrentState(), d.Operation, d.Supported, d.Reason})
		}
		t.AppendSeparator()
	}
	t.Render()
	return nil
}

func (c *CheckCommand) evaluate(v *vm.VM) []capability.Decision {
	if c.Operation != "" {
		return []capability.Decision{v.Decision(capability.Operation(c.Operation))}
	}
	return v.Decisions()
}
