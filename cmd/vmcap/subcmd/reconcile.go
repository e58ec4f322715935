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
	"context"
	"strings"

	units "github.com/docker/go-units"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/openziti/vmcap/kernel/engine"
	"github.com/openziti/vmcap/kernel/model"
	"github.com/openziti/vmcap/kernel/store"
	"github.com/openziti/vmcap/kernel/vm"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(NewReconcileCommand())
}

func NewReconcileCommand() *cobra.Command {
	reconcileCmd := &ReconcileCommand{}

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Disconnect storages that no live disk of a virtual machine is placed on",
		RunE:  reconcileCmd.run,
	}

	cmd.Flags().StringVarP(&reconcileCmd.InventoryPath, "inventory", "i", "", "path to inventory YAML file")
	cmd.Flags().StringVar(&reconcileCmd.VMId, "vm", "", "only reconcile this vm")
	cmd.Flags().BoolVar(&reconcileCmd.DryRun, "dry-run", false, "report stale storages without disconnecting them")

	return cmd
}

type ReconcileCommand struct {
	InventoryPath string
	VMId          string
	DryRun        bool
}

func (r *ReconcileCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	inv, err := loadInventory(cfg, r.InventoryPath, s)
	if err != nil {
		return err
	}
	vms, err := selectVMs(inv, r.VMId)
	if err != nil {
		return err
	}

	var disconnector engine.StorageDisconnector = engine.DefaultDisconnector{}
	if r.DryRun {
		disconnector = engine.DryRunDisconnector{}
	}
	targets := make([]engine.Target, 0, len(vms))
	for _, v := range vms {
		targets = append(targets, v)
	}
	// targets that completed before a failure are still persisted and reported
	results, reconcileErr := engine.NewDiskReconciler(disconnector).ReconcileAll(context.Background(), targets, cfg.Workers)

	if !r.DryRun {
		if err := r.persist(cfg, s, vms, results); err != nil {
			return err
		}
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"VM", "Name", "Disks", "Kept", "Disconnected"})
	for i, v := range vms {
		result := results[i]
		if result == nil {
			t.AppendRow(table.Row{v.ID, v.Name, diskSize(v), "-", "failed"})
			continue
		}
		if result.Skipped {
			t.AppendRow(table.Row{v.ID, v.Name, diskSize(v), "-", "skipped"})
			continue
		}
		t.AppendRow(table.Row{v.ID, v.Name, diskSize(v), storageNames(result.Kept), storageNames(result.Disconnected)})
	}
	t.Render()

	if reconcileErr != nil {
		return errors.Wrap(reconcileErr, "reconciliation failed")
	}
	return nil
}

func (r *ReconcileCommand) persist(cfg *model.Config, s store.VMStore, vms []*vm.VM, results []*engine.Result) error {
	for i, v := range vms {
		if results[i] == nil || len(results[i].Disconnected) == 0 {
			continue
		}
		if err := s.SaveVM(v.Record()); err != nil {
			return errors.Wrapf(err, "failed to persist vm [%s]", v.ID)
		}
		logrus.WithField("vm", v.ID).Debugf("persisted to %s store", cfg.Store.Backend)
	}
	return nil
}

func diskSize(v *vm.VM) string {
	var total int64
	for _, d := range v.Disks() {
		total += d.Size
	}
	return units.BytesSize(float64(total))
}

func storageNames(storages []*model.Storage) string {
	if len(storages) == 0 {
		return "-"
	}
	names := make([]string, 0, len(storages))
	for _, s := range storages {
		if s.Name != "" {
			names = append(names, s.Name)
		} else {
			names = append(names, s.ID)
		}
	}
	return strings.Join(names, ", ")
}
