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
	"fmt"

	"github.com/openziti/vmcap/kernel/store"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(NewExistsCommand())
}

func NewExistsCommand() *cobra.Command {
	existsCmd := &ExistsCommand{}

	cmd := &cobra.Command{
		Use:   "exists",
		Short: "Ask the provider whether a virtual machine still exists",
		RunE:  existsCmd.run,
	}

	cmd.Flags().StringVarP(&existsCmd.InventoryPath, "inventory", "i", "", "path to inventory YAML file")
	cmd.Flags().StringVar(&existsCmd.VMId, "vm", "", "vm to look up")
	_ = cmd.MarkFlagRequired("vm")

	return cmd
}

type ExistsCommand struct {
	InventoryPath string
	VMId          string
}

func (e *ExistsCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	inv, err := loadInventory(cfg, e.InventoryPath, s)
	if err != nil {
		return err
	}
	vms, err := selectVMs(inv, e.VMId)
	if err != nil {
		return err
	}

	exists, err := vms[0].ExistsOnProvider(context.Background())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "vm '%s' exists on provider: %t\n", e.VMId, exists)
	return err
}
