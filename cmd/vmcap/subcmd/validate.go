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
	"fmt"
	"os"

	"github.com/openziti/vmcap/kernel/loader"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(NewValidateCommand())
}

func NewValidateCommand() *cobra.Command {
	validateCmd := &ValidateCommand{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an inventory YAML file",
		RunE:  validateCmd.run,
	}

	cmd.Flags().StringVarP(&validateCmd.InventoryPath, "inventory", "i", "", "path to inventory YAML file")

	return cmd
}

type ValidateCommand struct {
	InventoryPath string
}

func (v *ValidateCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path, err := inventoryPath(cfg, v.InventoryPath)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read inventory [%s]", path)
	}
	result, err := loader.ValidateInventoryBytes(data)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, w := range result.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(out, "error: %s\n", e)
	}
	if !result.IsValid() {
		return errors.Errorf("inventory [%s] has %d error(s)", path, len(result.Errors))
	}
	fmt.Fprintf(out, "inventory '%s' is valid\n", path)
	return nil
}
