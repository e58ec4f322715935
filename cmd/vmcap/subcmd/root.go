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
	"os"
	"path/filepath"

	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/vmcap/kernel/loader"
	"github.com/openziti/vmcap/kernel/model"
	"github.com/openziti/vmcap/kernel/store"
	"github.com/openziti/vmcap/kernel/vm"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configFile string
	logLevel   string
)

func init() {
	pfxlog.GlobalInit(logrus.InfoLevel, pfxlog.DefaultOptions().SetTrimPrefix("github.com/openziti/"))

	RootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file (default ~/.vmcap/config.yml)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides config)")
}

var RootCmd = &cobra.Command{
	Use:   "vmcap",
	Short: "Capability and lifecycle overlay for Red Hat Virtualization virtual machines",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		level := cfg.Log.Level
		if logLevel != "" {
			level = logLevel
		}
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			return errors.Wrapf(err, "invalid log level '%s'", level)
		}
		logrus.SetLevel(parsed)
		return nil
	},
	SilenceUsage: true,
}

func Execute() error {
	return RootCmd.Execute()
}

// loadConfig reads --config when given, then the per-user config, and falls
// back to defaults when neither exists.
func loadConfig() (*model.Config, error) {
	if configFile != "" {
		return model.LoadConfig(configFile)
	}
	if cfg := tryLoadConfig(); cfg != nil {
		return cfg, nil
	}
	return model.DefaultConfig(), nil
}

func tryLoadConfig() *model.Config {
	cfgDir, err := model.ConfigDir()
	if err != nil {
		return nil
	}
	path := filepath.Join(cfgDir, model.ConfigFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	cfg, err := model.LoadConfig(path)
	if err != nil {
		logrus.WithError(err).Warnf("ignoring unreadable config [%s]", path)
		return nil
	}
	return cfg
}

// inventoryPath resolves the inventory path from the flag or the config.
func inventoryPath(cfg *model.Config, path string) (string, error) {
	if path == "" {
		path = cfg.Inventory
	}
	if path == "" {
		return "", errors.New("no inventory given (use --inventory or set 'inventory' in config)")
	}
	return path, nil
}

// loadInventory loads the inventory and overlays the records persisted in s.
func loadInventory(cfg *model.Config, path string, s store.VMStore) (*loader.Inventory, error) {
	path, err := inventoryPath(cfg, path)
	if err != nil {
		return nil, err
	}
	inv, err := loader.LoadInventory(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load inventory [%s]", path)
	}
	replaced, err := inv.Overlay(s)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("loaded inventory [%s] with %d vm(s), %d from %s store", path, len(inv.VMs), replaced, cfg.Store.Backend)
	return inv, nil
}

// selectVMs returns every VM of the inventory, or only the one with id.
func selectVMs(inv *loader.Inventory, id string) ([]*vm.VM, error) {
	if id == "" {
		return inv.VMs, nil
	}
	v, found := inv.Lookup(id)
	if !found {
		return nil, errors.Errorf("vm '%s' not found in inventory", id)
	}
	return []*vm.VM{v}, nil
}
