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
	"net/http"

	"github.com/openziti/vmcap/kernel/loader"
	"github.com/openziti/vmcap/kernel/mcp"
	"github.com/openziti/vmcap/kernel/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(NewMCPServerCommand())
}

func NewMCPServerCommand() *cobra.Command {
	mcpCmd := &MCPServerCommand{}

	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Start MCP server exposing vm capabilities to AI assistants",
		Long: `Start an MCP (Model Context Protocol) server that exposes the vm
capability overlay to AI assistants.

The server provides tools for:
  - list_vms: List the virtual machines in the loaded inventory
  - get_vm: Get a virtual machine record
  - evaluate_capabilities: Evaluate supported operations and reasons
  - reconcile_storage: Disconnect storages without live disks
  - vm_exists: Ask the provider whether a vm still exists
  - load_inventory: Replace the loaded inventory

And resources:
  - vmcap://status: Inventory and persisted record counts`,
		RunE: mcpCmd.run,
	}

	cmd.Flags().BoolVar(&mcpCmd.UseMemoryStore, "memory", false, "use in-memory store (for testing)")
	cmd.Flags().StringVarP(&mcpCmd.InventoryPath, "inventory", "i", "", "inventory to load at startup")
	cmd.Flags().StringVar(&mcpCmd.MetricsAddr, "metrics-addr", "", "serve prometheus metrics on this address (e.g. :9090)")

	return cmd
}

type MCPServerCommand struct {
	UseMemoryStore bool
	InventoryPath  string
	MetricsAddr    string
}

func (m *MCPServerCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var vmStore store.VMStore
	if m.UseMemoryStore {
		logrus.Info("using in-memory store")
		vmStore = store.NewMemoryStore()
	} else {
		if vmStore, err = store.Open(cfg.Store); err != nil {
			return err
		}
	}
	defer func() { _ = vmStore.Close() }()

	var inv *loader.Inventory
	if m.InventoryPath != "" || cfg.Inventory != "" {
		if inv, err = loadInventory(cfg, m.InventoryPath, vmStore); err != nil {
			return err
		}
	}

	if m.MetricsAddr != "" {
		go serveMetrics(m.MetricsAddr)
	}

	logrus.Info("starting MCP server on stdio...")
	server := mcp.NewVMCapMCPServer(vmStore, inv)
	return server.ServeStdio()
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logrus.Infof("serving metrics on [%s]", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logrus.WithError(err).Error("metrics server stopped")
	}
}
