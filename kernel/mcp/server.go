package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/openziti/vmcap/kernel/capability"
	"github.com/openziti/vmcap/kernel/engine"
	"github.com/openziti/vmcap/kernel/loader"
	"github.com/openziti/vmcap/kernel/model"
	"github.com/openziti/vmcap/kernel/store"
	"github.com/openziti/vmcap/kernel/vm"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const statusURI = "vmcap://status"

type VMCapMCPServer struct {
	server *server.MCPServer
	store  store.VMStore

	mu        sync.RWMutex
	inventory *loader.Inventory
}

func NewVMCapMCPServer(s store.VMStore, inv *loader.Inventory) *VMCapMCPServer {
	srv := server.NewMCPServer(
		"VM Capability Overlay",
		"v1.0.0",
		server.WithResourceCapabilities(true, true),
		server.WithToolCapabilities(true),
	)
	if inv == nil {
		inv = &loader.Inventory{}
	}

	vs := &VMCapMCPServer{
		server:    srv,
		store:     s,
		inventory: inv,
	}

	vs.registerTools()
	vs.registerResources()

	return vs
}

func (vs *VMCapMCPServer) ServeStdio() error {
	return server.ServeStdio(vs.server)
}

func (vs *VMCapMCPServer) registerTools() {
	vs.server.AddTool(mcp.NewTool("list_vms",
		mcp.WithDescription("List the virtual machines in the loaded inventory"),
	), vs.listVMsHandler)

	vs.server.AddTool(mcp.NewTool("get_vm",
		mcp.WithDescription("Get a virtual machine record, preferring the persisted copy"),
		mcp.WithString("vm_id",
			mcp.Description("ID of the virtual machine"),
			mcp.Required(),
		),
	), vs.getVMHandler)

	vs.server.AddTool(mcp.NewTool("evaluate_capabilities",
		mcp.WithDescription("Evaluate which operations a virtual machine supports and why not"),
		mcp.WithString("vm_id",
			mcp.Description("ID of the virtual machine"),
			mcp.Required(),
		),
		mcp.WithString("operation",
			mcp.Description("Single operation to evaluate (e.g., migrate, publish); all when omitted"),
		),
	), vs.evaluateCapabilitiesHandler)

	vs.server.AddTool(mcp.NewTool("reconcile_storage",
		mcp.WithDescription("Disconnect storages that no live disk of the virtual machine is placed on"),
		mcp.WithString("vm_id",
			mcp.Description("ID of the virtual machine"),
			mcp.Required(),
		),
		mcp.WithBoolean("dry_run",
			mcp.Description("Report stale storages without disconnecting them"),
		),
	), vs.reconcileStorageHandler)

	vs.server.AddTool(mcp.NewTool("vm_exists",
		mcp.WithDescription("Ask the provider whether the virtual machine still exists"),
		mcp.WithString("vm_id",
			mcp.Description("ID of the virtual machine"),
			mcp.Required(),
		),
	), vs.vmExistsHandler)

	vs.server.AddTool(mcp.NewTool("load_inventory",
		mcp.WithDescription("Replace the loaded inventory with one read from a YAML file"),
		mcp.WithString("path",
			mcp.Description("Path to the inventory YAML file"),
			mcp.Required(),
		),
	), vs.loadInventoryHandler)
}

func (vs *VMCapMCPServer) registerResources() {
	resource := mcp.NewResource(statusURI, "VM Capability Status",
		mcp.WithResourceDescription("Inventory and persisted record counts"),
		mcp.WithMIMEType("application/json"),
	)
	vs.server.AddResource(resource, vs.statusHandler)
}

type vmSummary struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	PowerState string   `json:"power_state"`
	State      string   `json:"state"`
	Lifecycle  []string `json:"lifecycle"`
	Manager    string   `json:"manager,omitempty"`
	Storages   []string `json:"storages"`
}

func summarize(v *vm.VM) vmSummary {
	sum := vmSummary{
		ID:         v.ID,
		Name:       v.Name,
		PowerState: v.PowerState,
		State:      string(v.CurrentState()),
		Lifecycle:  v.Lifecycle.Names(),
		Storages:   []string{},
	}
	if v.Manager != nil {
		sum.Manager = v.Manager.ID()
	}
	for _, s := range v.StorageSet() {
		sum.Storages = append(sum.Storages, s.ID)
	}
	return sum
}

func (vs *VMCapMCPServer) lookup(request mcp.CallToolRequest) (*vm.VM, *mcp.CallToolResult) {
	id, err := request.RequireString("vm_id")
	if err != nil {
		return nil, mcp.NewToolResultError("vm_id argument is required")
	}
	v, found := vs.inventory.Lookup(id)
	if !found {
		return nil, mcp.NewToolResultError(fmt.Sprintf("vm '%s' not found", id))
	}
	return v, nil
}

func (vs *VMCapMCPServer) listVMsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	vs.mu.RLock()
	defer vs.mu.RUnlock()

	vms := make([]vmSummary, 0, len(vs.inventory.VMs))
	for _, v := range vs.inventory.VMs {
		vms = append(vms, summarize(v))
	}
	sort.Slice(vms, func(i, j int) bool { return vms[i].ID < vms[j].ID })

	return jsonResult(map[string]interface{}{
		"count": len(vms),
		"vms":   vms,
	})
}

func (vs *VMCapMCPServer) getVMHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("vm_id")
	if err != nil {
		return mcp.NewToolResultError("vm_id argument is required"), nil
	}

	rec, err := vs.store.GetVM(id)
	if err == nil {
		return jsonResult(rec)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, errors.Wrapf(err, "failed to read vm [%s]", id)
	}

	vs.mu.RLock()
	defer vs.mu.RUnlock()
	v, found := vs.inventory.Lookup(id)
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("vm '%s' not found", id)), nil
	}
	return jsonResult(v.Record())
}

func (vs *VMCapMCPServer) evaluateCapabilitiesHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	vs.mu.RLock()
	defer vs.mu.RUnlock()

	v, failed := vs.lookup(request)
	if failed != nil {
		return failed, nil
	}

	var decisions []capability.Decision
	if op := request.GetString("operation", ""); op != "" {
		decisions = []capability.Decision{v.Decision(capability.Operation(op))}
	} else {
		decisions = v.Decisions()
	}

	return jsonResult(map[string]interface{}{
		"vm_id":     v.ID,
		"decisions": decisions,
	})
}

func (vs *VMCapMCPServer) reconcileStorageHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	v, failed := vs.lookup(request)
	if failed != nil {
		return failed, nil
	}
	dryRun := request.GetBool("dry_run", false)

	var result *engine.Result
	var err error
	if dryRun {
		result, err = engine.NewDiskReconciler(engine.DryRunDisconnector{}).Reconcile(ctx, v)
	} else {
		result, err = v.DisconnectStorage(ctx)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !dryRun && len(result.Disconnected) > 0 {
		if err := vs.store.SaveVM(v.Record()); err != nil {
			return nil, errors.Wrapf(err, "failed to persist vm [%s]", v.ID)
		}
		logrus.WithField("vm", v.ID).Infof("persisted record after disconnecting %d storage(s)", len(result.Disconnected))
	}

	return jsonResult(map[string]interface{}{
		"vm_id":        v.ID,
		"dry_run":      dryRun,
		"skipped":      result.Skipped,
		"kept":         storageIds(result.Kept),
		"disconnected": storageIds(result.Disconnected),
	})
}

func (vs *VMCapMCPServer) vmExistsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	vs.mu.RLock()
	defer vs.mu.RUnlock()

	v, failed := vs.lookup(request)
	if failed != nil {
		return failed, nil
	}
	exists, err := v.ExistsOnProvider(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]interface{}{
		"vm_id":  v.ID,
		"exists": exists,
	})
}

func (vs *VMCapMCPServer) loadInventoryHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("path argument is required"), nil
	}
	inv, err := loader.LoadInventory(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load inventory: %v", err)), nil
	}
	replaced, err := inv.Overlay(vs.store)
	if err != nil {
		return nil, err
	}

	vs.mu.Lock()
	vs.inventory = inv
	vs.mu.Unlock()

	logrus.Infof("loaded inventory [%s] with %d vm(s), %d from store", path, len(inv.VMs), replaced)
	return mcp.NewToolResultText(fmt.Sprintf("Loaded %d vm(s) from '%s'.", len(inv.VMs), path)), nil
}

func (vs *VMCapMCPServer) statusHandler(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	stored, err := vs.store.ListVMs()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list persisted vms")
	}

	vs.mu.RLock()
	status := map[string]interface{}{
		"vms":      len(vs.inventory.VMs),
		"managers": len(vs.inventory.Managers),
		"storages": len(vs.inventory.Storages),
		"stored":   len(stored),
	}
	vs.mu.RUnlock()

	data, err := json.Marshal(status)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      statusURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func storageIds(storages []*model.Storage) []string {
	ids := make([]string, 0, len(storages))
	for _, s := range storages {
		ids = append(ids, s.ID)
	}
	return ids
}
