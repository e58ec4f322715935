package subcmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/openziti/vmcap/kernel/store"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testInventoryPath = "testdata/inventory.yml"

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// useConfig points the commands at a config file for the duration of a test.
func useConfig(t *testing.T, content string) {
	t.Helper()
	path := writeTempYaml(t, "config.yml", content)
	configFile = path
	t.Cleanup(func() { configFile = "" })
}

func writeTempYaml(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCheckCommand(t *testing.T) {
	useConfig(t, "workers: 2\n")

	out, err := execute(t, NewCheckCommand(), "--inventory", testInventoryPath)
	require.NoError(t, err)

	assert.Contains(t, out, "web-1")
	assert.Contains(t, out, "legacy-1")
	assert.Contains(t, out, "golden-template")
	assert.Contains(t, out, "Feature not supported")
	assert.Contains(t, out, "Publish operation is not supported")
}

func TestCheckCommand_SingleOperation(t *testing.T) {
	useConfig(t, "workers: 1\n")

	out, err := execute(t, NewCheckCommand(), "-i", testInventoryPath, "--vm", "vm-2", "--op", "publish")
	require.NoError(t, err)

	assert.Contains(t, out, "This feature is not supported by the api version of the provider")
	assert.NotContains(t, out, "web-1")
	assert.NotContains(t, out, "migrate")
}

func TestCheckCommand_UnknownVM(t *testing.T) {
	useConfig(t, "workers: 1\n")

	_, err := execute(t, NewCheckCommand(), "-i", testInventoryPath, "--vm", "nope")
	require.Error(t, err)
}

func TestCheckCommand_InventoryFromConfig(t *testing.T) {
	abs, err := filepath.Abs(testInventoryPath)
	require.NoError(t, err)
	useConfig(t, "inventory: "+abs+"\n")

	out, err := execute(t, NewCheckCommand(), "--vm", "vm-1", "--op", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "web-1")
}

func TestCheckCommand_NoInventory(t *testing.T) {
	useConfig(t, "workers: 1\n")

	_, err := execute(t, NewCheckCommand())
	require.Error(t, err)
}

func TestReconcileCommand_DryRun(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "vms.json")
	useConfig(t, "store:\n  backend: file\n  path: "+storePath+"\n")

	out, err := execute(t, NewReconcileCommand(), "-i", testInventoryPath, "--vm", "vm-1", "--dry-run")
	require.NoError(t, err)

	assert.Contains(t, out, "data-2")
	assert.Contains(t, out, "10.5GiB")
	_, err = os.Stat(storePath)
	assert.True(t, os.IsNotExist(err))
}

func TestReconcileCommand_Persists(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "vms.json")
	useConfig(t, "store:\n  backend: file\n  path: "+storePath+"\n")

	out, err := execute(t, NewReconcileCommand(), "-i", testInventoryPath, "--vm", "vm-1")
	require.NoError(t, err)
	assert.Contains(t, out, "data-2")

	s := store.NewFileStore(storePath)
	defer func() { _ = s.Close() }()
	rec, err := s.GetVM("vm-1")
	require.NoError(t, err)
	assert.Equal(t, "s1", rec.StorageID)
	assert.Empty(t, rec.StorageIDs)
}

func TestReconcileCommand_RerunUsesPersistedState(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "vms.json")
	useConfig(t, "store:\n  backend: file\n  path: "+storePath+"\n")

	out, err := execute(t, NewReconcileCommand(), "-i", testInventoryPath, "--vm", "vm-1")
	require.NoError(t, err)
	assert.Contains(t, out, "data-2")

	out, err = execute(t, NewReconcileCommand(), "-i", testInventoryPath, "--vm", "vm-1")
	require.NoError(t, err)
	assert.Contains(t, out, "data-1")
	assert.NotContains(t, out, "data-2")

	out, err = execute(t, NewCheckCommand(), "-i", testInventoryPath, "--vm", "vm-1", "--op", "reconfigure_disks")
	require.NoError(t, err)
	assert.Contains(t, out, "true")
}

func TestReconcileCommand_PersistsCompletedOnFailure(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "vms.json")
	useConfig(t, "workers: 1\nstore:\n  backend: file\n  path: "+storePath+"\n")

	out, err := execute(t, NewReconcileCommand(), "-i", testInventoryPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider unreachable")
	assert.Contains(t, out, "failed")

	s := store.NewFileStore(storePath)
	defer func() { _ = s.Close() }()
	rec, err := s.GetVM("vm-1")
	require.NoError(t, err)
	assert.Empty(t, rec.StorageIDs)

	_, err = s.GetVM("vm-2")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReconcileCommand_SkipsInactive(t *testing.T) {
	useConfig(t, "workers: 1\n")

	out, err := execute(t, NewReconcileCommand(), "-i", testInventoryPath, "--vm", "vm-3")
	require.NoError(t, err)
	assert.Contains(t, out, "skipped")
}

func TestReconcileCommand_ProviderUnreachable(t *testing.T) {
	useConfig(t, "workers: 1\n")

	_, err := execute(t, NewReconcileCommand(), "-i", testInventoryPath, "--vm", "vm-2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider unreachable")
}

func TestExistsCommand(t *testing.T) {
	useConfig(t, "workers: 1\n")

	out, err := execute(t, NewExistsCommand(), "-i", testInventoryPath, "--vm", "vm-1")
	require.NoError(t, err)
	assert.Contains(t, out, "exists on provider: true")

	out, err = execute(t, NewExistsCommand(), "-i", testInventoryPath, "--vm", "vm-3")
	require.NoError(t, err)
	assert.Contains(t, out, "exists on provider: false")
}

func TestExistsCommand_RequiresVM(t *testing.T) {
	useConfig(t, "workers: 1\n")

	_, err := execute(t, NewExistsCommand(), "-i", testInventoryPath)
	require.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	useConfig(t, "workers: 1\n")

	out, err := execute(t, NewValidateCommand(), "-i", testInventoryPath)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")

	bad := writeTempYaml(t, "bad.yml", "vms:\n  - name: a\n    manager: nope\n")
	out, err = execute(t, NewValidateCommand(), "-i", bad)
	require.Error(t, err)
	assert.Contains(t, out, "vms[0].manager")
}

func TestValidateCommand_InventoryFromConfig(t *testing.T) {
	abs, err := filepath.Abs(testInventoryPath)
	require.NoError(t, err)
	useConfig(t, "inventory: "+abs+"\n")

	out, err := execute(t, NewValidateCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")
}

func TestValidateCommand_NoInventory(t *testing.T) {
	useConfig(t, "workers: 1\n")

	_, err := execute(t, NewValidateCommand())
	require.Error(t, err)
}

func TestValidateCommand_InvalidPath(t *testing.T) {
	useConfig(t, "workers: 1\n")

	_, err := execute(t, NewValidateCommand(), "-i", "/nonexistent/path.yml")
	require.Error(t, err)
}

func TestLoadConfig_InvalidBackend(t *testing.T) {
	useConfig(t, "store:\n  backend: etcd\n")

	_, err := execute(t, NewCheckCommand(), "-i", testInventoryPath)
	require.Error(t, err)
}

func TestRootCommand_InvalidLogLevel(t *testing.T) {
	useConfig(t, "workers: 1\n")
	t.Cleanup(func() { logLevel = "" })

	_, err := execute(t, RootCmd, "--log-level", "loud", "check", "-i", testInventoryPath)
	require.Error(t, err)
}
