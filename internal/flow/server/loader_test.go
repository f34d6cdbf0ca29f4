package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flow-lang/flow/internal/flow/cache"
)

func noEnv(string) string { return "" }

func TestLoadWorkflows_NamesByConfigEntry(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.flow"), []byte(
		"config:\n    name: order-fulfillment\nworkflow:\n    complete with status \"ok\"\n",
	), 0o644))

	workflows, failed, err := loadWorkflows(dir, cache.NewMemory(), noEnv)
	require.NoError(t, err)
	assert.Empty(t, failed)
	require.Contains(t, workflows, "order-fulfillment")
}

func TestLoadWorkflows_NamesByFilenameWithoutConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "billing-sync.flow"), []byte(
		"workflow:\n    complete with status \"ok\"\n",
	), 0o644))

	workflows, failed, err := loadWorkflows(dir, cache.NewMemory(), noEnv)
	require.NoError(t, err)
	assert.Empty(t, failed)
	require.Contains(t, workflows, "billing-sync")
}

func TestLoadWorkflows_RecordsCompileFailuresWithoutAborting(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.flow"), []byte(
		"workflow:\n    this is not a statement\n",
	), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.flow"), []byte(
		"workflow:\n    complete with status \"ok\"\n",
	), 0o644))

	workflows, failed, err := loadWorkflows(dir, cache.NewMemory(), noEnv)
	require.NoError(t, err)
	assert.Contains(t, workflows, "good")
	assert.Contains(t, failed, "broken")
}

func TestLoadWorkflows_IgnoresNonFlowFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("not a workflow"), 0o644))

	workflows, failed, err := loadWorkflows(dir, cache.NewMemory(), noEnv)
	require.NoError(t, err)
	assert.Empty(t, workflows)
	assert.Empty(t, failed)
}
