package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flow-lang/flow/internal/flow/ast"
)

func TestMemory_SetAndGet(t *testing.T) {
	m := NewMemory()
	hash := Hash("workflow:\n    complete with status \"ok\"\n")

	err := m.Set(hash, &Entry{Program: &ast.Program{Workflow: &ast.Workflow{}}})
	require.NoError(t, err)

	entry, ok := m.Get(hash)
	require.True(t, ok)
	assert.Equal(t, hash, entry.Hash)
	assert.NotZero(t, entry.CachedAt)
	assert.Equal(t, 1, m.Size())
}

func TestMemory_GetMiss(t *testing.T) {
	m := NewMemory()
	_, ok := m.Get("nonexistent")
	assert.False(t, ok)
}

func TestMemory_Invalidate(t *testing.T) {
	m := NewMemory()
	hash := Hash("source")
	require.NoError(t, m.Set(hash, &Entry{Program: &ast.Program{}}))

	m.Invalidate(hash)

	_, ok := m.Get(hash)
	assert.False(t, ok)
	assert.Equal(t, 0, m.Size())
}

func TestHash_Stable(t *testing.T) {
	a := Hash("same source")
	b := Hash("same source")
	c := Hash("different source")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
