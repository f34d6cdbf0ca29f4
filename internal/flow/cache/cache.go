// Package cache stores parsed, analyzed Flow programs keyed by the SHA-256
// of their source text, so a host serving the same workflow repeatedly
// (the webhook server, or `flow run` in a loop) skips re-lexing,
// re-parsing, and re-analyzing unchanged source. This caches compiled
// artifacts only; no workflow execution or variable state is ever cached.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/flow-lang/flow/internal/flow/ast"
	"github.com/flow-lang/flow/internal/flow/diagnostics"
)

// Entry is one cached compilation result.
type Entry struct {
	Program     *ast.Program
	Diagnostics diagnostics.List
	Hash        string
	CachedAt    time.Time
}

// Hash computes the cache key for a piece of source text.
func Hash(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// ProgramCache is the interface both backends (Memory, Redis) implement.
type ProgramCache interface {
	Get(hash string) (*Entry, bool)
	Set(hash string, entry *Entry) error
	Invalidate(hash string)
}

// Memory is an in-memory, mutex-guarded ProgramCache: a direct adaptation
// of ASTCache, keyed by content hash instead of file path since a Flow
// program has no persistent file identity across hosts.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemory builds an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*Entry)}
}

func (m *Memory) Get(hash string) (*Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[hash]
	return e, ok
}

func (m *Memory) Set(hash string, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.Hash = hash
	entry.CachedAt = time.Now()
	m.entries[hash] = entry
	return nil
}

func (m *Memory) Invalidate(hash string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, hash)
}

// Size returns the number of cached entries.
func (m *Memory) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
