package store

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process store used by tests and dry runs. It satisfies
// Repository, Writer and Leaser.
type Memory struct {
	mu      sync.Mutex
	entries map[string]Entry
	leases  map[string]Lease
	// ListErr, when set, is returned by ListEntries
	ListErr error
}

var (
	_ Repository = (*Memory)(nil)
	_ Writer     = (*Memory)(nil)
	_ Leaser     = (*Memory)(nil)
)

// NewMemory returns a store seeded with entries
func NewMemory(entries ...Entry) *Memory {
	m := &Memory{
		entries: make(map[string]Entry, len(entries)),
		leases:  make(map[string]Lease),
	}
	for _, e := range entries {
		m.entries[e.LogGroupName] = e
	}
	return m
}

// ListEntries returns entries sorted by log group name
func (m *Memory) ListEntries(_ context.Context) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListErr != nil {
		return nil, m.ListErr
	}

	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LogGroupName < out[j].LogGroupName })
	return out, nil
}

// PutEntry stores entry
func (m *Memory) PutEntry(_ context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.LogGroupName] = entry
	return nil
}

// DeleteEntry removes the entry for logGroupName
func (m *Memory) DeleteEntry(_ context.Context, logGroupName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, logGroupName)
	return nil
}

// Acquire applies the same rules as LeaseTable.Acquire
func (m *Memory) Acquire(_ context.Context, lease Lease) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.leases[lease.LogGroupName]; ok && cur.blocks(lease) {
		return ErrLeaseHeld
	}
	m.leases[lease.LogGroupName] = lease
	return nil
}

// Release drops owner's lease on logGroupName, if it still holds it
func (m *Memory) Release(_ context.Context, logGroupName, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.leases[logGroupName]; ok && cur.Owner == owner {
		delete(m.leases, logGroupName)
	}
	return nil
}

// Leases returns the current leases by log group
func (m *Memory) Leases() map[string]Lease {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]Lease, len(m.leases))
	for k, v := range m.leases {
		out[k] = v
	}
	return out
}
