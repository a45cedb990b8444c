// Package security implements per-domain trust state: the trusted/untrusted
// flag, the granted-permission set, and the one-way trusted-to-untrusted
// transition a domain goes through when it hosts untrusted code.
package security

import (
	"sync"

	"github.com/KonstantinGeist/skizo-sub000/internal/metadata"
)

// Manager tracks one domain's trust state. A freshly created Manager is
// trusted; demoting it to untrusted is permanent for its lifetime.
type Manager struct {
	mu          sync.RWMutex
	trusted     bool
	permissions map[string]struct{}
}

func New() *Manager {
	return &Manager{
		trusted:     true,
		permissions: make(map[string]struct{}),
	}
}

// SetTrusted demotes a trusted manager to untrusted. There is only one
// direction: trusted -> untrusted. An attempt to elevate back to trusted
// is silently ignored.
func (m *Manager) SetTrusted(value bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value && !m.trusted {
		return
	}
	m.trusted = value
}

func (m *Manager) IsTrusted() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trusted
}

// AddPermission grants a named permission. Name is a flat permission-class
// name (e.g. "FileIOPermission") or a permission object's class flat name.
func (m *Manager) AddPermission(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.permissions[name] = struct{}{}
}

// Permissions returns the granted permission names, in no particular order.
func (m *Manager) Permissions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.permissions))
	for n := range m.permissions {
		names = append(names, n)
	}
	return names
}

func (m *Manager) IsPermissionGranted(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.permissions[name]
	return ok
}

// DemandPermission aborts with ErrDisallowedCall if the manager is
// untrusted and the named permission hasn't been granted. Trusted domains
// never check: every demand passes.
func (m *Manager) DemandPermission(name string) error {
	if m.IsTrusted() {
		return nil
	}
	if !m.IsPermissionGranted(name) {
		return metadata.NewAbort(metadata.ErrDisallowedCall)
	}
	return nil
}

// DemandPermissionOf is the object-permission variant: the permission name
// is the flat name of the permission instance's class, mirroring emitted
// code that demands a permission object rather than a bare string.
func (m *Manager) DemandPermissionOf(permissionClass *metadata.Class) error {
	if permissionClass == nil {
		panic(&metadata.AbortError{Code: metadata.ErrNullDereference, Message: "Null dereference."})
	}
	return m.DemandPermission(permissionClass.FlatName)
}
