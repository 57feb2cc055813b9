package ifmgr

import (
	"fmt"
	"sort"
	"sync"

	"github.com/veesix-networks/osvlan/pkg/switchapi"
)

type Manager struct {
	mu          sync.RWMutex
	bySwIfIndex map[uint32]*Interface
	byName      map[string]*Interface
}

func New() *Manager {
	return &Manager{
		bySwIfIndex: make(map[uint32]*Interface),
		byName:      make(map[string]*Interface),
	}
}

func (m *Manager) Add(iface *Interface) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.bySwIfIndex[iface.SwIfIndex]; ok && old.Name != "" {
		delete(m.byName, old.Name)
	}
	m.bySwIfIndex[iface.SwIfIndex] = iface
	if iface.Name != "" {
		m.byName[iface.Name] = iface
	}
}

func (m *Manager) Rename(oldName, newName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if iface, ok := m.byName[oldName]; ok {
		delete(m.byName, oldName)
		iface.Name = newName
		m.byName[newName] = iface
	}
}

func (m *Manager) Remove(swIfIndex uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if iface, ok := m.bySwIfIndex[swIfIndex]; ok {
		delete(m.bySwIfIndex, swIfIndex)
		if iface.Name != "" {
			delete(m.byName, iface.Name)
		}
	}
}

func (m *Manager) Get(swIfIndex uint32) *Interface {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.bySwIfIndex[swIfIndex]
}

func (m *Manager) GetByName(name string) *Interface {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if iface, ok := m.byName[name]; ok {
		return iface
	}
	return m.byName["host-"+name]
}

func (m *Manager) GetSwIfIndex(name string) (uint32, bool) {
	iface := m.GetByName(name)
	if iface == nil {
		return 0, false
	}
	return iface.SwIfIndex, true
}

// GetSubinterface returns the dot1q sub-interface of parent carrying vlan.
func (m *Manager) GetSubinterface(parent uint32, vlan uint16) *Interface {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, iface := range m.bySwIfIndex {
		if iface.IsSubinterface() && iface.SupSwIfIndex == parent && iface.OuterVlanID == vlan {
			return iface
		}
	}
	return nil
}

func (m *Manager) List() []*Interface {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Interface, 0, len(m.bySwIfIndex))
	for _, iface := range m.bySwIfIndex {
		result = append(result, iface)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SwIfIndex < result[j].SwIfIndex })
	return result
}

func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.bySwIfIndex = make(map[uint32]*Interface)
	m.byName = make(map[string]*Interface)
}

// Ports lists the physical interfaces ordered by index.
func (m *Manager) Ports() []switchapi.Port {
	var ports []switchapi.Port
	for _, iface := range m.List() {
		if iface.IsSubinterface() {
			continue
		}
		ports = append(ports, iface.Port())
	}
	return ports
}

// PortByName resolves a physical port name to its switch handle.
func (m *Manager) PortByName(name string) (switchapi.Handle, error) {
	iface := m.GetByName(name)
	if iface == nil || iface.IsSubinterface() {
		return switchapi.InvalidHandle, fmt.Errorf("port %q: %w", name, switchapi.StatusItemNotFound)
	}
	return iface.PortHandle(), nil
}

// PortInterface resolves a port handle back to its interface entry.
func (m *Manager) PortInterface(port switchapi.Handle) (*Interface, error) {
	if port.Type() != switchapi.HandleTypePort {
		return nil, fmt.Errorf("handle %s is not a port: %w", port, switchapi.StatusInvalidHandle)
	}
	iface := m.Get(port.Index())
	if iface == nil || iface.IsSubinterface() {
		return nil, fmt.Errorf("port %s: %w", port, switchapi.StatusItemNotFound)
	}
	return iface, nil
}

var _ switchapi.PortResolver = (*Manager)(nil)
