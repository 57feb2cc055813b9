// Package memory is a software switch implementing the driver contract. It
// keeps VLAN tables and bridge domain counters in process and is used for
// tests, demos and the daemon's "memory" driver.
package memory

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/veesix-networks/osvlan/pkg/ifmgr"
	"github.com/veesix-networks/osvlan/pkg/logger"
	"github.com/veesix-networks/osvlan/pkg/switchapi"
)

// Op names a driver primitive for fault injection and call accounting.
type Op string

const (
	OpVlanCreate        Op = "vlan_create"
	OpVlanDelete        Op = "vlan_delete"
	OpVlanIDToHandle    Op = "vlan_id_to_handle"
	OpIGMPSnoopingSet   Op = "igmp_snooping_set"
	OpMLDSnoopingSet    Op = "mld_snooping_set"
	OpVlanPortsAdd      Op = "vlan_ports_add"
	OpVlanPortsRemove   Op = "vlan_ports_remove"
	OpVlanInterfacesGet Op = "vlan_interfaces_get"
	OpInterfacePort     Op = "interface_port_handle"
	OpVlanStatsGet      Op = "vlan_stats_get"
)

type Config struct {
	Device switchapi.Device
	Ports  []string
}

type vlanEntry struct {
	id      switchapi.VlanID
	handle  switchapi.Handle
	igmp    bool
	mld     bool
	members map[switchapi.Handle]switchapi.TaggingMode
	order   []switchapi.Handle
	stats   [switchapi.BDStatsMax]switchapi.Counter
}

type Switch struct {
	mu       sync.RWMutex
	device   switchapi.Device
	ifs      *ifmgr.Manager
	vlans    map[switchapi.VlanID]*vlanEntry
	byHandle map[switchapi.Handle]*vlanEntry
	nextBD   uint32
	nextPort uint32
	faults   map[Op]error
	calls    map[Op]int
	logger   *slog.Logger
}

var (
	_ switchapi.Driver       = (*Switch)(nil)
	_ switchapi.PortResolver = (*Switch)(nil)
)

func New(cfg Config) *Switch {
	s := &Switch{
		device:   cfg.Device,
		ifs:      ifmgr.New(),
		vlans:    make(map[switchapi.VlanID]*vlanEntry),
		byHandle: make(map[switchapi.Handle]*vlanEntry),
		nextBD:   1,
		nextPort: 1,
		faults:   make(map[Op]error),
		calls:    make(map[Op]int),
		logger:   logger.Get(logger.Memory),
	}
	for _, name := range cfg.Ports {
		s.AddPort(name)
	}
	return s
}

// AddPort registers a front panel port and returns its handle.
func (s *Switch) AddPort(name string) switchapi.Handle {
	s.mu.Lock()
	idx := s.nextPort
	s.nextPort++
	s.mu.Unlock()

	iface := &ifmgr.Interface{
		SwIfIndex:    idx,
		SupSwIfIndex: idx,
		Name:         name,
		AdminUp:      true,
		LinkUp:       true,
		MTU:          1500,
	}
	s.ifs.Add(iface)
	s.logger.Debug("Added port", "name", name, "handle", iface.PortHandle().String())
	return iface.PortHandle()
}

func (s *Switch) Ports() []switchapi.Port {
	return s.ifs.Ports()
}

func (s *Switch) PortByName(name string) (switchapi.Handle, error) {
	return s.ifs.PortByName(name)
}

// InjectFault makes every later call of op fail with err. A nil err clears
// the fault.
func (s *Switch) InjectFault(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

// Calls reports how many times op has been invoked.
func (s *Switch) Calls(op Op) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[op]
}

// Snooping reports the IGMP and MLD snooping flags of vlan.
func (s *Switch) Snooping(vlan switchapi.VlanID) (igmp, mld bool, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.vlans[vlan]
	if !ok {
		return false, false, false
	}
	return e.igmp, e.mld, true
}

// enter records a call of op and returns the injected fault, if any. Callers
// hold s.mu for writing.
func (s *Switch) enter(op Op) error {
	s.calls[op]++
	return s.faults[op]
}

func (s *Switch) checkDevice(dev switchapi.Device) error {
	if dev != s.device {
		return fmt.Errorf("device %d: %w", dev, switchapi.StatusInvalidParameter)
	}
	return nil
}

func (s *Switch) entry(h switchapi.Handle) (*vlanEntry, error) {
	if h.Type() != switchapi.HandleTypeVlan {
		return nil, fmt.Errorf("handle %s: %w", h, switchapi.StatusInvalidHandle)
	}
	e, ok := s.byHandle[h]
	if !ok {
		return nil, fmt.Errorf("vlan handle %s: %w", h, switchapi.StatusItemNotFound)
	}
	return e, nil
}

func (s *Switch) VlanCreate(dev switchapi.Device, vlan switchapi.VlanID) (switchapi.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(OpVlanCreate); err != nil {
		return switchapi.InvalidHandle, err
	}
	if err := s.checkDevice(dev); err != nil {
		return switchapi.InvalidHandle, err
	}
	if vlan < 1 || vlan > 4094 {
		return switchapi.InvalidHandle, fmt.Errorf("vlan %d: %w", vlan, switchapi.StatusInvalidVlanID)
	}
	if _, ok := s.vlans[vlan]; ok {
		return switchapi.InvalidHandle, fmt.Errorf("vlan %d: %w", vlan, switchapi.StatusItemAlreadyExists)
	}

	e := &vlanEntry{
		id:      vlan,
		handle:  switchapi.IDToHandle(switchapi.HandleTypeVlan, s.nextBD),
		members: make(map[switchapi.Handle]switchapi.TaggingMode),
	}
	s.nextBD++
	s.vlans[vlan] = e
	s.byHandle[e.handle] = e
	return e.handle, nil
}

func (s *Switch) VlanDelete(dev switchapi.Device, h switchapi.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(OpVlanDelete); err != nil {
		return err
	}
	if err := s.checkDevice(dev); err != nil {
		return err
	}
	e, err := s.entry(h)
	if err != nil {
		return err
	}
	delete(s.vlans, e.id)
	delete(s.byHandle, h)
	return nil
}

func (s *Switch) VlanIDToHandle(vlan switchapi.VlanID) (switchapi.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(OpVlanIDToHandle); err != nil {
		return switchapi.InvalidHandle, err
	}
	e, ok := s.vlans[vlan]
	if !ok {
		return switchapi.InvalidHandle, fmt.Errorf("vlan %d: %w", vlan, switchapi.StatusItemNotFound)
	}
	return e.handle, nil
}

func (s *Switch) VlanIGMPSnoopingSet(h switchapi.Handle, enable bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(OpIGMPSnoopingSet); err != nil {
		return err
	}
	e, err := s.entry(h)
	if err != nil {
		return err
	}
	e.igmp = enable
	return nil
}

func (s *Switch) VlanMLDSnoopingSet(h switchapi.Handle, enable bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(OpMLDSnoopingSet); err != nil {
		return err
	}
	e, err := s.entry(h)
	if err != nil {
		return err
	}
	e.mld = enable
	return nil
}

func (s *Switch) VlanPortsAdd(dev switchapi.Device, h switchapi.Handle, ports []switchapi.VlanPort) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(OpVlanPortsAdd); err != nil {
		return err
	}
	if err := s.checkDevice(dev); err != nil {
		return err
	}
	e, err := s.entry(h)
	if err != nil {
		return err
	}

	for _, p := range ports {
		if _, err := s.ifs.PortInterface(p.Handle); err != nil {
			return err
		}
		if _, ok := e.members[p.Handle]; ok {
			return fmt.Errorf("port %s in vlan %d: %w", p.Handle, e.id, switchapi.StatusItemAlreadyExists)
		}
		if p.TaggingMode == switchapi.TaggingModeUntagged {
			if other := s.untaggedVlan(p.Handle); other != nil {
				return fmt.Errorf("port %s untagged in vlan %d: %w", p.Handle, other.id, switchapi.StatusPortInUse)
			}
		}
	}

	for _, p := range ports {
		e.members[p.Handle] = p.TaggingMode
		e.order = append(e.order, p.Handle)
	}
	return nil
}

func (s *Switch) VlanPortsRemove(dev switchapi.Device, h switchapi.Handle, ports []switchapi.VlanPort) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(OpVlanPortsRemove); err != nil {
		return err
	}
	if err := s.checkDevice(dev); err != nil {
		return err
	}
	e, err := s.entry(h)
	if err != nil {
		return err
	}

	for _, p := range ports {
		if _, ok := e.members[p.Handle]; !ok {
			return fmt.Errorf("port %s in vlan %d: %w", p.Handle, e.id, switchapi.StatusItemNotFound)
		}
	}
	for _, p := range ports {
		delete(e.members, p.Handle)
		for i, m := range e.order {
			if m == p.Handle {
				e.order = append(e.order[:i], e.order[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (s *Switch) VlanInterfacesGet(dev switchapi.Device, h switchapi.Handle) ([]switchapi.VlanInterface, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(OpVlanInterfacesGet); err != nil {
		return nil, err
	}
	if err := s.checkDevice(dev); err != nil {
		return nil, err
	}
	e, err := s.entry(h)
	if err != nil {
		return nil, err
	}

	out := make([]switchapi.VlanInterface, 0, len(e.order))
	for _, port := range e.order {
		out = append(out, switchapi.VlanInterface{
			Handle:      switchapi.IDToHandle(switchapi.HandleTypeInterface, port.Index()),
			TaggingMode: e.members[port],
		})
	}
	return out, nil
}

func (s *Switch) InterfacePortHandle(intf switchapi.Handle) (switchapi.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(OpInterfacePort); err != nil {
		return switchapi.InvalidHandle, err
	}
	if intf.Type() != switchapi.HandleTypeInterface {
		return switchapi.InvalidHandle, fmt.Errorf("handle %s: %w", intf, switchapi.StatusInvalidHandle)
	}
	iface := s.ifs.Get(intf.Index())
	if iface == nil {
		return switchapi.InvalidHandle, fmt.Errorf("interface %s: %w", intf, switchapi.StatusItemNotFound)
	}
	return iface.PortHandle(), nil
}

func (s *Switch) VlanStatsGet(dev switchapi.Device, h switchapi.Handle, ids []switchapi.BDStatsID) ([]switchapi.Counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(OpVlanStatsGet); err != nil {
		return nil, err
	}
	if err := s.checkDevice(dev); err != nil {
		return nil, err
	}
	e, err := s.entry(h)
	if err != nil {
		return nil, err
	}

	out := make([]switchapi.Counter, len(ids))
	for i, id := range ids {
		if id >= switchapi.BDStatsMax {
			return nil, fmt.Errorf("stats id %d: %w", id, switchapi.StatusInvalidParameter)
		}
		out[i] = e.stats[id]
	}
	return out, nil
}

// SetCounters overwrites the bridge domain counters of vlan.
func (s *Switch) SetCounters(vlan switchapi.VlanID, c [switchapi.BDStatsMax]switchapi.Counter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.vlans[vlan]
	if !ok {
		return fmt.Errorf("vlan %d: %w", vlan, switchapi.StatusItemNotFound)
	}
	e.stats = c
	return nil
}

func (s *Switch) untaggedVlan(port switchapi.Handle) *vlanEntry {
	for _, e := range s.vlans {
		if mode, ok := e.members[port]; ok && mode == switchapi.TaggingModeUntagged {
			return e
		}
	}
	return nil
}
