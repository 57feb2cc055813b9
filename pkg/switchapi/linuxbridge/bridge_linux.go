//go:build linux

package linuxbridge

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/veesix-networks/osvlan/pkg/logger"
	"github.com/veesix-networks/osvlan/pkg/switchapi"
	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netlink/nl"
	"github.com/vishvananda/netns"
	"golang.org/x/sys/unix"
)

// netlinkOps is the subset of *netlink.Handle the driver uses.
type netlinkOps interface {
	LinkByName(name string) (netlink.Link, error)
	LinkByIndex(index int) (netlink.Link, error)
	LinkList() ([]netlink.Link, error)
	BridgeVlanAdd(link netlink.Link, vid uint16, pvid, untagged, self, master bool) error
	BridgeVlanDel(link netlink.Link, vid uint16, pvid, untagged, self, master bool) error
	BridgeVlanList() (map[int32][]*nl.BridgeVlanInfo, error)
	BridgeSetMcastSnoop(link netlink.Link, on bool) error
}

type snooping struct {
	igmp bool
	mld  bool
}

type Bridge struct {
	nl     netlinkOps
	device switchapi.Device
	name   string
	logger *slog.Logger

	// defaultPVID is the VLAN the kernel gives every port as PVID and
	// untagged when it is enslaved. Zero when the bridge has none.
	defaultPVID switchapi.VlanID

	mu    sync.Mutex
	vlans map[switchapi.VlanID]*snooping
}

var (
	_ switchapi.Driver       = (*Bridge)(nil)
	_ switchapi.PortResolver = (*Bridge)(nil)
)

func New(cfg Config) (*Bridge, error) {
	if cfg.Bridge == "" {
		return nil, fmt.Errorf("bridge name is required")
	}

	var (
		h   *netlink.Handle
		err error
	)
	if cfg.Netns != "" {
		ns, nsErr := netns.GetFromName(cfg.Netns)
		if nsErr != nil {
			return nil, fmt.Errorf("open netns %s: %w", cfg.Netns, nsErr)
		}
		defer ns.Close()
		h, err = netlink.NewHandleAt(ns)
	} else {
		h, err = netlink.NewHandle()
	}
	if err != nil {
		return nil, fmt.Errorf("netlink handle: %w", err)
	}

	b, err := newBridge(h, cfg)
	if err != nil {
		h.Close()
		return nil, err
	}
	return b, nil
}

func newBridge(ops netlinkOps, cfg Config) (*Bridge, error) {
	b := &Bridge{
		nl:     ops,
		device: cfg.Device,
		name:   cfg.Bridge,
		logger: logger.Get(logger.Bridge),
		vlans:  make(map[switchapi.VlanID]*snooping),
	}

	br, err := b.bridge()
	if err != nil {
		return nil, err
	}
	b.defaultPVID = 1
	if pvid := br.(*netlink.Bridge).VlanDefaultPVID; pvid != nil {
		b.defaultPVID = switchapi.VlanID(*pvid)
	}

	// Adopt VLANs already configured on the bridge device.
	table, err := ops.BridgeVlanList()
	if err != nil {
		return nil, wrap("bridge vlan list", err)
	}
	for _, info := range table[int32(br.Attrs().Index)] {
		if info.Vid >= 1 && info.Vid <= 4094 {
			b.vlans[switchapi.VlanID(info.Vid)] = &snooping{}
		}
	}

	b.logger.Debug("Attached to bridge", "bridge", cfg.Bridge, "netns", cfg.Netns, "vlans", len(b.vlans), "default_pvid", b.defaultPVID)
	return b, nil
}

// Close releases the netlink handle.
func (b *Bridge) Close() error {
	if c, ok := b.nl.(interface{ Close() }); ok {
		c.Close()
	}
	return nil
}

func (b *Bridge) bridge() (netlink.Link, error) {
	link, err := b.nl.LinkByName(b.name)
	if err != nil {
		return nil, wrap("link "+b.name, err)
	}
	if _, ok := link.(*netlink.Bridge); !ok {
		return nil, fmt.Errorf("link %s is %s, not a bridge: %w", b.name, link.Type(), switchapi.StatusInvalidParameter)
	}
	return link, nil
}

func (b *Bridge) checkDevice(dev switchapi.Device) error {
	if dev != b.device {
		return fmt.Errorf("device %d: %w", dev, switchapi.StatusInvalidParameter)
	}
	return nil
}

func vlanHandle(vlan switchapi.VlanID) switchapi.Handle {
	return switchapi.IDToHandle(switchapi.HandleTypeVlan, uint32(vlan))
}

func (b *Bridge) lookup(h switchapi.Handle) (switchapi.VlanID, *snooping, error) {
	if h.Type() != switchapi.HandleTypeVlan {
		return 0, nil, fmt.Errorf("handle %s: %w", h, switchapi.StatusInvalidHandle)
	}
	vlan := switchapi.VlanID(h.Index())
	s, ok := b.vlans[vlan]
	if !ok {
		return 0, nil, fmt.Errorf("vlan %d: %w", vlan, switchapi.StatusItemNotFound)
	}
	return vlan, s, nil
}

// slaves returns the links enslaved to the bridge, sorted by ifindex.
func (b *Bridge) slaves() ([]netlink.Link, error) {
	br, err := b.bridge()
	if err != nil {
		return nil, err
	}
	links, err := b.nl.LinkList()
	if err != nil {
		return nil, wrap("link list", err)
	}

	var out []netlink.Link
	for _, l := range links {
		if l.Attrs().MasterIndex == br.Attrs().Index {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Attrs().Index < out[j].Attrs().Index })
	return out, nil
}

func (b *Bridge) Ports() []switchapi.Port {
	links, err := b.slaves()
	if err != nil {
		b.logger.Warn("Failed to list bridge ports", "bridge", b.name, "error", err)
		return nil
	}
	out := make([]switchapi.Port, 0, len(links))
	for _, l := range links {
		out = append(out, switchapi.Port{
			Handle: switchapi.IDToHandle(switchapi.HandleTypePort, uint32(l.Attrs().Index)),
			Name:   l.Attrs().Name,
			LinkUp: l.Attrs().OperState == netlink.OperUp,
		})
	}
	return out
}

func (b *Bridge) PortByName(name string) (switchapi.Handle, error) {
	link, err := b.nl.LinkByName(name)
	if err != nil {
		return switchapi.InvalidHandle, wrap("link "+name, err)
	}
	if err := b.checkSlave(link); err != nil {
		return switchapi.InvalidHandle, err
	}
	return switchapi.IDToHandle(switchapi.HandleTypePort, uint32(link.Attrs().Index)), nil
}

func (b *Bridge) checkSlave(link netlink.Link) error {
	br, err := b.bridge()
	if err != nil {
		return err
	}
	if link.Attrs().MasterIndex != br.Attrs().Index {
		return fmt.Errorf("link %s is not a port of %s: %w", link.Attrs().Name, b.name, switchapi.StatusItemNotFound)
	}
	return nil
}

func (b *Bridge) portLink(h switchapi.Handle) (netlink.Link, error) {
	if h.Type() != switchapi.HandleTypePort {
		return nil, fmt.Errorf("handle %s: %w", h, switchapi.StatusInvalidHandle)
	}
	link, err := b.nl.LinkByIndex(int(h.Index()))
	if err != nil {
		return nil, wrap(fmt.Sprintf("ifindex %d", h.Index()), err)
	}
	if err := b.checkSlave(link); err != nil {
		return nil, err
	}
	return link, nil
}

func (b *Bridge) VlanCreate(dev switchapi.Device, vlan switchapi.VlanID) (switchapi.Handle, error) {
	if err := b.checkDevice(dev); err != nil {
		return switchapi.InvalidHandle, err
	}
	if vlan < 1 || vlan > 4094 {
		return switchapi.InvalidHandle, fmt.Errorf("vlan %d: %w", vlan, switchapi.StatusInvalidVlanID)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.vlans[vlan]; ok {
		return switchapi.InvalidHandle, fmt.Errorf("vlan %d: %w", vlan, switchapi.StatusItemAlreadyExists)
	}

	br, err := b.bridge()
	if err != nil {
		return switchapi.InvalidHandle, err
	}
	if err := b.nl.BridgeVlanAdd(br, uint16(vlan), false, false, true, false); err != nil {
		return switchapi.InvalidHandle, wrap("bridge vlan add", err)
	}

	b.vlans[vlan] = &snooping{}
	b.logger.Debug("Created VLAN on bridge", "bridge", b.name, "vlan", vlan)
	return vlanHandle(vlan), nil
}

func (b *Bridge) VlanDelete(dev switchapi.Device, h switchapi.Handle) error {
	if err := b.checkDevice(dev); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	vlan, _, err := b.lookup(h)
	if err != nil {
		return err
	}

	members, err := b.members(vlan)
	if err != nil {
		return err
	}
	for _, m := range members {
		link, err := b.nl.LinkByIndex(int(m.index))
		if err != nil {
			return wrap("link by index", err)
		}
		if err := b.nl.BridgeVlanDel(link, uint16(vlan), m.pvid, m.untagged, false, false); err != nil {
			return wrap("bridge vlan del", err)
		}
	}

	br, err := b.bridge()
	if err != nil {
		return err
	}
	if err := b.nl.BridgeVlanDel(br, uint16(vlan), false, false, true, false); err != nil {
		return wrap("bridge vlan del", err)
	}

	delete(b.vlans, vlan)
	if err := b.applySnooping(br); err != nil {
		return err
	}
	b.logger.Debug("Deleted VLAN from bridge", "bridge", b.name, "vlan", vlan, "members", len(members))
	return nil
}

func (b *Bridge) VlanIDToHandle(vlan switchapi.VlanID) (switchapi.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.vlans[vlan]; !ok {
		return switchapi.InvalidHandle, fmt.Errorf("vlan %d: %w", vlan, switchapi.StatusItemNotFound)
	}
	return vlanHandle(vlan), nil
}

// VlanIGMPSnoopingSet records the per-VLAN flag. The kernel bridge snoops
// bridge-wide, so multicast snooping is on while any VLAN asks for it.
func (b *Bridge) VlanIGMPSnoopingSet(h switchapi.Handle, enable bool) error {
	return b.setSnooping(h, func(s *snooping) { s.igmp = enable })
}

func (b *Bridge) VlanMLDSnoopingSet(h switchapi.Handle, enable bool) error {
	return b.setSnooping(h, func(s *snooping) { s.mld = enable })
}

func (b *Bridge) setSnooping(h switchapi.Handle, update func(*snooping)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, s, err := b.lookup(h)
	if err != nil {
		return err
	}
	update(s)

	br, err := b.bridge()
	if err != nil {
		return err
	}
	return b.applySnooping(br)
}

// applySnooping must be called with b.mu held.
func (b *Bridge) applySnooping(br netlink.Link) error {
	on := false
	for _, s := range b.vlans {
		if s.igmp || s.mld {
			on = true
			break
		}
	}
	if err := b.nl.BridgeSetMcastSnoop(br, on); err != nil {
		return wrap("bridge mcast snooping", err)
	}
	return nil
}

func (b *Bridge) VlanPortsAdd(dev switchapi.Device, h switchapi.Handle, ports []switchapi.VlanPort) error {
	if err := b.checkDevice(dev); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	vlan, _, err := b.lookup(h)
	if err != nil {
		return err
	}

	for _, p := range ports {
		link, err := b.portLink(p.Handle)
		if err != nil {
			return err
		}

		var untagged bool
		switch p.TaggingMode {
		case switchapi.TaggingModeUntagged:
			untagged = true
		case switchapi.TaggingModeTagged:
		default:
			return fmt.Errorf("tagging mode %d on %s: %w", p.TaggingMode, link.Attrs().Name, switchapi.StatusNotSupported)
		}

		entries, err := b.portVlans(link.Attrs().Index)
		if err != nil {
			return err
		}
		var implicit *nl.BridgeVlanInfo
		for _, info := range entries {
			if switchapi.VlanID(info.Vid) == vlan {
				return fmt.Errorf("port %s in vlan %d: %w", link.Attrs().Name, vlan, switchapi.StatusItemAlreadyExists)
			}
			if !untagged || info.Flags&nl.BRIDGE_VLAN_INFO_PVID == 0 || b.vlans[switchapi.VlanID(info.Vid)] == nil {
				continue
			}
			if b.isDefaultPVID(info) {
				implicit = info
				continue
			}
			return fmt.Errorf("port %s untagged in vlan %d: %w", link.Attrs().Name, info.Vid, switchapi.StatusPortInUse)
		}

		// The membership the kernel adds on enslave gives way to an
		// explicit untagged VLAN.
		if implicit != nil {
			if err := b.nl.BridgeVlanDel(link, implicit.Vid, true, true, false, false); err != nil {
				return wrap("bridge vlan del", err)
			}
			b.logger.Debug("Released default PVID", "bridge", b.name, "vlan", implicit.Vid, "port", link.Attrs().Name)
		}

		if err := b.nl.BridgeVlanAdd(link, uint16(vlan), untagged, untagged, false, false); err != nil {
			if implicit != nil {
				if rerr := b.nl.BridgeVlanAdd(link, implicit.Vid, true, true, false, false); rerr != nil {
					b.logger.Warn("Failed to restore default PVID", "bridge", b.name, "vlan", implicit.Vid, "port", link.Attrs().Name, "error", rerr)
				}
			}
			return wrap("bridge vlan add", err)
		}
		b.logger.Debug("Added port to VLAN", "bridge", b.name, "vlan", vlan, "port", link.Attrs().Name, "untagged", untagged)
	}
	return nil
}

func (b *Bridge) isDefaultPVID(info *nl.BridgeVlanInfo) bool {
	const implicit = nl.BRIDGE_VLAN_INFO_PVID | nl.BRIDGE_VLAN_INFO_UNTAGGED
	return b.defaultPVID != 0 && switchapi.VlanID(info.Vid) == b.defaultPVID && info.Flags&implicit == implicit
}

func (b *Bridge) VlanPortsRemove(dev switchapi.Device, h switchapi.Handle, ports []switchapi.VlanPort) error {
	if err := b.checkDevice(dev); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	vlan, _, err := b.lookup(h)
	if err != nil {
		return err
	}

	for _, p := range ports {
		link, err := b.portLink(p.Handle)
		if err != nil {
			return err
		}
		entries, err := b.portVlans(link.Attrs().Index)
		if err != nil {
			return err
		}

		var found *nl.BridgeVlanInfo
		for _, info := range entries {
			if switchapi.VlanID(info.Vid) == vlan {
				found = info
				break
			}
		}
		if found == nil {
			return fmt.Errorf("port %s in vlan %d: %w", link.Attrs().Name, vlan, switchapi.StatusItemNotFound)
		}

		pvid := found.Flags&nl.BRIDGE_VLAN_INFO_PVID != 0
		untagged := found.Flags&nl.BRIDGE_VLAN_INFO_UNTAGGED != 0
		if err := b.nl.BridgeVlanDel(link, uint16(vlan), pvid, untagged, false, false); err != nil {
			return wrap("bridge vlan del", err)
		}
	}
	return nil
}

func (b *Bridge) portVlans(ifindex int) ([]*nl.BridgeVlanInfo, error) {
	table, err := b.nl.BridgeVlanList()
	if err != nil {
		return nil, wrap("bridge vlan list", err)
	}
	return table[int32(ifindex)], nil
}

type vlanMember struct {
	index    uint32
	pvid     bool
	untagged bool
}

// members reads the kernel VLAN table and returns the bridge ports carrying
// vlan, sorted by ifindex.
func (b *Bridge) members(vlan switchapi.VlanID) ([]vlanMember, error) {
	br, err := b.bridge()
	if err != nil {
		return nil, err
	}
	table, err := b.nl.BridgeVlanList()
	if err != nil {
		return nil, wrap("bridge vlan list", err)
	}

	var out []vlanMember
	for ifindex, entries := range table {
		if int(ifindex) == br.Attrs().Index {
			continue
		}
		for _, info := range entries {
			if switchapi.VlanID(info.Vid) != vlan {
				continue
			}
			out = append(out, vlanMember{
				index:    uint32(ifindex),
				pvid:     info.Flags&nl.BRIDGE_VLAN_INFO_PVID != 0,
				untagged: info.Flags&nl.BRIDGE_VLAN_INFO_UNTAGGED != 0,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].index < out[j].index })
	return out, nil
}

func (b *Bridge) VlanInterfacesGet(dev switchapi.Device, h switchapi.Handle) ([]switchapi.VlanInterface, error) {
	if err := b.checkDevice(dev); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	vlan, _, err := b.lookup(h)
	if err != nil {
		return nil, err
	}
	members, err := b.members(vlan)
	if err != nil {
		return nil, err
	}

	out := make([]switchapi.VlanInterface, 0, len(members))
	for _, m := range members {
		mode := switchapi.TaggingModeTagged
		if m.untagged {
			mode = switchapi.TaggingModeUntagged
		}
		out = append(out, switchapi.VlanInterface{
			Handle:      switchapi.IDToHandle(switchapi.HandleTypeInterface, m.index),
			TaggingMode: mode,
		})
	}
	return out, nil
}

// InterfacePortHandle maps a member interface to its port. Bridge ports are
// their own interfaces so only the handle type changes.
func (b *Bridge) InterfacePortHandle(intf switchapi.Handle) (switchapi.Handle, error) {
	if intf.Type() != switchapi.HandleTypeInterface {
		return switchapi.InvalidHandle, fmt.Errorf("handle %s: %w", intf, switchapi.StatusInvalidHandle)
	}
	return switchapi.IDToHandle(switchapi.HandleTypePort, intf.Index()), nil
}

// VlanStatsGet sums the link counters of every member port. The kernel keeps
// no per-VLAN counters on a bridge, and has no broadcast split, so broadcast
// buckets stay zero and received multicast is carved out of the unicast
// packet count.
func (b *Bridge) VlanStatsGet(dev switchapi.Device, h switchapi.Handle, ids []switchapi.BDStatsID) ([]switchapi.Counter, error) {
	if err := b.checkDevice(dev); err != nil {
		return nil, err
	}

	b.mu.Lock()
	vlan, _, err := b.lookup(h)
	if err != nil {
		b.mu.Unlock()
		return nil, err
	}
	members, err := b.members(vlan)
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}

	stats := make([]*netlink.LinkStatistics, 0, len(members))
	for _, m := range members {
		link, err := b.nl.LinkByIndex(int(m.index))
		if err != nil {
			return nil, fmt.Errorf("vlan %d stats: %v: %w", vlan, err, switchapi.StatusHWFailure)
		}
		stats = append(stats, link.Attrs().Statistics)
	}
	buckets := aggregate(stats)

	out := make([]switchapi.Counter, len(ids))
	for i, id := range ids {
		if id >= switchapi.BDStatsMax {
			return nil, fmt.Errorf("stats id %d: %w", id, switchapi.StatusInvalidParameter)
		}
		out[i] = buckets[id]
	}
	return out, nil
}

func aggregate(stats []*netlink.LinkStatistics) [switchapi.BDStatsMax]switchapi.Counter {
	var out [switchapi.BDStatsMax]switchapi.Counter
	for _, s := range stats {
		if s == nil {
			continue
		}
		mcast := min(s.Multicast, s.RxPackets)
		out[switchapi.BDStatsInUcast].Packets += s.RxPackets - mcast
		out[switchapi.BDStatsInUcast].Bytes += s.RxBytes
		out[switchapi.BDStatsInMcast].Packets += mcast
		out[switchapi.BDStatsOutUcast].Packets += s.TxPackets
		out[switchapi.BDStatsOutUcast].Bytes += s.TxBytes
	}
	return out
}

// linkStatus maps a kernel errno to a driver status.
func linkStatus(err error) switchapi.Status {
	var st switchapi.Status
	if errors.As(err, &st) {
		return st
	}

	var lnf netlink.LinkNotFoundError
	if errors.As(err, &lnf) {
		return switchapi.StatusItemNotFound
	}

	switch {
	case errors.Is(err, unix.ENOENT), errors.Is(err, unix.ENODEV):
		return switchapi.StatusItemNotFound
	case errors.Is(err, unix.EEXIST):
		return switchapi.StatusItemAlreadyExists
	case errors.Is(err, unix.EINVAL), errors.Is(err, unix.ERANGE):
		return switchapi.StatusInvalidParameter
	case errors.Is(err, unix.EOPNOTSUPP):
		return switchapi.StatusNotSupported
	case errors.Is(err, unix.EBUSY):
		return switchapi.StatusResourceInUse
	case errors.Is(err, unix.ENOMEM), errors.Is(err, unix.ENOBUFS):
		return switchapi.StatusNoMemory
	case errors.Is(err, unix.EPERM), errors.Is(err, unix.EACCES):
		return switchapi.StatusFailure
	}
	return switchapi.StatusHWFailure
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	st := linkStatus(err)
	if errors.Is(err, st) {
		return err
	}
	return fmt.Errorf("%s: %v: %w", op, err, st)
}
