package vpp

import (
	"fmt"
	"strings"

	"github.com/veesix-networks/osvlan/pkg/ifmgr"
	"github.com/veesix-networks/osvlan/pkg/switchapi"
	"go.fd.io/govpp/api"
	interfaces "go.fd.io/govpp/binapi/interface"
	"go.fd.io/govpp/binapi/interface_types"
	"go.fd.io/govpp/binapi/l2"
)

const (
	bdTagPrefix = "osvlan-"

	// L2_VTR_POP_1 from vnet/l2/l2_vtr.h.
	vtrOpPop1 = 3
)

func bdHandle(id uint32) switchapi.Handle {
	return switchapi.IDToHandle(switchapi.HandleTypeVlan, id)
}

// LoadBridgeDomains rebuilds the VLAN table from the bridge domains this
// driver created earlier, recognised by their tag.
func (v *VPP) LoadBridgeDomains() error {
	ch, err := v.conn.NewAPIChannel()
	if err != nil {
		return fmt.Errorf("create API channel: %w", err)
	}
	defer ch.Close()

	details, err := dumpBridgeDomains(ch, ^uint32(0))
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.bds = make(map[uint32]*bridgeDomain)
	for _, d := range details {
		if !strings.HasPrefix(d.BdTag, bdTagPrefix) {
			continue
		}
		bd := &bridgeDomain{id: d.BdID, members: make(map[uint32]member)}
		for _, sw := range d.SwIfDetails {
			idx := uint32(sw.SwIfIndex)
			iface := v.ifMgr.Get(idx)
			if iface == nil {
				continue
			}
			mode := switchapi.TaggingModeUntagged
			if iface.IsSubinterface() {
				mode = switchapi.TaggingModeTagged
			}
			bd.members[iface.PortHandle().Index()] = member{swIfIndex: idx, mode: mode}
		}
		v.bds[d.BdID] = bd
	}
	return nil
}

func dumpBridgeDomains(ch api.Channel, bdID uint32) ([]*l2.BridgeDomainDetails, error) {
	req := &l2.BridgeDomainDump{
		BdID:      bdID,
		SwIfIndex: interface_types.InterfaceIndex(^uint32(0)),
	}

	var out []*l2.BridgeDomainDetails
	stream := ch.SendMultiRequest(req)
	for {
		reply := &l2.BridgeDomainDetails{}
		stop, err := stream.ReceiveReply(reply)
		if stop {
			break
		}
		if err != nil {
			return nil, wrap("bridge_domain_dump", err)
		}
		out = append(out, reply)
	}
	return out, nil
}

func (v *VPP) lookup(h switchapi.Handle) (*bridgeDomain, error) {
	if h.Type() != switchapi.HandleTypeVlan {
		return nil, fmt.Errorf("handle %s: %w", h, switchapi.StatusInvalidHandle)
	}
	bd, ok := v.bds[h.Index()]
	if !ok {
		return nil, fmt.Errorf("bridge domain %d: %w", h.Index(), switchapi.StatusItemNotFound)
	}
	return bd, nil
}

func (v *VPP) VlanCreate(dev switchapi.Device, vlan switchapi.VlanID) (switchapi.Handle, error) {
	if err := v.checkDevice(dev); err != nil {
		return switchapi.InvalidHandle, err
	}
	if vlan < 1 || vlan > 4094 {
		return switchapi.InvalidHandle, fmt.Errorf("vlan %d: %w", vlan, switchapi.StatusInvalidVlanID)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	id := uint32(vlan)
	if _, ok := v.bds[id]; ok {
		return switchapi.InvalidHandle, fmt.Errorf("bridge domain %d: %w", id, switchapi.StatusItemAlreadyExists)
	}

	ch, err := v.conn.NewAPIChannel()
	if err != nil {
		return switchapi.InvalidHandle, fmt.Errorf("create API channel: %w", err)
	}
	defer ch.Close()

	req := &l2.BridgeDomainAddDel{
		BdID:    id,
		Flood:   true,
		UuFlood: true,
		Forward: true,
		Learn:   true,
		BdTag:   fmt.Sprintf("%s%d", bdTagPrefix, vlan),
		IsAdd:   true,
	}
	reply := &l2.BridgeDomainAddDelReply{}
	if err := ch.SendRequest(req).ReceiveReply(reply); err != nil {
		return switchapi.InvalidHandle, wrap("bridge_domain_add_del", err)
	}

	v.bds[id] = &bridgeDomain{id: id, members: make(map[uint32]member)}
	v.logger.Debug("Created bridge domain", "bd_id", id)
	return bdHandle(id), nil
}

func (v *VPP) VlanDelete(dev switchapi.Device, h switchapi.Handle) error {
	if err := v.checkDevice(dev); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	bd, err := v.lookup(h)
	if err != nil {
		return err
	}

	ch, err := v.conn.NewAPIChannel()
	if err != nil {
		return fmt.Errorf("create API channel: %w", err)
	}
	defer ch.Close()

	for port, m := range bd.members {
		if err := v.detach(ch, bd, port, m); err != nil {
			return err
		}
	}

	req := &l2.BridgeDomainAddDel{BdID: bd.id, IsAdd: false}
	reply := &l2.BridgeDomainAddDelReply{}
	if err := ch.SendRequest(req).ReceiveReply(reply); err != nil {
		return wrap("bridge_domain_add_del", err)
	}

	delete(v.bds, bd.id)
	v.logger.Debug("Deleted bridge domain", "bd_id", bd.id)
	return nil
}

func (v *VPP) VlanIDToHandle(vlan switchapi.VlanID) (switchapi.Handle, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if _, ok := v.bds[uint32(vlan)]; !ok {
		return switchapi.InvalidHandle, fmt.Errorf("vlan %d: %w", vlan, switchapi.StatusItemNotFound)
	}
	return bdHandle(uint32(vlan)), nil
}

// VlanIGMPSnoopingSet records the flag on the bridge domain. VPP's L2 path
// has no per bridge domain snooping, so the flag is bookkeeping only.
func (v *VPP) VlanIGMPSnoopingSet(h switchapi.Handle, enable bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	bd, err := v.lookup(h)
	if err != nil {
		return err
	}
	bd.igmp = enable
	return nil
}

func (v *VPP) VlanMLDSnoopingSet(h switchapi.Handle, enable bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	bd, err := v.lookup(h)
	if err != nil {
		return err
	}
	bd.mld = enable
	return nil
}

func (v *VPP) VlanPortsAdd(dev switchapi.Device, h switchapi.Handle, ports []switchapi.VlanPort) error {
	if err := v.checkDevice(dev); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	bd, err := v.lookup(h)
	if err != nil {
		return err
	}

	ch, err := v.conn.NewAPIChannel()
	if err != nil {
		return fmt.Errorf("create API channel: %w", err)
	}
	defer ch.Close()

	for _, p := range ports {
		iface, err := v.ifMgr.PortInterface(p.Handle)
		if err != nil {
			return err
		}
		if _, ok := bd.members[iface.SwIfIndex]; ok {
			return fmt.Errorf("port %s in bridge domain %d: %w", iface.Name, bd.id, switchapi.StatusItemAlreadyExists)
		}

		var swIfIndex uint32
		switch p.TaggingMode {
		case switchapi.TaggingModeUntagged:
			if other := v.untaggedOwner(iface.SwIfIndex); other != nil {
				return fmt.Errorf("port %s untagged in bridge domain %d: %w", iface.Name, other.id, switchapi.StatusPortInUse)
			}
			swIfIndex = iface.SwIfIndex
		case switchapi.TaggingModeTagged:
			swIfIndex, err = v.ensureSubif(ch, iface, uint16(bd.id))
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("tagging mode %d on %s: %w", p.TaggingMode, iface.Name, switchapi.StatusNotSupported)
		}

		if err := setL2Bridge(ch, swIfIndex, bd.id, true); err != nil {
			return err
		}
		bd.members[iface.SwIfIndex] = member{swIfIndex: swIfIndex, mode: p.TaggingMode}
		v.logger.Debug("Added port to bridge domain", "bd_id", bd.id, "port", iface.Name, "sw_if_index", swIfIndex)
	}
	return nil
}

func (v *VPP) VlanPortsRemove(dev switchapi.Device, h switchapi.Handle, ports []switchapi.VlanPort) error {
	if err := v.checkDevice(dev); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	bd, err := v.lookup(h)
	if err != nil {
		return err
	}

	ch, err := v.conn.NewAPIChannel()
	if err != nil {
		return fmt.Errorf("create API channel: %w", err)
	}
	defer ch.Close()

	for _, p := range ports {
		if p.Handle.Type() != switchapi.HandleTypePort {
			return fmt.Errorf("handle %s: %w", p.Handle, switchapi.StatusInvalidHandle)
		}
		m, ok := bd.members[p.Handle.Index()]
		if !ok {
			return fmt.Errorf("port %s in bridge domain %d: %w", p.Handle, bd.id, switchapi.StatusItemNotFound)
		}
		if err := v.detach(ch, bd, p.Handle.Index(), m); err != nil {
			return err
		}
	}
	return nil
}

// untaggedOwner returns the bridge domain the port is bridged into
// untagged. VPP moves an interface between bridge domains silently, so a
// port may be untagged in at most one. Callers hold v.mu.
func (v *VPP) untaggedOwner(port uint32) *bridgeDomain {
	for _, bd := range v.bds {
		if m, ok := bd.members[port]; ok && m.mode == switchapi.TaggingModeUntagged {
			return bd
		}
	}
	return nil
}

// detach removes one member from bd and deletes its sub-interface if it had
// one. Callers hold v.mu.
func (v *VPP) detach(ch api.Channel, bd *bridgeDomain, port uint32, m member) error {
	if err := setL2Bridge(ch, m.swIfIndex, bd.id, false); err != nil {
		return err
	}
	if m.mode == switchapi.TaggingModeTagged {
		req := &interfaces.DeleteSubif{SwIfIndex: interface_types.InterfaceIndex(m.swIfIndex)}
		reply := &interfaces.DeleteSubifReply{}
		if err := ch.SendRequest(req).ReceiveReply(reply); err != nil {
			return wrap("delete_subif", err)
		}
		v.ifMgr.Remove(m.swIfIndex)
	}
	delete(bd.members, port)
	return nil
}

func (v *VPP) ensureSubif(ch api.Channel, parent *ifmgr.Interface, vlan uint16) (uint32, error) {
	if sub := v.ifMgr.GetSubinterface(parent.SwIfIndex, vlan); sub != nil {
		return sub.SwIfIndex, nil
	}

	req := &interfaces.CreateVlanSubif{
		SwIfIndex: interface_types.InterfaceIndex(parent.SwIfIndex),
		VlanID:    uint32(vlan),
	}
	reply := &interfaces.CreateVlanSubifReply{}
	if err := ch.SendRequest(req).ReceiveReply(reply); err != nil {
		return 0, wrap("create_vlan_subif", err)
	}

	upReq := &interfaces.SwInterfaceSetFlags{
		SwIfIndex: reply.SwIfIndex,
		Flags:     interface_types.IF_STATUS_API_FLAG_ADMIN_UP,
	}
	if err := ch.SendRequest(upReq).ReceiveReply(&interfaces.SwInterfaceSetFlagsReply{}); err != nil {
		return 0, wrap("sw_interface_set_flags", err)
	}

	vtrReq := &l2.L2InterfaceVlanTagRewrite{
		SwIfIndex: reply.SwIfIndex,
		VtrOp:     vtrOpPop1,
		PushDot1q: 1,
	}
	if err := ch.SendRequest(vtrReq).ReceiveReply(&l2.L2InterfaceVlanTagRewriteReply{}); err != nil {
		return 0, wrap("l2_interface_vlan_tag_rewrite", err)
	}

	idx := uint32(reply.SwIfIndex)
	v.ifMgr.Add(&ifmgr.Interface{
		SwIfIndex:    idx,
		SupSwIfIndex: parent.SwIfIndex,
		Name:         fmt.Sprintf("%s.%d", parent.Name, vlan),
		Type:         ifmgr.IfTypeSub,
		AdminUp:      true,
		OuterVlanID:  vlan,
	})
	return idx, nil
}

func setL2Bridge(ch api.Channel, swIfIndex, bdID uint32, enable bool) error {
	req := &l2.SwInterfaceSetL2Bridge{
		RxSwIfIndex: interface_types.InterfaceIndex(swIfIndex),
		BdID:        bdID,
		PortType:    l2.L2_API_PORT_TYPE_NORMAL,
		Enable:      enable,
	}
	reply := &l2.SwInterfaceSetL2BridgeReply{}
	if err := ch.SendRequest(req).ReceiveReply(reply); err != nil {
		return wrap("sw_interface_set_l2_bridge", err)
	}
	return nil
}

// VlanInterfacesGet asks VPP for the bridge domain's interfaces so the
// answer reflects the dataplane rather than the local table.
func (v *VPP) VlanInterfacesGet(dev switchapi.Device, h switchapi.Handle) ([]switchapi.VlanInterface, error) {
	if err := v.checkDevice(dev); err != nil {
		return nil, err
	}

	v.mu.RLock()
	_, err := v.lookup(h)
	v.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	ch, err := v.conn.NewAPIChannel()
	if err != nil {
		return nil, fmt.Errorf("create API channel: %w", err)
	}
	defer ch.Close()

	details, err := dumpBridgeDomains(ch, h.Index())
	if err != nil {
		return nil, err
	}

	var out []switchapi.VlanInterface
	for _, d := range details {
		for _, sw := range d.SwIfDetails {
			iface := v.ifMgr.Get(uint32(sw.SwIfIndex))
			if iface == nil {
				continue
			}
			mode := switchapi.TaggingModeUntagged
			if iface.IsSubinterface() {
				mode = switchapi.TaggingModeTagged
			}
			out = append(out, switchapi.VlanInterface{Handle: iface.Handle(), TaggingMode: mode})
		}
	}
	return out, nil
}

func (v *VPP) VlanStatsGet(dev switchapi.Device, h switchapi.Handle, ids []switchapi.BDStatsID) ([]switchapi.Counter, error) {
	if err := v.checkDevice(dev); err != nil {
		return nil, err
	}

	v.mu.RLock()
	bd, err := v.lookup(h)
	if err != nil {
		v.mu.RUnlock()
		return nil, err
	}
	members := make(map[uint32]struct{}, len(bd.members))
	for _, m := range bd.members {
		members[m.swIfIndex] = struct{}{}
	}
	v.mu.RUnlock()

	stats := new(api.InterfaceStats)
	if err := v.stats.GetInterfaceStats(stats); err != nil {
		return nil, fmt.Errorf("bridge domain %d stats: %v: %w", bd.id, err, switchapi.StatusHWFailure)
	}
	buckets := aggregate(stats.Interfaces, members)

	out := make([]switchapi.Counter, len(ids))
	for i, id := range ids {
		if id >= switchapi.BDStatsMax {
			return nil, fmt.Errorf("stats id %d: %w", id, switchapi.StatusInvalidParameter)
		}
		out[i] = buckets[id]
	}
	return out, nil
}
