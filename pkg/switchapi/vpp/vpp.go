// Package vpp drives VLANs on a VPP dataplane. A VLAN is a bridge domain
// whose id equals the VLAN tag. Untagged members are the physical interfaces
// themselves, tagged members are dot1q sub-interfaces with a pop-1 tag
// rewrite so the bridge domain only carries untagged frames.
package vpp

import (
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/veesix-networks/osvlan/pkg/ifmgr"
	"github.com/veesix-networks/osvlan/pkg/logger"
	"github.com/veesix-networks/osvlan/pkg/switchapi"
	"go.fd.io/govpp/api"
	interfaces "go.fd.io/govpp/binapi/interface"
	"go.fd.io/govpp/binapi/interface_types"
)

type Config struct {
	Connection api.ChannelProvider
	Stats      InterfaceStatsSource
	Device     switchapi.Device
	IfMgr      *ifmgr.Manager
}

type member struct {
	swIfIndex uint32
	mode      switchapi.TaggingMode
}

type bridgeDomain struct {
	id      uint32
	igmp    bool
	mld     bool
	members map[uint32]member
}

type VPP struct {
	conn   api.ChannelProvider
	stats  InterfaceStatsSource
	device switchapi.Device
	ifMgr  *ifmgr.Manager
	logger *slog.Logger

	mu  sync.RWMutex
	bds map[uint32]*bridgeDomain
}

var (
	_ switchapi.Driver       = (*VPP)(nil)
	_ switchapi.PortResolver = (*VPP)(nil)
)

func New(cfg Config) (*VPP, error) {
	if cfg.Connection == nil {
		return nil, fmt.Errorf("VPP connection is required")
	}
	if cfg.Stats == nil {
		return nil, fmt.Errorf("VPP stats source is required")
	}
	if cfg.IfMgr == nil {
		cfg.IfMgr = ifmgr.New()
	}

	v := &VPP{
		conn:   cfg.Connection,
		stats:  cfg.Stats,
		device: cfg.Device,
		ifMgr:  cfg.IfMgr,
		logger: logger.Get(logger.VPP),
		bds:    make(map[uint32]*bridgeDomain),
	}

	if err := v.LoadInterfaces(); err != nil {
		return nil, fmt.Errorf("load interfaces: %w", err)
	}
	if err := v.LoadBridgeDomains(); err != nil {
		return nil, fmt.Errorf("load bridge domains: %w", err)
	}

	v.logger.Debug("Connected to VPP", "interfaces_loaded", len(v.ifMgr.List()), "bridge_domains", len(v.bds))
	return v, nil
}

func (v *VPP) Ports() []switchapi.Port {
	return v.ifMgr.Ports()
}

func (v *VPP) PortByName(name string) (switchapi.Handle, error) {
	return v.ifMgr.PortByName(name)
}

func (v *VPP) checkDevice(dev switchapi.Device) error {
	if dev != v.device {
		return fmt.Errorf("device %d: %w", dev, switchapi.StatusInvalidParameter)
	}
	return nil
}

func interfaceFromDetails(d *interfaces.SwInterfaceDetails) *ifmgr.Interface {
	iface := &ifmgr.Interface{
		SwIfIndex:    uint32(d.SwIfIndex),
		SupSwIfIndex: d.SupSwIfIndex,
		Name:         strings.TrimRight(d.InterfaceName, "\x00"),
		Type:         ifmgr.IfTypeHardware,
		AdminUp:      d.Flags&interface_types.IF_STATUS_API_FLAG_ADMIN_UP != 0,
		LinkUp:       d.Flags&interface_types.IF_STATUS_API_FLAG_LINK_UP != 0,
		MAC:          net.HardwareAddr(d.L2Address[:]),
		OuterVlanID:  d.SubOuterVlanID,
	}
	if len(d.Mtu) > 0 {
		iface.MTU = d.Mtu[0]
	}
	if d.Type == interface_types.IF_API_TYPE_SUB {
		iface.Type = ifmgr.IfTypeSub
	}
	return iface
}

// LoadInterfaces replaces the interface table with a fresh dump.
func (v *VPP) LoadInterfaces() error {
	ch, err := v.conn.NewAPIChannel()
	if err != nil {
		return fmt.Errorf("create API channel: %w", err)
	}
	defer ch.Close()

	req := &interfaces.SwInterfaceDump{
		SwIfIndex: interface_types.InterfaceIndex(^uint32(0)),
	}

	stream := ch.SendMultiRequest(req)
	v.ifMgr.Clear()

	for {
		reply := &interfaces.SwInterfaceDetails{}
		stop, err := stream.ReceiveReply(reply)
		if stop {
			break
		}
		if err != nil {
			return wrap("sw_interface_dump", err)
		}
		v.ifMgr.Add(interfaceFromDetails(reply))
	}

	v.logger.Debug("Loaded interfaces into ifMgr", "count", len(v.ifMgr.List()))
	return nil
}

func (v *VPP) InterfacePortHandle(intf switchapi.Handle) (switchapi.Handle, error) {
	if intf.Type() != switchapi.HandleTypeInterface {
		return switchapi.InvalidHandle, fmt.Errorf("handle %s: %w", intf, switchapi.StatusInvalidHandle)
	}
	iface := v.ifMgr.Get(intf.Index())
	if iface == nil {
		return switchapi.InvalidHandle, fmt.Errorf("interface %s: %w", intf, switchapi.StatusItemNotFound)
	}
	return iface.PortHandle(), nil
}
