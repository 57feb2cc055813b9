package ifmgr

import (
	"net"

	"github.com/veesix-networks/osvlan/pkg/switchapi"
)

type IfType uint32

const (
	IfTypeHardware IfType = 0
	IfTypeSub      IfType = 1
)

// Interface is one dataplane interface as seen by a driver. Physical ports
// are IfTypeHardware, dot1q sub-interfaces created for tagged membership are
// IfTypeSub with SupSwIfIndex pointing at the port.
type Interface struct {
	SwIfIndex    uint32
	SupSwIfIndex uint32
	Name         string
	Type         IfType
	AdminUp      bool
	LinkUp       bool
	MTU          uint32
	MAC          net.HardwareAddr
	OuterVlanID  uint16
}

func (i *Interface) IsSubinterface() bool {
	return i.Type == IfTypeSub
}

func (i *Interface) HasParent() bool {
	return i.SupSwIfIndex != i.SwIfIndex
}

// PortHandle is the switch handle of the physical port behind i.
func (i *Interface) PortHandle() switchapi.Handle {
	if i.IsSubinterface() {
		return switchapi.IDToHandle(switchapi.HandleTypePort, i.SupSwIfIndex)
	}
	return switchapi.IDToHandle(switchapi.HandleTypePort, i.SwIfIndex)
}

// Handle is the interface handle of i itself.
func (i *Interface) Handle() switchapi.Handle {
	return switchapi.IDToHandle(switchapi.HandleTypeInterface, i.SwIfIndex)
}

func (i *Interface) Port() switchapi.Port {
	return switchapi.Port{
		Handle: i.PortHandle(),
		Name:   i.Name,
		LinkUp: i.LinkUp,
	}
}
