package switchapi

// VlanID is the 12-bit tag as the driver sees it.
type VlanID uint16

type TaggingMode uint8

const (
	TaggingModeUntagged TaggingMode = iota
	TaggingModeTagged
	TaggingModePriorityTagged
)

// VlanPort is a port to add to or remove from a VLAN.
type VlanPort struct {
	Handle      Handle
	TaggingMode TaggingMode
}

// VlanInterface is one logical interface bound to a VLAN.
type VlanInterface struct {
	Handle      Handle
	TaggingMode TaggingMode
}

// BDStatsID selects a bridge domain counter bucket.
type BDStatsID uint8

const (
	BDStatsInUcast BDStatsID = iota
	BDStatsInMcast
	BDStatsInBcast
	BDStatsOutUcast
	BDStatsOutMcast
	BDStatsOutBcast
	BDStatsMax
)

var bdStatsNames = [BDStatsMax]string{
	"in_ucast", "in_mcast", "in_bcast", "out_ucast", "out_mcast", "out_bcast",
}

func (id BDStatsID) String() string {
	if id < BDStatsMax {
		return bdStatsNames[id]
	}
	return "bd_stats(invalid)"
}

type Counter struct {
	Packets uint64
	Bytes   uint64
}

// Driver is the set of VLAN primitives a switch backend provides.
type Driver interface {
	VlanCreate(dev Device, vlan VlanID) (Handle, error)
	VlanDelete(dev Device, vlan Handle) error
	VlanIDToHandle(vlan VlanID) (Handle, error)

	VlanIGMPSnoopingSet(vlan Handle, enable bool) error
	VlanMLDSnoopingSet(vlan Handle, enable bool) error

	VlanPortsAdd(dev Device, vlan Handle, ports []VlanPort) error
	VlanPortsRemove(dev Device, vlan Handle, ports []VlanPort) error
	VlanInterfacesGet(dev Device, vlan Handle) ([]VlanInterface, error)
	InterfacePortHandle(intf Handle) (Handle, error)

	VlanStatsGet(dev Device, vlan Handle, ids []BDStatsID) ([]Counter, error)
}

// Port describes a front panel port known to a driver.
type Port struct {
	Handle Handle `json:"handle" yaml:"handle"`
	Name   string `json:"name" yaml:"name"`
	LinkUp bool   `json:"link_up" yaml:"link_up"`
}

// PortResolver maps port names to handles.
type PortResolver interface {
	PortByName(name string) (Handle, error)
	Ports() []Port
}
