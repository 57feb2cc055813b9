package switchapi

import "fmt"

// Device identifies a switch ASIC.
type Device uint32

// Handle refers to a hardware object. The upper bits carry the object type,
// the lower HandleTypeShift bits the per-type index.
type Handle uint64

const (
	HandleTypeShift = 26
	HandleIndexMask = (1 << HandleTypeShift) - 1
	HandleTypeMask  = 0x3f

	InvalidHandle Handle = 0
)

type HandleType uint8

const (
	HandleTypeNone HandleType = iota
	HandleTypePort
	HandleTypeLag
	HandleTypeInterface
	HandleTypeVrf
	HandleTypeBD
	HandleTypeVlanMember
	HandleTypeNexthop
	HandleTypeNeighbor
	HandleTypeRmac
	HandleTypeStp
	HandleTypeMgid
	HandleTypeACL
	HandleTypeHostif
)

// HandleTypeVlan is the bridge domain a VLAN is bound to.
const HandleTypeVlan = HandleTypeBD

var handleTypeNames = map[HandleType]string{
	HandleTypeNone:       "none",
	HandleTypePort:       "port",
	HandleTypeLag:        "lag",
	HandleTypeInterface:  "interface",
	HandleTypeVrf:        "vrf",
	HandleTypeBD:         "bd",
	HandleTypeVlanMember: "vlan_member",
	HandleTypeNexthop:    "nexthop",
	HandleTypeNeighbor:   "neighbor",
	HandleTypeRmac:       "rmac",
	HandleTypeStp:        "stp",
	HandleTypeMgid:       "mgid",
	HandleTypeACL:        "acl",
	HandleTypeHostif:     "hostif",
}

func (t HandleType) String() string {
	if name, ok := handleTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("handle_type(%d)", uint8(t))
}

// IDToHandle builds the handle of object idx of type t.
func IDToHandle(t HandleType, idx uint32) Handle {
	return Handle(uint64(t&HandleTypeMask)<<HandleTypeShift | uint64(idx&HandleIndexMask))
}

func (h Handle) Type() HandleType {
	return HandleType((uint64(h) >> HandleTypeShift) & HandleTypeMask)
}

func (h Handle) Index() uint32 {
	return uint32(uint64(h) & HandleIndexMask)
}

func (h Handle) Valid() bool {
	return h != InvalidHandle && h.Type() != HandleTypeNone
}

func (h Handle) String() string {
	return fmt.Sprintf("%s:%d", h.Type(), h.Index())
}
