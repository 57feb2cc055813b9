package vlan

import (
	"fmt"

	"github.com/veesix-networks/osvlan/pkg/sai"
	"github.com/veesix-networks/osvlan/pkg/switchapi"
)

// Member ids are never stored. They are a pure function of the port handle
// and the VLAN tag:
//
//	bits  0..25  port handle index
//	bits 26..31  handle type, always HandleTypeVlanMember
//	bits 32..43  VLAN tag
const (
	memberVlanShift = 32
	memberVlanMask  = 0xfff
)

// EncodeMemberID derives the identifier of the (port, vlan) membership.
func EncodeMemberID(port switchapi.Handle, vlan sai.VlanID) (sai.ObjectID, error) {
	if uint64(port)>>memberVlanShift != 0 || port.Type() != switchapi.HandleTypePort {
		return 0, fmt.Errorf("encode member: port handle %s: %w", port, sai.StatusInvalidObjectType)
	}
	if !vlan.Valid() {
		return 0, fmt.Errorf("encode member: vlan %d: %w", vlan, sai.StatusInvalidVlanID)
	}

	id := uint64(vlan&memberVlanMask)<<memberVlanShift |
		uint64(switchapi.IDToHandle(switchapi.HandleTypeVlanMember, port.Index()))
	return sai.ObjectID(id), nil
}

// DecodeMemberID recovers the port handle and VLAN tag from a member id.
func DecodeMemberID(id sai.ObjectID) (switchapi.Handle, sai.VlanID, error) {
	raw := uint64(id)
	if raw>>(memberVlanShift+12) != 0 {
		return switchapi.InvalidHandle, 0, fmt.Errorf("decode member %s: %w", id, sai.StatusInvalidObjectID)
	}

	low := switchapi.Handle(raw & (1<<memberVlanShift - 1))
	if low.Type() != switchapi.HandleTypeVlanMember {
		return switchapi.InvalidHandle, 0, fmt.Errorf("decode member %s: %w", id, sai.StatusInvalidObjectType)
	}

	vlan := sai.VlanID((raw >> memberVlanShift) & memberVlanMask)
	if !vlan.Valid() {
		return switchapi.InvalidHandle, 0, fmt.Errorf("decode member %s: %w", id, sai.StatusInvalidVlanID)
	}

	return switchapi.IDToHandle(switchapi.HandleTypePort, low.Index()), vlan, nil
}
