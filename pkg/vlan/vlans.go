package vlan

import (
	"context"
	"errors"
	"fmt"

	"github.com/veesix-networks/osvlan/pkg/sai"
	"github.com/veesix-networks/osvlan/pkg/switchapi"
)

// ErrDefaultsNotApplied is returned when a VLAN was created but multicast
// snooping could not be enabled on it. The VLAN is left in place.
var ErrDefaultsNotApplied = errors.New("vlan created without snooping defaults")

func (a *API) CreateVlan(ctx context.Context, vlan sai.VlanID) error {
	if !vlan.Valid() {
		return a.fail("Invalid VLAN", fmt.Errorf("create vlan %d: %w", vlan, sai.StatusInvalidVlanID), "vlan", vlan)
	}

	h, err := a.driver.VlanCreate(a.device, switchapi.VlanID(vlan))
	if err != nil {
		return a.fail("Failed to create VLAN", statusError(fmt.Sprintf("create vlan %d", vlan), err), "vlan", vlan)
	}
	if !h.Valid() {
		return a.fail("Failed to create VLAN", fmt.Errorf("create vlan %d: driver returned invalid handle: %w", vlan, sai.StatusFailure), "vlan", vlan)
	}

	if err := a.driver.VlanIGMPSnoopingSet(h, true); err != nil {
		return a.fail("Failed to enable IGMP snooping", fmt.Errorf("create vlan %d: igmp snooping: %w: %w", vlan, ErrDefaultsNotApplied, translateStatus(err)), "vlan", vlan)
	}
	if err := a.driver.VlanMLDSnoopingSet(h, true); err != nil {
		return a.fail("Failed to enable MLD snooping", fmt.Errorf("create vlan %d: mld snooping: %w: %w", vlan, ErrDefaultsNotApplied, translateStatus(err)), "vlan", vlan)
	}

	a.logger.Debug("Created VLAN", "vlan", vlan, "handle", h.String())
	return nil
}

func (a *API) RemoveVlan(ctx context.Context, vlan sai.VlanID) error {
	h, err := a.lookupVlan(vlan)
	if err != nil {
		return a.fail("Failed to remove VLAN", err, "vlan", vlan)
	}

	if err := a.driver.VlanDelete(a.device, h); err != nil {
		return a.fail("Failed to remove VLAN", statusError(fmt.Sprintf("remove vlan %d", vlan), err), "vlan", vlan)
	}

	a.logger.Debug("Removed VLAN", "vlan", vlan)
	return nil
}

// SetVlanAttribute accepts any attribute and changes nothing.
func (a *API) SetVlanAttribute(ctx context.Context, vlan sai.VlanID, attr *sai.Attribute) error {
	if attr == nil {
		return a.fail("Null attribute", fmt.Errorf("set vlan %d attribute: %w", vlan, sai.StatusInvalidParameter), "vlan", vlan)
	}
	return nil
}

func (a *API) GetVlanAttribute(ctx context.Context, vlan sai.VlanID, attrs []sai.Attribute) error {
	if attrs == nil {
		return a.fail("Null attribute list", fmt.Errorf("get vlan %d attributes: %w", vlan, sai.StatusInvalidParameter), "vlan", vlan)
	}

	for i := range attrs {
		if attrs[i].ID != sai.VlanAttrMemberList {
			continue
		}
		members, err := a.memberList(vlan)
		if err != nil {
			return a.fail("Failed to get VLAN member list", err, "vlan", vlan)
		}
		attrs[i].Value = sai.ObjectList(members)
	}
	return nil
}

func (a *API) GetVlanMembers(ctx context.Context, vlan sai.VlanID) ([]sai.VlanMember, error) {
	members, err := a.members(vlan)
	if err != nil {
		return nil, a.fail("Failed to get VLAN members", err, "vlan", vlan)
	}
	return members, nil
}

func (a *API) memberList(vlan sai.VlanID) ([]sai.ObjectID, error) {
	members, err := a.members(vlan)
	if err != nil {
		return nil, err
	}
	ids := make([]sai.ObjectID, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	return ids, nil
}

// members enumerates the VLAN's interfaces once and resolves each to its
// port.
func (a *API) members(vlan sai.VlanID) ([]sai.VlanMember, error) {
	h, err := a.lookupVlan(vlan)
	if err != nil {
		return nil, err
	}
	intfs, err := a.driver.VlanInterfacesGet(a.device, h)
	if err != nil {
		return nil, statusError(fmt.Sprintf("vlan %d interfaces", vlan), err)
	}

	members := make([]sai.VlanMember, 0, len(intfs))
	for _, intf := range intfs {
		port, err := a.driver.InterfacePortHandle(intf.Handle)
		if err != nil {
			return nil, statusError(fmt.Sprintf("vlan %d interface %s", vlan, intf.Handle), err)
		}
		id, err := EncodeMemberID(port, vlan)
		if err != nil {
			return nil, err
		}
		members = append(members, sai.VlanMember{
			ID:          id,
			Port:        sai.ObjectID(port),
			TaggingMode: fromSwitchTagging(intf.TaggingMode),
		})
	}
	return members, nil
}
