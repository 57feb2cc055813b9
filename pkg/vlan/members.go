package vlan

import (
	"context"
	"fmt"

	"github.com/veesix-networks/osvlan/pkg/sai"
	"github.com/veesix-networks/osvlan/pkg/switchapi"
)

func toSwitchTagging(m sai.TaggingMode) (switchapi.TaggingMode, error) {
	switch m {
	case sai.TaggingModeUntagged:
		return switchapi.TaggingModeUntagged, nil
	case sai.TaggingModeTagged:
		return switchapi.TaggingModeTagged, nil
	case sai.TaggingModePriorityTagged:
		return switchapi.TaggingModePriorityTagged, nil
	}
	return 0, fmt.Errorf("tagging mode %d: %w", int32(m), sai.StatusInvalidAttrValue)
}

func fromSwitchTagging(m switchapi.TaggingMode) sai.TaggingMode {
	switch m {
	case switchapi.TaggingModeTagged:
		return sai.TaggingModeTagged
	case switchapi.TaggingModePriorityTagged:
		return sai.TaggingModePriorityTagged
	default:
		return sai.TaggingModeUntagged
	}
}

type memberParams struct {
	vlan    sai.VlanID
	port    switchapi.Handle
	tagging sai.TaggingMode
}

func parseMemberAttrs(attrs []sai.Attribute) (memberParams, error) {
	var p memberParams
	var haveVlan, havePort bool

	for _, attr := range attrs {
		switch attr.ID {
		case sai.VlanMemberAttrVlanID:
			v, ok := attr.Value.(sai.U16)
			if !ok {
				return p, fmt.Errorf("vlan id attribute holds %T: %w", attr.Value, sai.StatusInvalidAttrValue)
			}
			p.vlan = sai.VlanID(v)
			haveVlan = true
		case sai.VlanMemberAttrPortID:
			v, ok := attr.Value.(sai.OID)
			if !ok {
				return p, fmt.Errorf("port id attribute holds %T: %w", attr.Value, sai.StatusInvalidAttrValue)
			}
			p.port = switchapi.Handle(v)
			havePort = true
		case sai.VlanMemberAttrTaggingMode:
			v, ok := attr.Value.(sai.TaggingMode)
			if !ok {
				return p, fmt.Errorf("tagging mode attribute holds %T: %w", attr.Value, sai.StatusInvalidAttrValue)
			}
			p.tagging = v
		}
	}

	if !haveVlan {
		return p, fmt.Errorf("vlan id: %w", sai.StatusMandatoryAttributeMissing)
	}
	if !havePort {
		return p, fmt.Errorf("port id: %w", sai.StatusMandatoryAttributeMissing)
	}
	return p, nil
}

func (a *API) CreateVlanMember(ctx context.Context, attrs []sai.Attribute) (sai.ObjectID, error) {
	p, err := parseMemberAttrs(attrs)
	if err != nil {
		return 0, a.fail("Invalid VLAN member attributes", fmt.Errorf("create vlan member: %w", err))
	}

	mode, err := toSwitchTagging(p.tagging)
	if err != nil {
		return 0, a.fail("Invalid VLAN member attributes", fmt.Errorf("create vlan member: %w", err), "vlan", p.vlan)
	}

	id, err := EncodeMemberID(p.port, p.vlan)
	if err != nil {
		return 0, a.fail("Invalid VLAN member", err, "vlan", p.vlan, "port", p.port.String())
	}

	h, err := a.lookupVlan(p.vlan)
	if err != nil {
		return 0, a.fail("Failed to create VLAN member", err, "vlan", p.vlan)
	}

	ports := []switchapi.VlanPort{{Handle: p.port, TaggingMode: mode}}
	if err := a.driver.VlanPortsAdd(a.device, h, ports); err != nil {
		return 0, a.fail("Failed to create VLAN member",
			statusError(fmt.Sprintf("add port %s to vlan %d", p.port, p.vlan), err),
			"vlan", p.vlan, "port", p.port.String())
	}

	a.logger.Debug("Created VLAN member", "vlan", p.vlan, "port", p.port.String(), "tagging", p.tagging.String(), "member", id.String())
	return id, nil
}

func (a *API) RemoveVlanMember(ctx context.Context, member sai.ObjectID) error {
	port, vlan, err := DecodeMemberID(member)
	if err != nil {
		return a.fail("Invalid VLAN member", err, "member", member.String())
	}

	h, err := a.lookupVlan(vlan)
	if err != nil {
		return a.fail("Failed to remove VLAN member", err, "vlan", vlan, "member", member.String())
	}

	ports := []switchapi.VlanPort{{Handle: port}}
	if err := a.driver.VlanPortsRemove(a.device, h, ports); err != nil {
		return a.fail("Failed to remove VLAN member",
			statusError(fmt.Sprintf("remove port %s from vlan %d", port, vlan), err),
			"vlan", vlan, "port", port.String())
	}

	a.logger.Debug("Removed VLAN member", "vlan", vlan, "port", port.String())
	return nil
}

// SetVlanMemberAttribute accepts any attribute and changes nothing.
func (a *API) SetVlanMemberAttribute(ctx context.Context, member sai.ObjectID, attr *sai.Attribute) error {
	if attr == nil {
		return a.fail("Null attribute", fmt.Errorf("set member %s attribute: %w", member, sai.StatusInvalidParameter))
	}
	return nil
}

func (a *API) GetVlanMemberAttribute(ctx context.Context, member sai.ObjectID, attrs []sai.Attribute) error {
	if attrs == nil {
		return a.fail("Null attribute list", fmt.Errorf("get member %s attributes: %w", member, sai.StatusInvalidParameter))
	}

	port, vlan, err := DecodeMemberID(member)
	if err != nil {
		return a.fail("Invalid VLAN member", err, "member", member.String())
	}

	for i := range attrs {
		switch attrs[i].ID {
		case sai.VlanMemberAttrVlanID:
			attrs[i].Value = sai.U16(vlan)
		case sai.VlanMemberAttrPortID:
			attrs[i].Value = sai.OID(port)
		case sai.VlanMemberAttrTaggingMode:
			mode, err := a.memberTagging(vlan, port)
			if err != nil {
				return a.fail("Failed to get VLAN member tagging mode", err, "vlan", vlan, "port", port.String())
			}
			attrs[i].Value = mode
		}
	}
	return nil
}

func (a *API) memberTagging(vlan sai.VlanID, port switchapi.Handle) (sai.TaggingMode, error) {
	members, err := a.members(vlan)
	if err != nil {
		return 0, err
	}
	for _, m := range members {
		if switchapi.Handle(m.Port) == port {
			return m.TaggingMode, nil
		}
	}
	return 0, fmt.Errorf("port %s not in vlan %d: %w", port, vlan, sai.StatusItemNotFound)
}
