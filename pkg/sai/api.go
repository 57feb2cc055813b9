package sai

import "context"

// VlanAPI is the VLAN operation table.
type VlanAPI interface {
	CreateVlan(ctx context.Context, vlan VlanID) error
	RemoveVlan(ctx context.Context, vlan VlanID) error
	SetVlanAttribute(ctx context.Context, vlan VlanID, attr *Attribute) error
	GetVlanAttribute(ctx context.Context, vlan VlanID, attrs []Attribute) error
	// GetVlanMembers reads every membership of vlan with one enumeration.
	GetVlanMembers(ctx context.Context, vlan VlanID) ([]VlanMember, error)

	CreateVlanMember(ctx context.Context, attrs []Attribute) (ObjectID, error)
	RemoveVlanMember(ctx context.Context, member ObjectID) error
	SetVlanMemberAttribute(ctx context.Context, member ObjectID, attr *Attribute) error
	GetVlanMemberAttribute(ctx context.Context, member ObjectID, attrs []Attribute) error

	GetVlanStats(ctx context.Context, vlan VlanID, counters []VlanStat) ([]uint64, error)
	ClearVlanStats(ctx context.Context, vlan VlanID, counters []VlanStat) error
}

// VlanMember is one port membership as the switch reports it.
type VlanMember struct {
	ID          ObjectID
	Port        ObjectID
	TaggingMode TaggingMode
}

// APIService holds the operation tables bound at initialisation.
type APIService struct {
	Vlan VlanAPI
}
