package sai

type AttrID int32

// VLAN attributes.
const (
	VlanAttrMemberList AttrID = iota
	VlanAttrMaxLearnedAddresses
	VlanAttrStpInstance
	VlanAttrLearnDisable
	VlanAttrMetaData
)

// VLAN member attributes.
const (
	VlanMemberAttrVlanID AttrID = iota
	VlanMemberAttrPortID
	VlanMemberAttrTaggingMode
)

// Value is the payload of an Attribute. The concrete type depends on the
// attribute id.
type Value interface {
	isValue()
}

type (
	U16        uint16
	U32        uint32
	S32        int32
	Bool       bool
	OID        ObjectID
	ObjectList []ObjectID
)

func (U16) isValue()         {}
func (U32) isValue()         {}
func (S32) isValue()         {}
func (Bool) isValue()        {}
func (OID) isValue()         {}
func (ObjectList) isValue()  {}
func (TaggingMode) isValue() {}

// Attribute is an (id, value) pair. On get calls Value is written in place.
type Attribute struct {
	ID    AttrID
	Value Value
}

// MemberAttributes is the attribute list that creates a VLAN member.
func MemberAttributes(vlan VlanID, port ObjectID, mode TaggingMode) []Attribute {
	return []Attribute{
		{ID: VlanMemberAttrVlanID, Value: U16(vlan)},
		{ID: VlanMemberAttrPortID, Value: OID(port)},
		{ID: VlanMemberAttrTaggingMode, Value: mode},
	}
}
