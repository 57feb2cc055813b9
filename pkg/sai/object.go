package sai

import "fmt"

// VlanID is a 12-bit 802.1Q VLAN tag.
type VlanID uint16

const (
	VlanIDMin VlanID = 1
	VlanIDMax VlanID = 4094
)

func (v VlanID) Valid() bool {
	return v >= VlanIDMin && v <= VlanIDMax
}

// ObjectID identifies an object through the generic API. Port and LAG object
// ids are the switch handles themselves.
type ObjectID uint64

const NullObjectID ObjectID = 0

func (o ObjectID) String() string {
	return fmt.Sprintf("oid:0x%x", uint64(o))
}

type ObjectType int32

const (
	ObjectTypeNull ObjectType = iota
	ObjectTypePort
	ObjectTypeLag
	ObjectTypeVirtualRouter
	ObjectTypeNextHop
	ObjectTypeNextHopGroup
	ObjectTypeRouterInterface
	ObjectTypeACLTable
	ObjectTypeACLEntry
	ObjectTypeHostInterface
	ObjectTypeMirror
	ObjectTypeSamplePacket
	ObjectTypeStpInstance
	ObjectTypeTrapGroup
	ObjectTypeVlan
	ObjectTypeVlanMember
)

type TaggingMode int32

const (
	TaggingModeUntagged TaggingMode = iota
	TaggingModeTagged
	TaggingModePriorityTagged
)

var taggingModeNames = map[TaggingMode]string{
	TaggingModeUntagged:       "untagged",
	TaggingModeTagged:         "tagged",
	TaggingModePriorityTagged: "priority",
}

func (m TaggingMode) String() string {
	if name, ok := taggingModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("tagging(%d)", int32(m))
}

// ParseTaggingMode accepts the names printed by TaggingMode.String. An empty
// string is untagged.
func ParseTaggingMode(s string) (TaggingMode, error) {
	switch s {
	case "", "untagged":
		return TaggingModeUntagged, nil
	case "tagged":
		return TaggingModeTagged, nil
	case "priority", "priority_tagged", "priority-tagged":
		return TaggingModePriorityTagged, nil
	}
	return 0, fmt.Errorf("unknown tagging mode %q", s)
}
