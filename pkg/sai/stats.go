package sai

import "fmt"

// VlanStat selects one VLAN counter.
type VlanStat int32

const (
	VlanStatInOctets VlanStat = iota
	VlanStatInUcastPkts
	VlanStatInNonUcastPkts
	VlanStatInDiscards
	VlanStatInErrors
	VlanStatInUnknownProtos
	VlanStatOutOctets
	VlanStatOutUcastPkts
	VlanStatOutNonUcastPkts
	VlanStatOutDiscards
	VlanStatOutErrors
	VlanStatOutQlen
	VlanStatInPackets
	VlanStatOutPackets
)

var vlanStatNames = []string{
	VlanStatInOctets:        "in_octets",
	VlanStatInUcastPkts:     "in_ucast_pkts",
	VlanStatInNonUcastPkts:  "in_non_ucast_pkts",
	VlanStatInDiscards:      "in_discards",
	VlanStatInErrors:        "in_errors",
	VlanStatInUnknownProtos: "in_unknown_protos",
	VlanStatOutOctets:       "out_octets",
	VlanStatOutUcastPkts:    "out_ucast_pkts",
	VlanStatOutNonUcastPkts: "out_non_ucast_pkts",
	VlanStatOutDiscards:     "out_discards",
	VlanStatOutErrors:       "out_errors",
	VlanStatOutQlen:         "out_qlen",
	VlanStatInPackets:       "in_packets",
	VlanStatOutPackets:      "out_packets",
}

func (s VlanStat) String() string {
	if s >= 0 && int(s) < len(vlanStatNames) {
		return vlanStatNames[s]
	}
	return fmt.Sprintf("vlan_stat(%d)", int32(s))
}

func ParseVlanStat(name string) (VlanStat, error) {
	for i, n := range vlanStatNames {
		if n == name {
			return VlanStat(i), nil
		}
	}
	return 0, fmt.Errorf("unknown vlan counter %q", name)
}

// AllVlanStats lists every counter kind in declaration order.
func AllVlanStats() []VlanStat {
	out := make([]VlanStat, len(vlanStatNames))
	for i := range out {
		out[i] = VlanStat(i)
	}
	return out
}
