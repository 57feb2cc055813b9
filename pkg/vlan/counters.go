package vlan

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/veesix-networks/osvlan/pkg/sai"
	"github.com/veesix-networks/osvlan/pkg/switchapi"
)

var ErrUnknownCounter = errors.New("unknown vlan counter")

func sumBytes(s []switchapi.Counter, ids ...switchapi.BDStatsID) uint64 {
	var n uint64
	for _, id := range ids {
		n += s[id].Bytes
	}
	return n
}

func sumPackets(s []switchapi.Counter, ids ...switchapi.BDStatsID) uint64 {
	var n uint64
	for _, id := range ids {
		n += s[id].Packets
	}
	return n
}

// mapCounters projects a bridge domain snapshot onto the requested generic
// counters. out[i] receives the value for ids[i]. Kinds the hardware does not
// track read as zero. IN_PACKETS and OUT_PACKETS are not derivable and leave
// their slot as it was.
func mapCounters(log *slog.Logger, ids []sai.VlanStat, snapshot []switchapi.Counter, out []uint64) error {
	if len(out) != len(ids) {
		return fmt.Errorf("map counters: %d slots for %d counters: %w", len(out), len(ids), sai.StatusInvalidParameter)
	}
	if len(snapshot) < int(switchapi.BDStatsMax) {
		return fmt.Errorf("map counters: short snapshot (%d buckets): %w", len(snapshot), sai.StatusInvalidParameter)
	}

	for i, id := range ids {
		switch id {
		case sai.VlanStatInOctets:
			out[i] = sumBytes(snapshot, switchapi.BDStatsInUcast, switchapi.BDStatsInMcast, switchapi.BDStatsInBcast)
		case sai.VlanStatInUcastPkts:
			out[i] = snapshot[switchapi.BDStatsInUcast].Packets
		case sai.VlanStatInNonUcastPkts:
			out[i] = sumPackets(snapshot, switchapi.BDStatsInMcast, switchapi.BDStatsInBcast)
		case sai.VlanStatOutOctets:
			out[i] = sumBytes(snapshot, switchapi.BDStatsOutUcast, switchapi.BDStatsOutMcast, switchapi.BDStatsOutBcast)
		case sai.VlanStatOutUcastPkts:
			out[i] = snapshot[switchapi.BDStatsOutUcast].Packets
		case sai.VlanStatOutNonUcastPkts:
			out[i] = sumPackets(snapshot, switchapi.BDStatsOutMcast, switchapi.BDStatsOutBcast)
		case sai.VlanStatInDiscards, sai.VlanStatInErrors, sai.VlanStatInUnknownProtos,
			sai.VlanStatOutDiscards, sai.VlanStatOutErrors, sai.VlanStatOutQlen:
			out[i] = 0
		case sai.VlanStatInPackets, sai.VlanStatOutPackets:
			log.Warn("Counter not supported", "counter", id.String())
		default:
			return fmt.Errorf("map counters: %w %d: %w", ErrUnknownCounter, int32(id), sai.StatusInvalidParameter)
		}
	}
	return nil
}
