package vlan

import (
	"errors"
	"testing"

	"github.com/veesix-networks/osvlan/pkg/logger"
	"github.com/veesix-networks/osvlan/pkg/sai"
	"github.com/veesix-networks/osvlan/pkg/switchapi"
)

func testSnapshot() []switchapi.Counter {
	s := make([]switchapi.Counter, switchapi.BDStatsMax)
	s[switchapi.BDStatsInUcast] = switchapi.Counter{Packets: 10, Bytes: 1000}
	s[switchapi.BDStatsInMcast] = switchapi.Counter{Packets: 3, Bytes: 300}
	s[switchapi.BDStatsInBcast] = switchapi.Counter{Packets: 2, Bytes: 128}
	s[switchapi.BDStatsOutUcast] = switchapi.Counter{Packets: 7, Bytes: 700}
	s[switchapi.BDStatsOutMcast] = switchapi.Counter{Packets: 4, Bytes: 256}
	s[switchapi.BDStatsOutBcast] = switchapi.Counter{Packets: 1, Bytes: 64}
	return s
}

func TestMapCounters(t *testing.T) {
	tests := []struct {
		stat sai.VlanStat
		want uint64
	}{
		{sai.VlanStatInOctets, 1428},
		{sai.VlanStatInUcastPkts, 10},
		{sai.VlanStatInNonUcastPkts, 5},
		{sai.VlanStatOutOctets, 1020},
		{sai.VlanStatOutUcastPkts, 7},
		{sai.VlanStatOutNonUcastPkts, 5},
		{sai.VlanStatInDiscards, 0},
		{sai.VlanStatInErrors, 0},
		{sai.VlanStatInUnknownProtos, 0},
		{sai.VlanStatOutDiscards, 0},
		{sai.VlanStatOutErrors, 0},
		{sai.VlanStatOutQlen, 0},
	}

	log := logger.Get(logger.Vlan)
	for _, tt := range tests {
		t.Run(tt.stat.String(), func(t *testing.T) {
			out := []uint64{99}
			if err := mapCounters(log, []sai.VlanStat{tt.stat}, testSnapshot(), out); err != nil {
				t.Fatalf("mapCounters(): %v", err)
			}
			if out[0] != tt.want {
				t.Fatalf("%s = %d, want %d", tt.stat, out[0], tt.want)
			}
		})
	}
}

func TestMapCountersIsPure(t *testing.T) {
	log := logger.Get(logger.Vlan)
	ids := sai.AllVlanStats()
	a := make([]uint64, len(ids))
	b := make([]uint64, len(ids))

	if err := mapCounters(log, ids, testSnapshot(), a); err != nil {
		t.Fatal(err)
	}
	if err := mapCounters(log, ids, testSnapshot(), b); err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("slot %d differs between runs: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestMapCountersUnsupportedLeavesSlot(t *testing.T) {
	ids := []sai.VlanStat{sai.VlanStatInOctets, sai.VlanStatInPackets, sai.VlanStatOutPackets, sai.VlanStatOutUcastPkts}
	out := []uint64{0, 111, 222, 0}

	if err := mapCounters(logger.Get(logger.Vlan), ids, testSnapshot(), out); err != nil {
		t.Fatalf("mapCounters(): %v", err)
	}

	want := []uint64{1428, 111, 222, 7}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("out[%d] = %d, want %d", i, out[i], want[i])
		}
	}
}

func TestMapCountersErrors(t *testing.T) {
	log := logger.Get(logger.Vlan)

	err := mapCounters(log, []sai.VlanStat{sai.VlanStat(77)}, testSnapshot(), make([]uint64, 1))
	if !errors.Is(err, ErrUnknownCounter) || !errors.Is(err, sai.StatusInvalidParameter) {
		t.Fatalf("unknown counter: %v", err)
	}

	err = mapCounters(log, []sai.VlanStat{sai.VlanStatInOctets}, testSnapshot(), nil)
	if !errors.Is(err, sai.StatusInvalidParameter) {
		t.Fatalf("short output: %v", err)
	}

	err = mapCounters(log, []sai.VlanStat{sai.VlanStatInOctets}, testSnapshot()[:2], make([]uint64, 1))
	if !errors.Is(err, sai.StatusInvalidParameter) {
		t.Fatalf("short snapshot: %v", err)
	}
}

func TestTranslateStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want sai.Status
	}{
		{"nil", nil, sai.StatusSuccess},
		{"not found", switchapi.StatusItemNotFound, sai.StatusItemNotFound},
		{"exists", switchapi.StatusItemAlreadyExists, sai.StatusItemAlreadyExists},
		{"no memory", switchapi.StatusNoMemory, sai.StatusNoMemory},
		{"invalid handle", switchapi.StatusInvalidHandle, sai.StatusInvalidObjectID},
		{"hw failure", switchapi.StatusHWFailure, sai.StatusFailure},
		{"unmapped", switchapi.Status(200), sai.StatusFailure},
		{"foreign", errors.New("socket closed"), sai.StatusFailure},
		{"already generic", sai.StatusInvalidVlanID, sai.StatusInvalidVlanID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := translateStatus(tt.err); got != tt.want {
				t.Fatalf("translateStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusErrorCarriesOneStatus(t *testing.T) {
	err := statusError("remove vlan 10", switchapi.StatusItemNotFound)
	if got := sai.StatusOf(err); got != sai.StatusItemNotFound {
		t.Fatalf("StatusOf() = %v, want %v", got, sai.StatusItemNotFound)
	}
	if statusError("noop", nil) != nil {
		t.Fatal("statusError(nil) != nil")
	}
}
