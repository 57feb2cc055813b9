package vpp

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veesix-networks/osvlan/pkg/ifmgr"
	"github.com/veesix-networks/osvlan/pkg/logger"
	"github.com/veesix-networks/osvlan/pkg/switchapi"
	"go.fd.io/govpp/api"
	interfaces "go.fd.io/govpp/binapi/interface"
	"go.fd.io/govpp/binapi/interface_types"
)

func TestVPPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want switchapi.Status
	}{
		{"invalid sw_if_index", errInvalidSwIfIndex, switchapi.StatusInvalidHandle},
		{"no such entry", fmt.Errorf("reply: %w", errNoSuchEntry), switchapi.StatusItemNotFound},
		{"invalid value", errInvalidValue, switchapi.StatusInvalidParameter},
		{"subif exists", errSubifExists, switchapi.StatusItemAlreadyExists},
		{"bd exists", errBDAlreadyExists, switchapi.StatusItemAlreadyExists},
		{"bd in use", errBDInUse, switchapi.StatusResourceInUse},
		{"other vpp error", api.VPPApiError(-99), switchapi.StatusHWFailure},
		{"message text", errors.New("bridge domain already exists"), switchapi.StatusItemAlreadyExists},
		{"transport", errors.New("connection reset"), switchapi.StatusFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, vppStatus(tt.err))
		})
	}
}

func TestWrapKeepsStatus(t *testing.T) {
	err := wrap("bridge_domain_add_del", errNoSuchEntry)
	assert.ErrorIs(t, err, switchapi.StatusItemNotFound)
	assert.Contains(t, err.Error(), "bridge_domain_add_del")
	assert.NoError(t, wrap("noop", nil))
}

func TestAggregate(t *testing.T) {
	ifaces := []api.InterfaceCounters{
		{
			InterfaceIndex: 1,
			RxUnicast:      api.InterfaceCounterCombined{Packets: 10, Bytes: 1000},
			RxMulticast:    api.InterfaceCounterCombined{Packets: 1, Bytes: 64},
			TxBroadcast:    api.InterfaceCounterCombined{Packets: 2, Bytes: 128},
		},
		{
			InterfaceIndex: 5,
			RxUnicast:      api.InterfaceCounterCombined{Packets: 5, Bytes: 500},
			TxUnicast:      api.InterfaceCounterCombined{Packets: 7, Bytes: 700},
		},
		{
			InterfaceIndex: 9,
			RxUnicast:      api.InterfaceCounterCombined{Packets: 1000, Bytes: 100000},
		},
	}
	members := map[uint32]struct{}{1: {}, 5: {}}

	got := aggregate(ifaces, members)

	assert.Equal(t, switchapi.Counter{Packets: 15, Bytes: 1500}, got[switchapi.BDStatsInUcast])
	assert.Equal(t, switchapi.Counter{Packets: 1, Bytes: 64}, got[switchapi.BDStatsInMcast])
	assert.Equal(t, switchapi.Counter{}, got[switchapi.BDStatsInBcast])
	assert.Equal(t, switchapi.Counter{Packets: 7, Bytes: 700}, got[switchapi.BDStatsOutUcast])
	assert.Equal(t, switchapi.Counter{Packets: 2, Bytes: 128}, got[switchapi.BDStatsOutBcast])
}

type fakeStats struct {
	ifaces []api.InterfaceCounters
	err    error
}

func (f *fakeStats) GetInterfaceStats(stats *api.InterfaceStats) error {
	if f.err != nil {
		return f.err
	}
	stats.Interfaces = f.ifaces
	return nil
}

func newTestVPP(stats InterfaceStatsSource) *VPP {
	m := ifmgr.New()
	m.Add(&ifmgr.Interface{SwIfIndex: 1, SupSwIfIndex: 1, Name: "GigabitEthernet0/8/0"})
	m.Add(&ifmgr.Interface{SwIfIndex: 2, SupSwIfIndex: 2, Name: "GigabitEthernet0/9/0"})
	m.Add(&ifmgr.Interface{SwIfIndex: 3, SupSwIfIndex: 2, Name: "GigabitEthernet0/9/0.10", Type: ifmgr.IfTypeSub, OuterVlanID: 10})
	return &VPP{
		stats:  stats,
		ifMgr:  m,
		logger: logger.Get(logger.VPP),
		bds: map[uint32]*bridgeDomain{
			10: {id: 10, members: map[uint32]member{
				1: {swIfIndex: 1, mode: switchapi.TaggingModeUntagged},
				2: {swIfIndex: 3, mode: switchapi.TaggingModeTagged},
			}},
		},
	}
}

func TestVlanStatsGetSumsMembers(t *testing.T) {
	stats := &fakeStats{ifaces: []api.InterfaceCounters{
		{InterfaceIndex: 1, RxBroadcast: api.InterfaceCounterCombined{Packets: 3, Bytes: 192}},
		{InterfaceIndex: 2, RxBroadcast: api.InterfaceCounterCombined{Packets: 100, Bytes: 6400}},
		{InterfaceIndex: 3, RxBroadcast: api.InterfaceCounterCombined{Packets: 1, Bytes: 64}},
	}}
	v := newTestVPP(stats)

	got, err := v.VlanStatsGet(0, bdHandle(10), []switchapi.BDStatsID{switchapi.BDStatsInBcast, switchapi.BDStatsOutUcast})
	require.NoError(t, err)
	assert.Equal(t, []switchapi.Counter{{Packets: 4, Bytes: 256}, {}}, got)
}

func TestVlanStatsGetErrors(t *testing.T) {
	v := newTestVPP(&fakeStats{err: errors.New("stats segment gone")})

	_, err := v.VlanStatsGet(0, bdHandle(10), []switchapi.BDStatsID{switchapi.BDStatsInUcast})
	assert.ErrorIs(t, err, switchapi.StatusHWFailure)

	_, err = v.VlanStatsGet(0, bdHandle(20), nil)
	assert.ErrorIs(t, err, switchapi.StatusItemNotFound)

	_, err = v.VlanStatsGet(1, bdHandle(10), nil)
	assert.ErrorIs(t, err, switchapi.StatusInvalidParameter)
}

func TestLocalLookups(t *testing.T) {
	v := newTestVPP(&fakeStats{})

	h, err := v.VlanIDToHandle(10)
	require.NoError(t, err)
	assert.Equal(t, switchapi.HandleTypeVlan, h.Type())

	_, err = v.VlanIDToHandle(11)
	assert.ErrorIs(t, err, switchapi.StatusItemNotFound)

	require.NoError(t, v.VlanIGMPSnoopingSet(h, true))
	require.NoError(t, v.VlanMLDSnoopingSet(h, true))
	assert.True(t, v.bds[10].igmp)
	assert.True(t, v.bds[10].mld)

	port, err := v.InterfacePortHandle(switchapi.IDToHandle(switchapi.HandleTypeInterface, 3))
	require.NoError(t, err)
	assert.Equal(t, switchapi.IDToHandle(switchapi.HandleTypePort, 2), port)

	_, err = v.InterfacePortHandle(switchapi.IDToHandle(switchapi.HandleTypePort, 3))
	assert.ErrorIs(t, err, switchapi.StatusInvalidHandle)

	_, err = v.VlanCreate(0, 10)
	assert.ErrorIs(t, err, switchapi.StatusItemAlreadyExists)
}

func TestInterfaceFromDetails(t *testing.T) {
	d := &interfaces.SwInterfaceDetails{
		SwIfIndex:      4,
		SupSwIfIndex:   1,
		InterfaceName:  "GigabitEthernet0/8/0.100\x00\x00",
		Type:           interface_types.IF_API_TYPE_SUB,
		Flags:          interface_types.IF_STATUS_API_FLAG_ADMIN_UP | interface_types.IF_STATUS_API_FLAG_LINK_UP,
		SubOuterVlanID: 100,
	}

	iface := interfaceFromDetails(d)
	assert.Equal(t, "GigabitEthernet0/8/0.100", iface.Name)
	assert.True(t, iface.IsSubinterface())
	assert.True(t, iface.AdminUp && iface.LinkUp)
	assert.Equal(t, uint16(100), iface.OuterVlanID)
	assert.Equal(t, switchapi.IDToHandle(switchapi.HandleTypePort, 1), iface.PortHandle())
}
