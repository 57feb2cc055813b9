//go:build linux

package linuxbridge

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veesix-networks/osvlan/pkg/switchapi"
	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netlink/nl"
	"golang.org/x/sys/unix"
)

type fakeNetlink struct {
	links  []netlink.Link
	table  map[int32][]*nl.BridgeVlanInfo
	snoop  bool
	addErr error
	// failVid limits addErr to one vid when set.
	failVid uint16
}

// defaultFlags is what the kernel sets on vid 1 for the bridge and each
// port it enslaves.
const defaultFlags = nl.BRIDGE_VLAN_INFO_PVID | nl.BRIDGE_VLAN_INFO_UNTAGGED

func newFakeNetlink() *fakeNetlink {
	br := &netlink.Bridge{LinkAttrs: netlink.LinkAttrs{Index: 1, Name: "br0"}}
	eth1 := &netlink.Dummy{LinkAttrs: netlink.LinkAttrs{
		Index: 2, Name: "eth1", MasterIndex: 1, OperState: netlink.OperUp,
		Statistics: &netlink.LinkStatistics{RxPackets: 10, RxBytes: 1000, Multicast: 4, TxPackets: 3, TxBytes: 300},
	}}
	eth2 := &netlink.Dummy{LinkAttrs: netlink.LinkAttrs{
		Index: 3, Name: "eth2", MasterIndex: 1,
		Statistics: &netlink.LinkStatistics{RxPackets: 5, RxBytes: 500, TxPackets: 1, TxBytes: 100},
	}}
	mgmt := &netlink.Dummy{LinkAttrs: netlink.LinkAttrs{Index: 4, Name: "mgmt0"}}
	return &fakeNetlink{
		links: []netlink.Link{br, eth1, eth2, mgmt},
		table: map[int32][]*nl.BridgeVlanInfo{
			1: {{Vid: 1, Flags: defaultFlags}},
			2: {{Vid: 1, Flags: defaultFlags}},
			3: {{Vid: 1, Flags: defaultFlags}},
		},
	}
}

func (f *fakeNetlink) LinkByName(name string) (netlink.Link, error) {
	for _, l := range f.links {
		if l.Attrs().Name == name {
			return l, nil
		}
	}
	return nil, unix.ENODEV
}

func (f *fakeNetlink) LinkByIndex(index int) (netlink.Link, error) {
	for _, l := range f.links {
		if l.Attrs().Index == index {
			return l, nil
		}
	}
	return nil, unix.ENODEV
}

func (f *fakeNetlink) LinkList() ([]netlink.Link, error) { return f.links, nil }

func (f *fakeNetlink) BridgeVlanAdd(link netlink.Link, vid uint16, pvid, untagged, self, master bool) error {
	if f.addErr != nil && (f.failVid == 0 || f.failVid == vid) {
		return f.addErr
	}
	var flags uint16
	if pvid {
		flags |= nl.BRIDGE_VLAN_INFO_PVID
	}
	if untagged {
		flags |= nl.BRIDGE_VLAN_INFO_UNTAGGED
	}
	idx := int32(link.Attrs().Index)
	f.table[idx] = append(f.table[idx], &nl.BridgeVlanInfo{Vid: vid, Flags: flags})
	return nil
}

func (f *fakeNetlink) BridgeVlanDel(link netlink.Link, vid uint16, pvid, untagged, self, master bool) error {
	idx := int32(link.Attrs().Index)
	for i, info := range f.table[idx] {
		if info.Vid == vid {
			f.table[idx] = append(f.table[idx][:i], f.table[idx][i+1:]...)
			return nil
		}
	}
	return unix.ENOENT
}

func (f *fakeNetlink) BridgeVlanList() (map[int32][]*nl.BridgeVlanInfo, error) {
	return f.table, nil
}

func (f *fakeNetlink) BridgeSetMcastSnoop(link netlink.Link, on bool) error {
	f.snoop = on
	return nil
}

func newTestBridge(t *testing.T) (*Bridge, *fakeNetlink) {
	t.Helper()
	f := newFakeNetlink()
	b, err := newBridge(f, Config{Bridge: "br0"})
	require.NoError(t, err)
	return b, f
}

func port(idx uint32) switchapi.Handle {
	return switchapi.IDToHandle(switchapi.HandleTypePort, idx)
}

func TestNewAdoptsExistingVlans(t *testing.T) {
	b, _ := newTestBridge(t)

	h, err := b.VlanIDToHandle(1)
	require.NoError(t, err)
	assert.Equal(t, switchapi.HandleTypeVlan, h.Type())

	_, err = newBridge(newFakeNetlink(), Config{Bridge: "eth1"})
	assert.ErrorIs(t, err, switchapi.StatusInvalidParameter)

	_, err = newBridge(newFakeNetlink(), Config{Bridge: "missing"})
	assert.ErrorIs(t, err, switchapi.StatusItemNotFound)
}

func TestPorts(t *testing.T) {
	b, _ := newTestBridge(t)

	ports := b.Ports()
	require.Len(t, ports, 2)
	assert.Equal(t, switchapi.Port{Handle: port(2), Name: "eth1", LinkUp: true}, ports[0])
	assert.Equal(t, "eth2", ports[1].Name)

	h, err := b.PortByName("eth2")
	require.NoError(t, err)
	assert.Equal(t, port(3), h)

	_, err = b.PortByName("mgmt0")
	assert.ErrorIs(t, err, switchapi.StatusItemNotFound)
}

func TestVlanLifecycle(t *testing.T) {
	b, f := newTestBridge(t)

	h, err := b.VlanCreate(0, 10)
	require.NoError(t, err)

	_, err = b.VlanCreate(0, 10)
	assert.ErrorIs(t, err, switchapi.StatusItemAlreadyExists)

	require.NoError(t, b.VlanPortsAdd(0, h, []switchapi.VlanPort{
		{Handle: port(2), TaggingMode: switchapi.TaggingModeTagged},
		{Handle: port(3), TaggingMode: switchapi.TaggingModeUntagged},
	}))

	err = b.VlanPortsAdd(0, h, []switchapi.VlanPort{{Handle: port(2), TaggingMode: switchapi.TaggingModeTagged}})
	assert.ErrorIs(t, err, switchapi.StatusItemAlreadyExists)

	err = b.VlanPortsAdd(0, h, []switchapi.VlanPort{{Handle: port(4), TaggingMode: switchapi.TaggingModeTagged}})
	assert.ErrorIs(t, err, switchapi.StatusItemNotFound)

	ifs, err := b.VlanInterfacesGet(0, h)
	require.NoError(t, err)
	assert.Equal(t, []switchapi.VlanInterface{
		{Handle: switchapi.IDToHandle(switchapi.HandleTypeInterface, 2), TaggingMode: switchapi.TaggingModeTagged},
		{Handle: switchapi.IDToHandle(switchapi.HandleTypeInterface, 3), TaggingMode: switchapi.TaggingModeUntagged},
	}, ifs)

	p, err := b.InterfacePortHandle(ifs[1].Handle)
	require.NoError(t, err)
	assert.Equal(t, port(3), p)

	require.NoError(t, b.VlanPortsRemove(0, h, []switchapi.VlanPort{{Handle: port(2)}}))
	err = b.VlanPortsRemove(0, h, []switchapi.VlanPort{{Handle: port(2)}})
	assert.ErrorIs(t, err, switchapi.StatusItemNotFound)

	require.NoError(t, b.VlanDelete(0, h))
	assert.Empty(t, f.table[3])
	assert.Equal(t, []*nl.BridgeVlanInfo{{Vid: 1, Flags: defaultFlags}}, f.table[2])
	_, err = b.VlanIDToHandle(10)
	assert.ErrorIs(t, err, switchapi.StatusItemNotFound)
}

func TestUntaggedPortInTwoVlans(t *testing.T) {
	b, _ := newTestBridge(t)

	h10, err := b.VlanCreate(0, 10)
	require.NoError(t, err)
	h20, err := b.VlanCreate(0, 20)
	require.NoError(t, err)

	untagged := []switchapi.VlanPort{{Handle: port(2), TaggingMode: switchapi.TaggingModeUntagged}}
	require.NoError(t, b.VlanPortsAdd(0, h10, untagged))
	assert.ErrorIs(t, b.VlanPortsAdd(0, h20, untagged), switchapi.StatusPortInUse)

	priority := []switchapi.VlanPort{{Handle: port(3), TaggingMode: switchapi.TaggingModePriorityTagged}}
	assert.ErrorIs(t, b.VlanPortsAdd(0, h20, priority), switchapi.StatusNotSupported)
}

func TestUntaggedReplacesDefaultPVID(t *testing.T) {
	b, f := newTestBridge(t)

	h10, err := b.VlanCreate(0, 10)
	require.NoError(t, err)
	require.NoError(t, b.VlanPortsAdd(0, h10, []switchapi.VlanPort{{Handle: port(2), TaggingMode: switchapi.TaggingModeUntagged}}))
	assert.Equal(t, []*nl.BridgeVlanInfo{{Vid: 10, Flags: defaultFlags}}, f.table[2])

	h1, err := b.VlanIDToHandle(1)
	require.NoError(t, err)
	ifs, err := b.VlanInterfacesGet(0, h1)
	require.NoError(t, err)
	assert.Equal(t, []switchapi.VlanInterface{
		{Handle: switchapi.IDToHandle(switchapi.HandleTypeInterface, 3), TaggingMode: switchapi.TaggingModeUntagged},
	}, ifs)

	// A failed add puts the default membership back.
	h20, err := b.VlanCreate(0, 20)
	require.NoError(t, err)
	f.addErr, f.failVid = unix.EINVAL, 20
	err = b.VlanPortsAdd(0, h20, []switchapi.VlanPort{{Handle: port(3), TaggingMode: switchapi.TaggingModeUntagged}})
	assert.ErrorIs(t, err, switchapi.StatusInvalidParameter)
	assert.Equal(t, []*nl.BridgeVlanInfo{{Vid: 1, Flags: defaultFlags}}, f.table[3])
}

func TestDefaultPVIDDisabled(t *testing.T) {
	f := newFakeNetlink()
	none := uint16(0)
	f.links[0].(*netlink.Bridge).VlanDefaultPVID = &none
	b, err := newBridge(f, Config{Bridge: "br0"})
	require.NoError(t, err)

	h, err := b.VlanCreate(0, 10)
	require.NoError(t, err)
	err = b.VlanPortsAdd(0, h, []switchapi.VlanPort{{Handle: port(2), TaggingMode: switchapi.TaggingModeUntagged}})
	assert.ErrorIs(t, err, switchapi.StatusPortInUse)
	assert.Equal(t, []*nl.BridgeVlanInfo{{Vid: 1, Flags: defaultFlags}}, f.table[2])
}

func TestSnoopingFollowsVlans(t *testing.T) {
	b, f := newTestBridge(t)

	h, err := b.VlanCreate(0, 10)
	require.NoError(t, err)

	require.NoError(t, b.VlanIGMPSnoopingSet(h, true))
	assert.True(t, f.snoop)
	require.NoError(t, b.VlanMLDSnoopingSet(h, false))
	assert.True(t, f.snoop)
	require.NoError(t, b.VlanIGMPSnoopingSet(h, false))
	assert.False(t, f.snoop)

	require.NoError(t, b.VlanIGMPSnoopingSet(h, true))
	require.NoError(t, b.VlanDelete(0, h))
	assert.False(t, f.snoop)

	assert.ErrorIs(t, b.VlanIGMPSnoopingSet(h, true), switchapi.StatusItemNotFound)
}

func TestVlanStatsGet(t *testing.T) {
	b, _ := newTestBridge(t)

	h, err := b.VlanCreate(0, 10)
	require.NoError(t, err)
	require.NoError(t, b.VlanPortsAdd(0, h, []switchapi.VlanPort{
		{Handle: port(2), TaggingMode: switchapi.TaggingModeTagged},
		{Handle: port(3), TaggingMode: switchapi.TaggingModeTagged},
	}))

	got, err := b.VlanStatsGet(0, h, []switchapi.BDStatsID{
		switchapi.BDStatsInUcast, switchapi.BDStatsInMcast, switchapi.BDStatsOutUcast, switchapi.BDStatsOutBcast,
	})
	require.NoError(t, err)
	assert.Equal(t, []switchapi.Counter{
		{Packets: 11, Bytes: 1500},
		{Packets: 4},
		{Packets: 4, Bytes: 400},
		{},
	}, got)

	_, err = b.VlanStatsGet(0, h, []switchapi.BDStatsID{switchapi.BDStatsMax})
	assert.ErrorIs(t, err, switchapi.StatusInvalidParameter)

	_, err = b.VlanStatsGet(7, h, nil)
	assert.ErrorIs(t, err, switchapi.StatusInvalidParameter)
}

func TestDriverErrorsCarryStatus(t *testing.T) {
	b, f := newTestBridge(t)
	f.addErr = unix.EOPNOTSUPP

	_, err := b.VlanCreate(0, 30)
	assert.ErrorIs(t, err, switchapi.StatusNotSupported)

	_, err = b.VlanCreate(0, 4095)
	assert.ErrorIs(t, err, switchapi.StatusInvalidVlanID)
}

func TestLinkStatus(t *testing.T) {
	tests := []struct {
		err  error
		want switchapi.Status
	}{
		{unix.ENOENT, switchapi.StatusItemNotFound},
		{unix.ENODEV, switchapi.StatusItemNotFound},
		{netlink.LinkNotFoundError{}, switchapi.StatusItemNotFound},
		{unix.EEXIST, switchapi.StatusItemAlreadyExists},
		{unix.EINVAL, switchapi.StatusInvalidParameter},
		{unix.EOPNOTSUPP, switchapi.StatusNotSupported},
		{unix.EBUSY, switchapi.StatusResourceInUse},
		{unix.ENOBUFS, switchapi.StatusNoMemory},
		{unix.EPERM, switchapi.StatusFailure},
		{fmt.Errorf("wrapped: %w", unix.EEXIST), switchapi.StatusItemAlreadyExists},
		{switchapi.StatusPortInUse, switchapi.StatusPortInUse},
		{errors.New("netlink receive: timeout"), switchapi.StatusHWFailure},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, linkStatus(tt.err))
		})
	}
}
