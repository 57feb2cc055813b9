package vlan

import (
	"errors"
	"testing"

	"github.com/veesix-networks/osvlan/pkg/sai"
	"github.com/veesix-networks/osvlan/pkg/switchapi"
)

func TestMemberIDRoundTrip(t *testing.T) {
	ports := []uint32{0, 1, 5, 0xfff, 0x1000, 0x12345, switchapi.HandleIndexMask}

	for _, idx := range ports {
		port := switchapi.IDToHandle(switchapi.HandleTypePort, idx)
		for v := sai.VlanIDMin; v <= sai.VlanIDMax; v++ {
			id, err := EncodeMemberID(port, v)
			if err != nil {
				t.Fatalf("EncodeMemberID(%s, %d): %v", port, v, err)
			}
			gotPort, gotVlan, err := DecodeMemberID(id)
			if err != nil {
				t.Fatalf("DecodeMemberID(%s): %v", id, err)
			}
			if gotPort != port || gotVlan != v {
				t.Fatalf("round trip (%s, %d) = (%s, %d)", port, v, gotPort, gotVlan)
			}
		}
	}
}

func TestMemberIDCarriesType(t *testing.T) {
	id, err := EncodeMemberID(switchapi.IDToHandle(switchapi.HandleTypePort, 5), 10)
	if err != nil {
		t.Fatal(err)
	}
	if got := switchapi.Handle(uint64(id) & 0xffffffff).Type(); got != switchapi.HandleTypeVlanMember {
		t.Fatalf("type tag = %v, want %v", got, switchapi.HandleTypeVlanMember)
	}
}

func TestMemberIDDistinct(t *testing.T) {
	a, _ := EncodeMemberID(switchapi.IDToHandle(switchapi.HandleTypePort, 1), 10)
	b, _ := EncodeMemberID(switchapi.IDToHandle(switchapi.HandleTypePort, 1), 11)
	c, _ := EncodeMemberID(switchapi.IDToHandle(switchapi.HandleTypePort, 2), 10)
	if a == b || a == c || b == c {
		t.Fatalf("member ids collide: %s %s %s", a, b, c)
	}
}

func TestEncodeMemberIDErrors(t *testing.T) {
	tests := []struct {
		name string
		port switchapi.Handle
		vlan sai.VlanID
		want sai.Status
	}{
		{"lag handle", switchapi.IDToHandle(switchapi.HandleTypeLag, 1), 10, sai.StatusInvalidObjectType},
		{"null handle", switchapi.InvalidHandle, 10, sai.StatusInvalidObjectType},
		{"high bits", switchapi.IDToHandle(switchapi.HandleTypePort, 1) | 1<<40, 10, sai.StatusInvalidObjectType},
		{"vlan zero", switchapi.IDToHandle(switchapi.HandleTypePort, 1), 0, sai.StatusInvalidVlanID},
		{"vlan 4095", switchapi.IDToHandle(switchapi.HandleTypePort, 1), 4095, sai.StatusInvalidVlanID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeMemberID(tt.port, tt.vlan)
			if !errors.Is(err, tt.want) {
				t.Fatalf("EncodeMemberID() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeMemberIDErrors(t *testing.T) {
	valid, _ := EncodeMemberID(switchapi.IDToHandle(switchapi.HandleTypePort, 3), 100)

	tests := []struct {
		name string
		id   sai.ObjectID
		want sai.Status
	}{
		{"port handle", sai.ObjectID(switchapi.IDToHandle(switchapi.HandleTypePort, 3)), sai.StatusInvalidObjectType},
		{"zero", 0, sai.StatusInvalidObjectType},
		{"vlan zero", sai.ObjectID(switchapi.IDToHandle(switchapi.HandleTypeVlanMember, 3)), sai.StatusInvalidVlanID},
		{"above vlan field", valid | 1<<50, sai.StatusInvalidObjectID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeMemberID(tt.id)
			if !errors.Is(err, tt.want) {
				t.Fatalf("DecodeMemberID() error = %v, want %v", err, tt.want)
			}
		})
	}
}
