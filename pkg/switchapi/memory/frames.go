package memory

import (
	"bytes"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/veesix-networks/osvlan/pkg/switchapi"
)

var broadcastMAC = []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

func classify(dst []byte) (in, out switchapi.BDStatsID) {
	switch {
	case bytes.Equal(dst, broadcastMAC):
		return switchapi.BDStatsInBcast, switchapi.BDStatsOutBcast
	case dst[0]&0x01 != 0:
		return switchapi.BDStatsInMcast, switchapi.BDStatsOutMcast
	default:
		return switchapi.BDStatsInUcast, switchapi.BDStatsOutUcast
	}
}

// Receive accounts an Ethernet frame arriving on port. The frame is counted
// as ingress on its VLAN and as egress once per other member port. Tagged
// frames must carry a VLAN the port is a tagged member of, untagged frames
// belong to the port's untagged VLAN.
func (s *Switch) Receive(port switchapi.Handle, frame []byte) (switchapi.VlanID, error) {
	pkt := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.DecodeOptions{Lazy: true, NoCopy: true})

	ethLayer := pkt.Layer(layers.LayerTypeEthernet)
	if ethLayer == nil {
		return 0, fmt.Errorf("receive on %s: not an ethernet frame: %w", port, switchapi.StatusInvalidParameter)
	}
	eth := ethLayer.(*layers.Ethernet)

	s.mu.Lock()
	defer s.mu.Unlock()

	var e *vlanEntry
	if dot1q, ok := pkt.Layer(layers.LayerTypeDot1Q).(*layers.Dot1Q); ok {
		e = s.vlans[switchapi.VlanID(dot1q.VLANIdentifier)]
		if e == nil {
			return 0, fmt.Errorf("receive on %s: vlan %d: %w", port, dot1q.VLANIdentifier, switchapi.StatusItemNotFound)
		}
		if mode, ok := e.members[port]; !ok || mode == switchapi.TaggingModeUntagged {
			return 0, fmt.Errorf("receive on %s: not a tagged member of vlan %d: %w", port, e.id, switchapi.StatusInvalidParameter)
		}
	} else {
		e = s.untaggedVlan(port)
		if e == nil {
			return 0, fmt.Errorf("receive on %s: no untagged vlan: %w", port, switchapi.StatusItemNotFound)
		}
	}

	in, out := classify(eth.DstMAC)
	size := uint64(len(frame))

	e.stats[in].Packets++
	e.stats[in].Bytes += size
	for _, member := range e.order {
		if member == port {
			continue
		}
		e.stats[out].Packets++
		e.stats[out].Bytes += size
	}

	return e.id, nil
}
