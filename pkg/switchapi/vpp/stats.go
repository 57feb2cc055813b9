package vpp

import (
	"fmt"
	"sync"

	"github.com/veesix-networks/osvlan/pkg/switchapi"
	"go.fd.io/govpp/adapter/statsclient"
	"go.fd.io/govpp/api"
	"go.fd.io/govpp/core"
)

// InterfaceStatsSource reads the interface counters of the stats segment.
type InterfaceStatsSource interface {
	GetInterfaceStats(stats *api.InterfaceStats) error
}

type StatsClient struct {
	client    *statsclient.StatsClient
	conn      *core.StatsConnection
	mu        sync.RWMutex
	connected bool
}

func NewStatsClient(socketPath string) *StatsClient {
	if socketPath == "" {
		socketPath = statsclient.DefaultSocketName
	}
	return &StatsClient{
		client: statsclient.NewStatsClient(socketPath),
	}
}

func (s *StatsClient) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return nil
	}

	conn, err := core.ConnectStats(s.client)
	if err != nil {
		return fmt.Errorf("connect to stats: %w", err)
	}

	s.conn = conn
	s.connected = true
	return nil
}

func (s *StatsClient) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		s.conn.Disconnect()
		s.conn = nil
	}
	s.connected = false
}

func (s *StatsClient) GetInterfaceStats(stats *api.InterfaceStats) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.connected {
		return fmt.Errorf("not connected to stats: %w", switchapi.StatusUninitialized)
	}
	if err := s.conn.GetInterfaceStats(stats); err != nil {
		return fmt.Errorf("get interface stats: %w", err)
	}
	return nil
}

func add(c *switchapi.Counter, v api.InterfaceCounterCombined) {
	c.Packets += v.Packets
	c.Bytes += v.Bytes
}

// aggregate sums the per-class counters of the member interfaces into
// bridge domain buckets.
func aggregate(ifaces []api.InterfaceCounters, members map[uint32]struct{}) [switchapi.BDStatsMax]switchapi.Counter {
	var out [switchapi.BDStatsMax]switchapi.Counter
	for _, c := range ifaces {
		if _, ok := members[c.InterfaceIndex]; !ok {
			continue
		}
		add(&out[switchapi.BDStatsInUcast], c.RxUnicast)
		add(&out[switchapi.BDStatsInMcast], c.RxMulticast)
		add(&out[switchapi.BDStatsInBcast], c.RxBroadcast)
		add(&out[switchapi.BDStatsOutUcast], c.TxUnicast)
		add(&out[switchapi.BDStatsOutMcast], c.TxMulticast)
		add(&out[switchapi.BDStatsOutBcast], c.TxBroadcast)
	}
	return out
}
