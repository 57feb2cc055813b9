package vlan

import (
	"context"
	"errors"
	"fmt"

	"github.com/veesix-networks/osvlan/pkg/sai"
	"github.com/veesix-networks/osvlan/pkg/switchapi"
)

// ErrStatsUnavailable is returned when the driver could not produce a
// counter snapshot.
var ErrStatsUnavailable = errors.New("vlan statistics unavailable")

func (a *API) GetVlanStats(ctx context.Context, vlan sai.VlanID, counters []sai.VlanStat) ([]uint64, error) {
	h, err := a.lookupVlan(vlan)
	if err != nil {
		return nil, a.fail("Failed to get VLAN stats", err, "vlan", vlan)
	}

	ids := make([]switchapi.BDStatsID, switchapi.BDStatsMax)
	for i := range ids {
		ids[i] = switchapi.BDStatsID(i)
	}

	snapshot, err := a.driver.VlanStatsGet(a.device, h, ids)
	if err != nil {
		return nil, a.fail("Failed to get VLAN stats",
			fmt.Errorf("vlan %d stats: %v: %w: %w", vlan, err, ErrStatsUnavailable, translateStatus(err)), "vlan", vlan)
	}

	out := make([]uint64, len(counters))
	if err := mapCounters(a.logger, counters, snapshot, out); err != nil {
		return nil, a.fail("Failed to map VLAN stats", fmt.Errorf("vlan %d stats: %w", vlan, err), "vlan", vlan)
	}
	return out, nil
}

// ClearVlanStats is accepted but the hardware counters are left running.
func (a *API) ClearVlanStats(ctx context.Context, vlan sai.VlanID, counters []sai.VlanStat) error {
	return nil
}
