package exporter

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
	"github.com/veesix-networks/osvlan/pkg/logger"
	"github.com/veesix-networks/osvlan/pkg/sai"
)

const metricPrefix = "osvlan_vlan_"

// exportedCounters are the counters the hardware can derive. The aggregate
// packet counters are never filled and would always read zero.
var exportedCounters = lo.Filter(sai.AllVlanStats(), func(s sai.VlanStat, _ int) bool {
	return s != sai.VlanStatInPackets && s != sai.VlanStatOutPackets
})

type vlanCollector struct {
	api     sai.VlanAPI
	vlans   []uint16
	logger  *slog.Logger
	timeout time.Duration

	counters []*prometheus.Desc
	members  *prometheus.Desc
	up       *prometheus.Desc
}

func newVlanCollector(api sai.VlanAPI, vlans []uint16, log *slog.Logger) *vlanCollector {
	labels := []string{"vlan"}
	return &vlanCollector{
		api:     api,
		vlans:   vlans,
		logger:  log,
		timeout: 5 * time.Second,
		counters: lo.Map(exportedCounters, func(s sai.VlanStat, _ int) *prometheus.Desc {
			return prometheus.NewDesc(metricPrefix+s.String()+"_total", "VLAN counter "+s.String()+".", labels, nil)
		}),
		members: prometheus.NewDesc(metricPrefix+"members", "Number of ports that are members of the VLAN.", labels, nil),
		up:      prometheus.NewDesc(metricPrefix+"up", "Whether the VLAN could be read from the switch.", labels, nil),
	}
}

func (vc *vlanCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range vc.counters {
		ch <- d
	}
	ch <- vc.members
	ch <- vc.up
}

func (vc *vlanCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), vc.timeout)
	defer cancel()

	for _, vlan := range vc.vlans {
		label := strconv.Itoa(int(vlan))
		if err := vc.collectVlan(ctx, sai.VlanID(vlan), label, ch); err != nil {
			logger.WithVlan(vc.logger, vlan).Debug("Failed to collect VLAN", "status", sai.StatusOf(err).String(), "error", err)
			ch <- prometheus.MustNewConstMetric(vc.up, prometheus.GaugeValue, 0, label)
			continue
		}
		ch <- prometheus.MustNewConstMetric(vc.up, prometheus.GaugeValue, 1, label)
	}
}

func (vc *vlanCollector) collectVlan(ctx context.Context, vlan sai.VlanID, label string, ch chan<- prometheus.Metric) error {
	attrs := []sai.Attribute{{ID: sai.VlanAttrMemberList}}
	if err := vc.api.GetVlanAttribute(ctx, vlan, attrs); err != nil {
		return err
	}
	values, err := vc.api.GetVlanStats(ctx, vlan, exportedCounters)
	if err != nil {
		return err
	}

	list, _ := attrs[0].Value.(sai.ObjectList)
	ch <- prometheus.MustNewConstMetric(vc.members, prometheus.GaugeValue, float64(len(list)), label)
	for i, d := range vc.counters {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(values[i]), label)
	}
	return nil
}
