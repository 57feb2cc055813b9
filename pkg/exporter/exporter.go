// Package exporter serves VLAN counters and membership in the Prometheus
// text format.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/veesix-networks/osvlan/pkg/component"
	"github.com/veesix-networks/osvlan/pkg/logger"
)

const Namespace = "exporter"

func init() {
	component.Register(Namespace, NewComponent)
}

type Status struct {
	State         string   `json:"state"`
	ListenAddress string   `json:"listen_address"`
	Vlans         []uint16 `json:"vlans"`
	ServerRunning bool     `json:"server_running"`
}

type Component struct {
	*component.Base
	logger   *slog.Logger
	registry *prometheus.Registry
	vlans    []uint16
	http     *component.HTTPServer
}

func NewComponent(deps component.Dependencies) (component.Component, error) {
	if deps.Config == nil || !deps.Config.Exporter.Enabled {
		return nil, nil
	}
	if deps.API == nil || deps.API.Vlan == nil {
		return nil, errors.New("exporter: VLAN API not initialized")
	}

	vlans, err := deps.Config.ExporterVlans()
	if err != nil {
		return nil, fmt.Errorf("exporter: %w", err)
	}

	log := logger.Get(logger.Exporter)
	registry := prometheus.NewRegistry()
	if err := registry.Register(newVlanCollector(deps.API.Vlan, vlans, log)); err != nil {
		return nil, fmt.Errorf("exporter: register collector: %w", err)
	}

	c := &Component{
		Base:     component.NewBase(Namespace),
		logger:   log,
		registry: registry,
		vlans:    vlans,
	}
	c.http = component.NewHTTPServer(deps.Config.Exporter.ListenAddress, c.Handler(), log)
	return c, nil
}

func (c *Component) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
	return mux
}

func (c *Component) Start(ctx context.Context) error {
	c.StartContext(ctx)
	c.logger.Info("Starting Prometheus exporter", "addr", c.http.Addr(), "vlans", len(c.vlans))
	return c.http.Start(c.Base)
}

func (c *Component) Stop(ctx context.Context) error {
	c.logger.Info("Stopping Prometheus exporter")
	return errors.Join(c.http.Shutdown(ctx), c.StopContext(ctx))
}

func (c *Component) GetStatus() *Status {
	running := c.http.Running()
	state := "stopped"
	if running {
		state = "running"
	}

	return &Status{
		State:         state,
		ListenAddress: c.http.Addr(),
		Vlans:         c.vlans,
		ServerRunning: running,
	}
}
