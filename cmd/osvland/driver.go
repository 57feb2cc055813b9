package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sethvargo/go-retry"
	"github.com/veesix-networks/osvlan/pkg/config"
	"github.com/veesix-networks/osvlan/pkg/switchapi"
	"github.com/veesix-networks/osvlan/pkg/switchapi/linuxbridge"
	"github.com/veesix-networks/osvlan/pkg/switchapi/memory"
	"github.com/veesix-networks/osvlan/pkg/switchapi/vpp"
	"go.fd.io/govpp"
	"go.fd.io/govpp/core"
)

// backend is a switch driver together with its port table.
type backend interface {
	switchapi.Driver
	switchapi.PortResolver
}

func openDriver(ctx context.Context, cfg *config.Config, log *slog.Logger) (backend, func(), error) {
	dev := switchapi.Device(cfg.Switch.Device)

	switch cfg.Switch.Driver {
	case config.DriverMemory:
		sw := memory.New(memory.Config{Device: dev, Ports: cfg.Switch.Memory.Ports})
		return sw, func() {}, nil

	case config.DriverLinuxBridge:
		br, err := linuxbridge.New(linuxbridge.Config{
			Device: dev,
			Bridge: cfg.Switch.LinuxBridge.Bridge,
			Netns:  cfg.Switch.LinuxBridge.Netns,
		})
		if err != nil {
			return nil, nil, err
		}
		return br, func() { br.Close() }, nil

	case config.DriverVPP:
		return openVPP(ctx, cfg, dev, log)
	}

	return nil, nil, fmt.Errorf("unknown driver '%s'", cfg.Switch.Driver)
}

func openVPP(ctx context.Context, cfg *config.Config, dev switchapi.Device, log *slog.Logger) (backend, func(), error) {
	vcfg := cfg.Switch.VPP
	backoff := retry.WithMaxRetries(vcfg.ConnectRetries, retry.NewConstant(vcfg.ConnectInterval))

	var conn *core.Connection
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		conn, err = govpp.Connect(vcfg.APISocket)
		if err != nil {
			log.Warn("VPP not reachable, retrying", "socket", vcfg.APISocket, "error", err)
		}
		return retry.RetryableError(err)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to VPP at %s: %w", vcfg.APISocket, err)
	}

	stats := vpp.NewStatsClient(vcfg.StatsSocket)
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		return retry.RetryableError(stats.Connect())
	})
	if err != nil {
		conn.Disconnect()
		return nil, nil, fmt.Errorf("connect to VPP stats at %s: %w", vcfg.StatsSocket, err)
	}

	drv, err := vpp.New(vpp.Config{
		Connection: conn,
		Stats:      stats,
		Device:     dev,
	})
	if err != nil {
		stats.Disconnect()
		conn.Disconnect()
		return nil, nil, err
	}

	closeFn := func() {
		stats.Disconnect()
		conn.Disconnect()
	}
	return drv, closeFn, nil
}
