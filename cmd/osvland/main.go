package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/samber/lo"
	"github.com/veesix-networks/osvlan/pkg/bootstrap"
	"github.com/veesix-networks/osvlan/pkg/component"
	"github.com/veesix-networks/osvlan/pkg/config"
	"github.com/veesix-networks/osvlan/pkg/logger"
	"github.com/veesix-networks/osvlan/pkg/sai"
	"github.com/veesix-networks/osvlan/pkg/switchapi"
	"github.com/veesix-networks/osvlan/pkg/version"
	"github.com/veesix-networks/osvlan/pkg/vlan"

	_ "github.com/veesix-networks/osvlan/pkg/exporter"
	_ "github.com/veesix-networks/osvlan/pkg/northbound"
)

type options struct {
	Config  string `short:"c" long:"config" description:"Path to configuration file" default:"configs/osvlan.yaml"`
	Version bool   `short:"v" long:"version" description:"Print version and exit"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	parser.ShortDescription = "osvlan daemon"

	if _, err := parser.Parse(); err != nil {
		code := 1
		var fe *flags.Error
		if errors.As(err, &fe) && fe.Type == flags.ErrHelp {
			code = 0
		}
		os.Exit(code)
	}

	if opts.Version {
		fmt.Println("osvland", version.Full())
		return
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	components := lo.MapValues(cfg.Logging.Components, func(level string, _ string) logger.LogLevel {
		return logger.LogLevel(level)
	})
	logger.Configure(cfg.Logging.Format, logger.LogLevel(cfg.Logging.Level), components)

	mainLog := logger.Get(logger.Main)
	mainLog.Info("Starting osvlan", "version", version.Version, "driver", cfg.Switch.Driver, "device", cfg.Switch.Device)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sw, closeDriver, err := openDriver(ctx, cfg, logger.Get(logger.Switch))
	if err != nil {
		log.Fatalf("Failed to open %s driver: %v", cfg.Switch.Driver, err)
	}
	defer closeDriver()
	mainLog.Info("Switch driver ready", "driver", cfg.Switch.Driver, "ports", len(sw.Ports()))

	svc := &sai.APIService{}
	if err := vlan.Initialize(svc, vlan.Config{Driver: sw, Device: switchapi.Device(cfg.Switch.Device)}); err != nil {
		log.Fatalf("Failed to initialize VLAN API: %v", err)
	}

	vlans, members, err := bootstrap.New(svc.Vlan, sw, cfg).Provision(ctx)
	if err != nil {
		log.Fatalf("Failed to provision VLANs: %v", err)
	}
	mainLog.Info("Startup VLANs provisioned", "vlans", vlans, "members", members)

	deps := component.Dependencies{
		Config: cfg,
		API:    svc,
		Ports:  sw,
	}

	comps, err := component.LoadAll(deps)
	if err != nil {
		log.Fatalf("Failed to load components: %v", err)
	}

	orch := component.NewOrchestrator()
	for _, comp := range comps {
		mainLog.Info("Loaded component", "name", comp.Name())
		orch.Register(comp)
	}

	if err := orch.Start(ctx); err != nil {
		log.Fatalf("Failed to start components: %v", err)
	}

	mainLog.Info("osvlan started successfully")
	<-ctx.Done()

	mainLog.Info("Shutting down osvlan...")
	if err := orch.Stop(context.Background()); err != nil {
		mainLog.Error("Error stopping components", "error", err)
	}
	mainLog.Info("osvlan stopped")
}
