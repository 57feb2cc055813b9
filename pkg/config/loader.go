package config

import (
	"fmt"
	"os"
	"time"

	"github.com/samber/lo"
	"github.com/veesix-networks/osvlan/pkg/sai"
	"gopkg.in/yaml.v3"
)

const (
	DefaultVPPAPISocket      = "/run/vpp/api.sock"
	DefaultVPPStatsSocket    = "/run/vpp/stats.sock"
	DefaultConnectRetries    = 10
	DefaultConnectInterval   = time.Second
	DefaultBridge            = "br0"
	DefaultNorthboundAddress = ":8080"
	DefaultExporterAddress   = ":9273"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Switch.Driver == "" {
		c.Switch.Driver = DriverMemory
	}
	if c.Switch.VPP.APISocket == "" {
		c.Switch.VPP.APISocket = DefaultVPPAPISocket
	}
	if c.Switch.VPP.StatsSocket == "" {
		c.Switch.VPP.StatsSocket = DefaultVPPStatsSocket
	}
	if c.Switch.VPP.ConnectRetries == 0 {
		c.Switch.VPP.ConnectRetries = DefaultConnectRetries
	}
	if c.Switch.VPP.ConnectInterval == 0 {
		c.Switch.VPP.ConnectInterval = DefaultConnectInterval
	}
	if c.Switch.LinuxBridge.Bridge == "" {
		c.Switch.LinuxBridge.Bridge = DefaultBridge
	}

	for i := range c.Vlans {
		for j := range c.Vlans[i].Members {
			if c.Vlans[i].Members[j].Tagging == "" {
				c.Vlans[i].Members[j].Tagging = sai.TaggingModeUntagged.String()
			}
		}
	}

	if c.Northbound.ListenAddress == "" {
		c.Northbound.ListenAddress = DefaultNorthboundAddress
	}
	if c.Exporter.ListenAddress == "" {
		c.Exporter.ListenAddress = DefaultExporterAddress
	}
}

func (c *Config) Validate() error {
	switch c.Switch.Driver {
	case DriverMemory:
		if len(c.Switch.Memory.Ports) == 0 {
			return fmt.Errorf("switch.memory.ports: at least one port is required")
		}
		if dups := lo.FindDuplicates(c.Switch.Memory.Ports); len(dups) > 0 {
			return fmt.Errorf("switch.memory.ports: duplicate ports %v", dups)
		}
	case DriverVPP, DriverLinuxBridge:
	default:
		return fmt.Errorf("switch.driver: unknown driver '%s'", c.Switch.Driver)
	}

	ids := lo.Map(c.Vlans, func(v Vlan, _ int) uint16 { return v.ID })
	if dups := lo.FindDuplicates(ids); len(dups) > 0 {
		return fmt.Errorf("vlans: duplicate ids %v", dups)
	}

	for i, v := range c.Vlans {
		if !sai.VlanID(v.ID).Valid() {
			return fmt.Errorf("vlans[%d].id: VLAN %d outside %d-%d", i, v.ID, sai.VlanIDMin, sai.VlanIDMax)
		}

		ports := lo.Map(v.Members, func(m VlanMember, _ int) string { return m.Port })
		if dups := lo.FindDuplicates(ports); len(dups) > 0 {
			return fmt.Errorf("vlans[%d].members: duplicate ports %v", i, dups)
		}

		for j, m := range v.Members {
			if m.Port == "" {
				return fmt.Errorf("vlans[%d].members[%d].port is required", i, j)
			}
			if _, err := sai.ParseTaggingMode(m.Tagging); err != nil {
				return fmt.Errorf("vlans[%d].members[%d].tagging: %w", i, j, err)
			}
		}
	}

	if _, err := c.ExporterVlans(); err != nil {
		return fmt.Errorf("exporter.vlans: %w", err)
	}

	return nil
}

// ExporterVlans expands exporter.vlans, falling back to every configured
// VLAN when the list is empty.
func (c *Config) ExporterVlans() ([]uint16, error) {
	if len(c.Exporter.Vlans) == 0 {
		return lo.Map(c.Vlans, func(v Vlan, _ int) uint16 { return v.ID }), nil
	}

	var out []uint16
	for _, s := range c.Exporter.Vlans {
		vlans, err := ParseVLANRange(s)
		if err != nil {
			return nil, err
		}
		out = append(out, vlans...)
	}
	return lo.Uniq(out), nil
}
