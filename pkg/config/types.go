package config

import "time"

const (
	DriverMemory      = "memory"
	DriverVPP         = "vpp"
	DriverLinuxBridge = "linuxbridge"
)

type Config struct {
	Logging    Logging    `json:"logging,omitempty" yaml:"logging,omitempty"`
	Switch     Switch     `json:"switch,omitempty" yaml:"switch,omitempty"`
	Vlans      []Vlan     `json:"vlans,omitempty" yaml:"vlans,omitempty"`
	Northbound Northbound `json:"northbound,omitempty" yaml:"northbound,omitempty"`
	Exporter   Exporter   `json:"exporter,omitempty" yaml:"exporter,omitempty"`
}

type Logging struct {
	Format     string            `json:"format,omitempty" yaml:"format,omitempty"`
	Level      string            `json:"level,omitempty" yaml:"level,omitempty"`
	Components map[string]string `json:"components,omitempty" yaml:"components,omitempty"`
}

type Switch struct {
	Device      uint32      `json:"device" yaml:"device"`
	Driver      string      `json:"driver,omitempty" yaml:"driver,omitempty"`
	Memory      Memory      `json:"memory,omitempty" yaml:"memory,omitempty"`
	VPP         VPP         `json:"vpp,omitempty" yaml:"vpp,omitempty"`
	LinuxBridge LinuxBridge `json:"linuxbridge,omitempty" yaml:"linuxbridge,omitempty"`
}

type Memory struct {
	Ports []string `json:"ports,omitempty" yaml:"ports,omitempty"`
}

type VPP struct {
	APISocket       string        `json:"api_socket,omitempty" yaml:"api_socket,omitempty"`
	StatsSocket     string        `json:"stats_socket,omitempty" yaml:"stats_socket,omitempty"`
	ConnectRetries  uint64        `json:"connect_retries,omitempty" yaml:"connect_retries,omitempty"`
	ConnectInterval time.Duration `json:"connect_interval,omitempty" yaml:"connect_interval,omitempty"`
}

type LinuxBridge struct {
	Bridge string `json:"bridge,omitempty" yaml:"bridge,omitempty"`
	Netns  string `json:"netns,omitempty" yaml:"netns,omitempty"`
}

// Vlan is provisioned at startup together with its members.
type Vlan struct {
	ID      uint16       `json:"id" yaml:"id"`
	Members []VlanMember `json:"members,omitempty" yaml:"members,omitempty"`
}

type VlanMember struct {
	Port    string `json:"port" yaml:"port"`
	Tagging string `json:"tagging,omitempty" yaml:"tagging,omitempty"`
}

type Northbound struct {
	Enabled       bool   `json:"enabled" yaml:"enabled"`
	ListenAddress string `json:"listen_address,omitempty" yaml:"listen_address,omitempty"`
}

type Exporter struct {
	Enabled       bool   `json:"enabled" yaml:"enabled"`
	ListenAddress string `json:"listen_address,omitempty" yaml:"listen_address,omitempty"`
	// Vlans lists VLAN ids or ranges ("100-110"). Empty exports every
	// configured VLAN.
	Vlans []string `json:"vlans,omitempty" yaml:"vlans,omitempty"`
}
