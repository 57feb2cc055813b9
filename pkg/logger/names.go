package logger

const (
	Main       = "main"
	Vlan       = "vlan"
	Switch     = "switchapi"
	VPP        = "switchapi.vpp"
	Bridge     = "switchapi.bridge"
	Memory     = "switchapi.memory"
	Bootstrap  = "bootstrap"
	Config     = "config"
	Northbound = "nb"
	Exporter   = "exporter"
	CLI        = "cli"
)
