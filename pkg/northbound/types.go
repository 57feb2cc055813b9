package northbound

import "github.com/veesix-networks/osvlan/pkg/switchapi"

type Status struct {
	State         string `json:"state"`
	ListenAddress string `json:"listen_address"`
	Running       bool   `json:"running"`
}

type PortsResponse struct {
	Ports []switchapi.Port `json:"ports"`
}

type CreateVlanRequest struct {
	VlanID uint16 `json:"vlan_id" description:"802.1Q VLAN id, 1-4094"`
}

type VlanResponse struct {
	VlanID  uint16   `json:"vlan_id" yaml:"vlan_id"`
	Members []Member `json:"members" yaml:"members"`
}

type Member struct {
	ID          string `json:"id" yaml:"id" description:"VLAN member object id"`
	VlanID      uint16 `json:"vlan_id" yaml:"vlan_id"`
	Port        string `json:"port" yaml:"port"`
	PortHandle  string `json:"port_handle" yaml:"port_handle"`
	TaggingMode string `json:"tagging_mode" yaml:"tagging_mode"`
}

type CreateMemberRequest struct {
	VlanID      uint16 `json:"vlan_id"`
	Port        string `json:"port" description:"Port name as listed by /api/ports"`
	TaggingMode string `json:"tagging_mode,omitempty" description:"untagged, tagged or priority"`
}

type AttributeRequest struct {
	Attribute string `json:"attribute"`
	Value     any    `json:"value"`
}

type StatsResponse struct {
	VlanID   uint16            `json:"vlan_id" yaml:"vlan_id"`
	Counters map[string]uint64 `json:"counters" yaml:"counters"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Status    string `json:"status,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type OKResponse struct {
	Status string `json:"status"`
}
