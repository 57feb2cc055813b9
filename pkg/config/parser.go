package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseVLANRange parses "100" or "100-110" into the VLANs it covers.
func ParseVLANRange(vlanStr string) ([]uint16, error) {
	vlanStr = strings.TrimSpace(vlanStr)

	start, end := vlanStr, vlanStr
	if strings.Contains(vlanStr, "-") {
		parts := strings.Split(vlanStr, "-")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid VLAN range format: %s", vlanStr)
		}
		start, end = parts[0], parts[1]
	}

	first, err := parseVLAN(start)
	if err != nil {
		return nil, err
	}
	last, err := parseVLAN(end)
	if err != nil {
		return nil, err
	}
	if first > last {
		return nil, fmt.Errorf("invalid VLAN range: start (%d) > end (%d)", first, last)
	}

	vlans := make([]uint16, 0, last-first+1)
	for i := first; i <= last; i++ {
		vlans = append(vlans, i)
	}
	return vlans, nil
}

func parseVLAN(s string) (uint16, error) {
	vlan, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid VLAN: %w", err)
	}
	if vlan == 0 {
		return 0, fmt.Errorf("VLAN 0 not allowed")
	}
	if vlan > 4094 {
		return 0, fmt.Errorf("VLAN %d exceeds maximum (4094)", vlan)
	}
	return uint16(vlan), nil
}
