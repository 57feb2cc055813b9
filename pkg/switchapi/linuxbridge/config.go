// Package linuxbridge drives VLANs on a VLAN-filtering Linux bridge. The
// bridge device carries every VLAN as a "self" entry, front panel ports are
// the bridge's slave links and membership is the per-port VLAN table.
package linuxbridge

import "github.com/veesix-networks/osvlan/pkg/switchapi"

type Config struct {
	Device switchapi.Device
	Bridge string
	// Netns is the named network namespace holding the bridge. Empty means
	// the daemon's own namespace.
	Netns string
}
