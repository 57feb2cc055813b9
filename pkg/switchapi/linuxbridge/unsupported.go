//go:build !linux

package linuxbridge

import (
	"fmt"

	"github.com/veesix-networks/osvlan/pkg/switchapi"
)

type Bridge struct {
	switchapi.Driver
	switchapi.PortResolver
}

func New(cfg Config) (*Bridge, error) {
	return nil, fmt.Errorf("linux bridge driver: %w", switchapi.StatusNotSupported)
}

func (b *Bridge) Close() error {
	return nil
}
