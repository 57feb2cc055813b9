// Package vlan implements the generic VLAN and VLAN member operations on top
// of a switch driver. It holds no state of its own: every call is a
// synchronous round-trip to the driver.
package vlan

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/veesix-networks/osvlan/pkg/logger"
	"github.com/veesix-networks/osvlan/pkg/sai"
	"github.com/veesix-networks/osvlan/pkg/switchapi"
)

type Config struct {
	Driver switchapi.Driver
	Device switchapi.Device
	Logger *slog.Logger
}

type API struct {
	driver switchapi.Driver
	device switchapi.Device
	logger *slog.Logger
}

var _ sai.VlanAPI = (*API)(nil)

func New(cfg Config) (*API, error) {
	if cfg.Driver == nil {
		return nil, fmt.Errorf("vlan api: driver is required: %w", sai.StatusUninitialized)
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Get(logger.Vlan)
	}
	return &API{
		driver: cfg.Driver,
		device: cfg.Device,
		logger: log,
	}, nil
}

// Initialize binds the VLAN operation table into svc.
func Initialize(svc *sai.APIService, cfg Config) error {
	if svc == nil {
		return errors.New("vlan api: nil service")
	}
	api, err := New(cfg)
	if err != nil {
		return err
	}
	svc.Vlan = api
	api.logger.Debug("VLAN API initialized", "device", cfg.Device)
	return nil
}

// RemoveAllVlans is reserved for bulk teardown and does nothing yet.
func (a *API) RemoveAllVlans() error {
	return nil
}

func (a *API) lookupVlan(vlan sai.VlanID) (switchapi.Handle, error) {
	h, err := a.driver.VlanIDToHandle(switchapi.VlanID(vlan))
	if err != nil {
		return switchapi.InvalidHandle, statusError(fmt.Sprintf("vlan %d", vlan), err)
	}
	if !h.Valid() {
		return switchapi.InvalidHandle, fmt.Errorf("vlan %d: %w", vlan, sai.StatusItemNotFound)
	}
	return h, nil
}

func (a *API) fail(msg string, err error, args ...any) error {
	args = append(args, "status", sai.StatusOf(err).String(), "error", err)
	a.logger.Error(msg, args...)
	return err
}
