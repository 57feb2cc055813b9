package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/veesix-networks/osvlan/pkg/config"
	"github.com/veesix-networks/osvlan/pkg/logger"
	"github.com/veesix-networks/osvlan/pkg/sai"
	"github.com/veesix-networks/osvlan/pkg/switchapi"
	"github.com/veesix-networks/osvlan/pkg/vlan"
)

// Bootstrap provisions the VLANs listed in the configuration through the
// generic API. Objects that already exist are left alone so a restart
// against a populated switch is harmless.
type Bootstrap struct {
	api    sai.VlanAPI
	ports  switchapi.PortResolver
	cfg    *config.Config
	logger *slog.Logger
}

func New(api sai.VlanAPI, ports switchapi.PortResolver, cfg *config.Config) *Bootstrap {
	return &Bootstrap{
		api:    api,
		ports:  ports,
		cfg:    cfg,
		logger: logger.Get(logger.Bootstrap),
	}
}

// Provision returns the number of VLANs and members it created.
func (b *Bootstrap) Provision(ctx context.Context) (vlans, members int, err error) {
	b.logger.Info("Provisioning VLANs from config", "count", len(b.cfg.Vlans))

	for _, v := range b.cfg.Vlans {
		log := logger.WithVlan(b.logger, v.ID)

		created, err := b.createVlan(ctx, sai.VlanID(v.ID))
		if err != nil {
			return vlans, members, err
		}
		if created {
			vlans++
			log.Info("Created VLAN")
		} else {
			log.Info("VLAN already present")
		}

		for _, m := range v.Members {
			created, err := b.createMember(ctx, sai.VlanID(v.ID), m)
			if err != nil {
				return vlans, members, err
			}
			if created {
				members++
				log.Info("Added VLAN member", "port", m.Port, "tagging", m.Tagging)
			}
		}
	}

	b.logger.Info("Provisioning complete", "vlans_created", vlans, "members_created", members)
	return vlans, members, nil
}

func (b *Bootstrap) createVlan(ctx context.Context, id sai.VlanID) (bool, error) {
	err := b.api.CreateVlan(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, vlan.ErrDefaultsNotApplied):
		b.logger.Warn("VLAN created without snooping defaults", "vlan", id, "error", err)
		return true, nil
	case sai.StatusOf(err) == sai.StatusItemAlreadyExists:
		return false, nil
	}
	return false, fmt.Errorf("create vlan %d: %w", id, err)
}

func (b *Bootstrap) createMember(ctx context.Context, id sai.VlanID, m config.VlanMember) (bool, error) {
	port, err := b.ports.PortByName(m.Port)
	if err != nil {
		return false, fmt.Errorf("vlan %d member %s: %w", id, m.Port, err)
	}
	mode, err := sai.ParseTaggingMode(m.Tagging)
	if err != nil {
		return false, fmt.Errorf("vlan %d member %s: %w", id, m.Port, err)
	}

	_, err = b.api.CreateVlanMember(ctx, sai.MemberAttributes(id, sai.ObjectID(port), mode))
	if sai.StatusOf(err) == sai.StatusItemAlreadyExists {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("vlan %d member %s: %w", id, m.Port, err)
	}
	return true, nil
}
