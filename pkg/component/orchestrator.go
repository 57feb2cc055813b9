package component

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/veesix-networks/osvlan/pkg/logger"
)

// Orchestrator starts components in registration order and stops them in
// reverse.
type Orchestrator struct {
	mu      sync.Mutex
	comps   []Component
	running []Component
}

func NewOrchestrator() *Orchestrator {
	return &Orchestrator{}
}

func (o *Orchestrator) Register(comp Component) {
	o.mu.Lock()
	o.comps = append(o.comps, comp)
	o.mu.Unlock()
}

// Start stops whatever already started when a later component fails.
// Calling Start again only starts the components registered since.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	log := logger.Get(logger.Main)
	for _, comp := range o.comps[len(o.running):] {
		if err := comp.Start(ctx); err != nil {
			startErr := fmt.Errorf("start %s: %w", comp.Name(), err)
			return errors.Join(startErr, o.stopRunning(ctx))
		}
		log.Debug("Component started", "name", comp.Name())
		o.running = append(o.running, comp)
	}
	return nil
}

func (o *Orchestrator) Stop(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stopRunning(ctx)
}

func (o *Orchestrator) stopRunning(ctx context.Context) error {
	var errs []error
	for i := len(o.running) - 1; i >= 0; i-- {
		if err := o.running[i].Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", o.running[i].Name(), err))
		}
	}
	o.running = nil
	return errors.Join(errs...)
}
