package bridge

import (
	"context"
	"errors"
	"fmt"
	"github.com/shimmeringbee/bridge/actuator"
	"github.com/shimmeringbee/bridge/commissioning"
	"github.com/shimmeringbee/bridge/dispatch"
	"github.com/shimmeringbee/bridge/registry"
	"github.com/shimmeringbee/bridge/state"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/nest"
)

// Stack is the network stack the bridge runs on.
type Stack interface {
	commissioning.Stack
	RegisterEndpoints(eps []registry.Endpoint) error
	RegisterSignalHandler(h commissioning.SignalHandler)
	RegisterActionHandler(h dispatch.ActionHandler)
	Start(ctx context.Context) error
	Stop()
}

type Config struct {
	Registry  *registry.Registry
	Backend   actuator.Backend
	Stack     Stack
	Logger    logwrap.Logger
	Publisher state.EventPublisher
}

var ErrIncompleteConfig = errors.New("incomplete bridge configuration")

type Bridge struct {
	registry   *registry.Registry
	stack      Stack
	logger     logwrap.Logger
	machine    *commissioning.Machine
	dispatcher *dispatch.Dispatcher
}

func New(cfg Config) (*Bridge, error) {
	switch {
	case cfg.Registry == nil:
		return nil, fmt.Errorf("%w: no endpoint registry", ErrIncompleteConfig)
	case cfg.Backend == nil:
		return nil, fmt.Errorf("%w: no actuator backend", ErrIncompleteConfig)
	case cfg.Stack == nil:
		return nil, fmt.Errorf("%w: no network stack", ErrIncompleteConfig)
	}

	if cfg.Publisher == nil {
		cfg.Publisher = state.NullEventPublisher
	}

	cl := logwrap.New(nest.Wrap(cfg.Logger))
	cl.AddOptionsToLogger(logwrap.Source("commissioning"))

	dl := logwrap.New(nest.Wrap(cfg.Logger))
	dl.AddOptionsToLogger(logwrap.Source("dispatch"))

	return &Bridge{
		registry:   cfg.Registry,
		stack:      cfg.Stack,
		logger:     cfg.Logger,
		machine:    commissioning.New(cfg.Stack, cfg.Backend, cl, cfg.Publisher),
		dispatcher: dispatch.New(cfg.Registry, cfg.Backend, dl, cfg.Publisher),
	}, nil
}

// Start registers the endpoint table and both handlers with the stack, then starts it. All further
// progress is driven by the stack's signals.
func (b *Bridge) Start(ctx context.Context) error {
	eps := b.registry.Endpoints()

	if err := b.stack.RegisterEndpoints(eps); err != nil {
		return fmt.Errorf("failed to register endpoints: %w", err)
	}

	for _, ep := range eps {
		b.logger.LogInfo(ctx, "Endpoint configured.", logwrap.Datum("endpoint", ep.ID), logwrap.Datum("deviceType", ep.DeviceType.String()), logwrap.Datum("access", ep.Access.String()), logwrap.Datum("actuator", ep.Actuator))
	}

	b.stack.RegisterSignalHandler(b.machine.OnSignal)
	b.stack.RegisterActionHandler(b.dispatcher.OnAction)

	if err := b.stack.Start(ctx); err != nil {
		return fmt.Errorf("failed to start network stack: %w", err)
	}

	return nil
}

func (b *Bridge) Stop() {
	b.stack.Stop()
}

func (b *Bridge) State() commissioning.State {
	return b.machine.State()
}

func (b *Bridge) Machine() *commissioning.Machine {
	return b.machine
}

func (b *Bridge) Registry() *registry.Registry {
	return b.registry
}
