package dispatch

import (
	"context"
	"fmt"
	"github.com/shimmeringbee/bridge/actuator"
	"github.com/shimmeringbee/bridge/registry"
	"github.com/shimmeringbee/bridge/state"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/zcl"
	"github.com/shimmeringbee/zcl/commands/local/onoff"
	"github.com/shimmeringbee/zigbee"
)

// ActionKind identifies a core callback from the network stack.
type ActionKind uint8

const (
	ActionSetAttributeValue ActionKind = iota
	ActionIdentify
	ActionReportAttribute
	ActionDefaultResponse
)

func (k ActionKind) String() string {
	switch k {
	case ActionSetAttributeValue:
		return "SetAttributeValue"
	case ActionIdentify:
		return "Identify"
	case ActionReportAttribute:
		return "ReportAttribute"
	case ActionDefaultResponse:
		return "DefaultResponse"
	default:
		return fmt.Sprintf("ActionKind(%d)", uint8(k))
	}
}

type ActionHandler func(ctx context.Context, kind ActionKind, message any) error

// AttributeEvent is an inbound write of an attribute on one of the device's endpoints.
type AttributeEvent struct {
	Endpoint  zigbee.Endpoint
	Cluster   zigbee.ClusterID
	Attribute zcl.AttributeID
	Value     bool
}

// Actuated is published after every backend call.
type Actuated struct {
	Command actuator.Command
	Err     error
}

type Dispatcher struct {
	registry  *registry.Registry
	backend   actuator.Backend
	logger    logwrap.Logger
	publisher state.EventPublisher
}

func New(r *registry.Registry, b actuator.Backend, l logwrap.Logger, p state.EventPublisher) *Dispatcher {
	if p == nil {
		p = state.NullEventPublisher
	}

	return &Dispatcher{registry: r, backend: b, logger: l, publisher: p}
}

// OnAction is called synchronously by the stack and returns once the backend has finished. Kinds
// other than attribute writes are acknowledged without effect.
func (d *Dispatcher) OnAction(ctx context.Context, kind ActionKind, message any) error {
	switch kind {
	case ActionSetAttributeValue:
		event, ok := message.(AttributeEvent)
		if !ok {
			d.logger.LogWarn(ctx, "Attribute value action carried an unexpected message.", logwrap.Datum("type", fmt.Sprintf("%T", message)))
			return nil
		}

		return d.onAttributeEvent(ctx, event)
	default:
		d.logger.LogDebug(ctx, "Unhandled stack action.", logwrap.Datum("kind", kind.String()))
		return nil
	}
}

func (d *Dispatcher) Matches(e AttributeEvent) bool {
	return d.registry.Contains(e.Endpoint) && e.Cluster == zcl.OnOffId && e.Attribute == onoff.OnOff
}

func (d *Dispatcher) onAttributeEvent(ctx context.Context, e AttributeEvent) error {
	if !d.Matches(e) {
		d.logger.LogDebug(ctx, "Ignoring attribute event.", logwrap.Datum("endpoint", e.Endpoint), logwrap.Datum("cluster", e.Cluster), logwrap.Datum("attribute", e.Attribute))
		return nil
	}

	cmd := actuator.Command{Endpoint: e.Endpoint, On: e.Value}

	err := d.backend.SetState(ctx, cmd.Endpoint, cmd.On)
	d.publisher.Publish(Actuated{Command: cmd, Err: err})

	if err != nil {
		d.logger.LogError(ctx, "Failed to actuate endpoint.", logwrap.Datum("command", cmd.String()), logwrap.Err(err))
		return fmt.Errorf("failed to actuate endpoint %d: %w", cmd.Endpoint, err)
	}

	return nil
}
