package stack

import (
	"context"
	"fmt"
	"github.com/shimmeringbee/bridge/commissioning"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/zcl"
	"github.com/shimmeringbee/zigbee"
)

const (
	homeAutomationProfile = zigbee.ProfileID(0x0104)
	deviceVersion         = uint8(1)
)

var serverClusters = []zigbee.ClusterID{zcl.BasicId, zcl.IdentifyId, zcl.OnOffId}

func (n *Node) initialise(ctx context.Context) {
	s := commissioning.SignalReboot
	if n.IsFactoryNew() {
		s = commissioning.SignalFirstStart
	}

	n.signal(ctx, s, n.bringUp(ctx))
}

// steer confirms the radio is attached to its network and records the commissioning. The radio is
// brought up first if initialisation had failed. The Z-Stack adapter forms the configured network as
// its coordinator, so attachment is confirmed by the radio answering a live address query.
func (n *Node) steer(ctx context.Context) {
	n.signal(ctx, commissioning.SignalSteering, n.confirmNetwork(ctx))
}

// bringUp initialises the radio once and registers any endpoint not yet registered, a failure part
// way through resumes from the failed endpoint on the next attempt.
func (n *Node) bringUp(ctx context.Context) error {
	if n.up {
		return nil
	}

	initCtx, cancel := context.WithTimeout(ctx, InitialiseTimeout)
	defer cancel()

	if !n.initialised {
		if err := n.radio.Initialise(initCtx, n.network); err != nil {
			return fmt.Errorf("failed to initialise radio: %w", err)
		}

		n.initialised = true
	}

	for _, ep := range n.endpoints {
		if n.registered[ep.ID] {
			continue
		}

		if err := n.radio.RegisterAdapterEndpoint(initCtx, ep.ID, homeAutomationProfile, uint16(ep.DeviceType), deviceVersion, serverClusters, nil); err != nil {
			return fmt.Errorf("failed to register endpoint %d: %w", ep.ID, err)
		}

		n.registered[ep.ID] = true
		n.logger.LogInfo(ctx, "Registered endpoint.", logwrap.Datum("endpoint", ep.ID), logwrap.Datum("deviceType", ep.DeviceType.String()))
	}

	n.up = true

	n.workers.Add(1)
	go n.readEvents()

	return nil
}

func (n *Node) confirmNetwork(ctx context.Context) error {
	if err := n.bringUp(ctx); err != nil {
		return err
	}

	if n.radio.AdapterNode().IEEEAddress == 0 {
		return ErrNotOnNetwork
	}

	steerCtx, cancel := context.WithTimeout(ctx, SteeringTimeout)
	defer cancel()

	address, err := n.radio.GetAdapterNetworkAddress(steerCtx)
	if err != nil {
		return fmt.Errorf("%w: radio did not confirm its network address: %v", ErrNotOnNetwork, err)
	}

	n.address = &address

	if err := n.journal.Record(n.Identity()); err != nil {
		return fmt.Errorf("failed to record commissioning: %w", err)
	}

	return nil
}

func (n *Node) readEvents() {
	defer n.workers.Done()

	for {
		event, err := n.radio.ReadEvent(n.ctx)
		if err != nil {
			if n.ctx.Err() == nil {
				n.logger.LogError(n.ctx, "Failed to read event from radio, no further messages will be received.", logwrap.Err(err))
			}
			return
		}

		switch e := event.(type) {
		case zigbee.NodeIncomingMessageEvent:
			n.enqueue(func(ctx context.Context) {
				n.handleIncoming(ctx, e)
			})
		default:
			n.logger.LogDebug(n.ctx, "Ignoring radio event.", logwrap.Datum("type", fmt.Sprintf("%T", event)))
		}
	}
}
