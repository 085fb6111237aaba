package dispatch

import (
	"context"
	"errors"
	"github.com/shimmeringbee/bridge/actuator"
	"github.com/shimmeringbee/bridge/registry"
	"github.com/shimmeringbee/bridge/state"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/discard"
	"github.com/shimmeringbee/zcl"
	"github.com/shimmeringbee/zcl/commands/local/onoff"
	"github.com/shimmeringbee/zigbee"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"testing"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *actuator.MockBackend) {
	r, err := registry.New(10, [registry.Size]string{"A", "B"})
	assert.NoError(t, err)

	b := &actuator.MockBackend{}

	return New(r, b, logwrap.New(discard.Discard()), state.NullEventPublisher), b
}

func onOffEvent(ep zigbee.Endpoint, value bool) AttributeEvent {
	return AttributeEvent{Endpoint: ep, Cluster: zcl.OnOffId, Attribute: onoff.OnOff, Value: value}
}

func TestDispatcher_OnAction(t *testing.T) {
	t.Run("matching events produce exactly one backend call with the same endpoint and value", func(t *testing.T) {
		d, b := newTestDispatcher(t)
		defer b.AssertExpectations(t)

		b.On("SetState", mock.Anything, zigbee.Endpoint(11), true).Return(nil).Once()

		err := d.OnAction(context.Background(), ActionSetAttributeValue, onOffEvent(11, true))
		assert.NoError(t, err)
	})

	t.Run("preserves delivery order without coalescing", func(t *testing.T) {
		d, b := newTestDispatcher(t)
		defer b.AssertExpectations(t)

		var calls []actuator.Command

		b.On("SetState", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			calls = append(calls, actuator.Command{Endpoint: args.Get(1).(zigbee.Endpoint), On: args.Bool(2)})
		}).Return(nil)

		events := []AttributeEvent{onOffEvent(10, true), onOffEvent(10, true), onOffEvent(11, false), onOffEvent(10, false)}

		for _, e := range events {
			assert.NoError(t, d.OnAction(context.Background(), ActionSetAttributeValue, e))
		}

		assert.Equal(t, []actuator.Command{
			{Endpoint: 10, On: true},
			{Endpoint: 10, On: true},
			{Endpoint: 11, On: false},
			{Endpoint: 10, On: false},
		}, calls)
	})

	t.Run("events outside the endpoint range are dropped", func(t *testing.T) {
		d, b := newTestDispatcher(t)
		defer b.AssertExpectations(t)

		for _, ep := range []zigbee.Endpoint{0, 9, 12, 255} {
			assert.NoError(t, d.OnAction(context.Background(), ActionSetAttributeValue, onOffEvent(ep, true)))
		}

		b.AssertNotCalled(t, "SetState", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("events for other clusters or attributes are dropped", func(t *testing.T) {
		d, b := newTestDispatcher(t)
		defer b.AssertExpectations(t)

		wrongCluster := onOffEvent(10, true)
		wrongCluster.Cluster = zcl.BasicId

		wrongAttribute := onOffEvent(10, true)
		wrongAttribute.Attribute = zcl.AttributeID(0x4003)

		assert.NoError(t, d.OnAction(context.Background(), ActionSetAttributeValue, wrongCluster))
		assert.NoError(t, d.OnAction(context.Background(), ActionSetAttributeValue, wrongAttribute))

		b.AssertNotCalled(t, "SetState", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("other action kinds are acknowledged without effect", func(t *testing.T) {
		d, b := newTestDispatcher(t)
		defer b.AssertExpectations(t)

		assert.NoError(t, d.OnAction(context.Background(), ActionIdentify, nil))
		assert.NoError(t, d.OnAction(context.Background(), ActionKind(200), onOffEvent(10, true)))

		b.AssertNotCalled(t, "SetState", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unexpected messages are tolerated", func(t *testing.T) {
		d, b := newTestDispatcher(t)
		defer b.AssertExpectations(t)

		assert.NoError(t, d.OnAction(context.Background(), ActionSetAttributeValue, "nonsense"))
	})

	t.Run("backend failures are returned and published", func(t *testing.T) {
		r, _ := registry.New(10, [registry.Size]string{})
		b := &actuator.MockBackend{}
		defer b.AssertExpectations(t)

		bus := state.NewEventBus()
		ch := make(chan any, 1)
		bus.Subscribe(ch)

		d := New(r, b, logwrap.New(discard.Discard()), bus)

		expectedErr := errors.New("partial write")
		b.On("SetState", mock.Anything, zigbee.Endpoint(10), false).Return(expectedErr)

		err := d.OnAction(context.Background(), ActionSetAttributeValue, onOffEvent(10, false))
		assert.ErrorIs(t, err, expectedErr)

		assert.Equal(t, Actuated{Command: actuator.Command{Endpoint: 10, On: false}, Err: expectedErr}, <-ch)
	})
}
