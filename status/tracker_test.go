package status

import (
	"context"
	"errors"
	"github.com/shimmeringbee/bridge/actuator"
	"github.com/shimmeringbee/bridge/actuator/serial"
	"github.com/shimmeringbee/bridge/commissioning"
	"github.com/shimmeringbee/bridge/dispatch"
	"github.com/shimmeringbee/bridge/registry"
	"github.com/shimmeringbee/bridge/state"
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func newTestTracker(t *testing.T) *Tracker {
	r, err := registry.New(10, [registry.Size]string{"pin3", "pin4"})
	assert.NoError(t, err)

	tr := NewTracker(r)
	tr.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

	return tr
}

func TestTracker(t *testing.T) {
	t.Run("starts with the registry's endpoints and no state", func(t *testing.T) {
		tr := newTestTracker(t)

		s := tr.Snapshot()
		assert.Equal(t, commissioning.Uninitialized, s.State)
		assert.Nil(t, s.Identity)
		assert.Len(t, s.Endpoints, 2)
		assert.Equal(t, "OnOffLight", s.Endpoints[0].DeviceType)
		assert.Equal(t, "pin4", s.Endpoints[1].Actuator)
		assert.Nil(t, s.Endpoints[0].On)
	})

	t.Run("follows commissioning progress", func(t *testing.T) {
		tr := newTestTracker(t)

		tr.Apply(commissioning.StateChanged{From: commissioning.Steering, To: commissioning.SteeringRetryPending})
		tr.Apply(commissioning.RetryScheduled{Signal: commissioning.SignalSteering, Delay: commissioning.RetryDelay})
		tr.Apply(commissioning.NetworkJoined{Identity: commissioning.Identity{ExtendedPANID: 0xa1b2c3d4e5f60708, PANID: 0x1a62, ShortAddress: 0x0f01, Channel: 20}})
		tr.Apply(commissioning.StateChanged{From: commissioning.SteeringRetryPending, To: commissioning.Joined})

		s := tr.Snapshot()
		assert.Equal(t, commissioning.Joined, s.State)
		assert.Equal(t, uint64(1), s.Retries)
		assert.Equal(t, &Identity{ExtendedPANID: "a1b2c3d4e5f60708", PANID: "0x1a62", ShortAddress: "0x0f01", Channel: 20}, s.Identity)
	})

	t.Run("records backend degradation", func(t *testing.T) {
		tr := newTestTracker(t)

		tr.Apply(commissioning.BackendInitialised{Err: errors.New("no such port")})

		s := tr.Snapshot()
		assert.True(t, s.Degraded)
		assert.Equal(t, "no such port", s.BackendError)
	})

	t.Run("records the last commanded state per endpoint", func(t *testing.T) {
		tr := newTestTracker(t)

		tr.Apply(dispatch.Actuated{Command: actuator.Command{Endpoint: 11, On: true}})
		tr.Apply(dispatch.Actuated{Command: actuator.Command{Endpoint: 11, On: false}, Err: errors.New("short write")})

		ep, found := tr.Endpoint(11)
		assert.True(t, found)
		assert.Equal(t, uint64(2), ep.Commands)
		assert.Equal(t, uint64(1), ep.Failures)
		assert.Equal(t, "short write", ep.LastError)
		assert.True(t, *ep.On)

		other, _ := tr.Endpoint(10)
		assert.Nil(t, other.On)
	})

	t.Run("records serial diagnostics", func(t *testing.T) {
		tr := newTestTracker(t)

		tr.Apply(serial.Received{Data: []byte("OK\r\n")})
		tr.Apply(serial.Overflowed{})

		s := tr.Snapshot()
		assert.Equal(t, "OK\r\n", s.LastReceived)
		assert.Equal(t, uint64(1), s.Overflows)
	})

	t.Run("runs from an event bus until cancelled", func(t *testing.T) {
		tr := newTestTracker(t)
		eb := state.NewEventBus()

		ch := make(chan any, 10)
		eb.Subscribe(ch)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})

		go func() {
			tr.Run(ctx, ch)
			close(done)
		}()

		eb.Publish(commissioning.StateChanged{To: commissioning.Initializing})

		assert.Eventually(t, func() bool {
			return tr.Snapshot().State == commissioning.Initializing
		}, time.Second, 5*time.Millisecond)

		cancel()
		<-done
	})
}
