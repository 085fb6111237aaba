package mqtt

import (
	"context"
	"errors"
	"github.com/shimmeringbee/bridge/actuator"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/discard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"testing"
)

func connectorFor(p Publisher) Connector {
	return func(ctx context.Context) (Publisher, error) {
		return p, nil
	}
}

func TestBackend_Init(t *testing.T) {
	t.Run("returns connection failures", func(t *testing.T) {
		expectedErr := errors.New("refused")

		b := New(func(ctx context.Context) (Publisher, error) { return nil, expectedErr }, "", logwrap.New(discard.Discard()))

		err := b.Init(context.Background())
		assert.ErrorIs(t, err, expectedErr)
	})
}

func TestBackend_SetState(t *testing.T) {
	t.Run("errors if not initialised", func(t *testing.T) {
		b := New(connectorFor(nil), "", logwrap.New(discard.Discard()))

		err := b.SetState(context.Background(), 10, true)
		assert.ErrorIs(t, err, actuator.ErrNotInitialised)
	})

	t.Run("publishes the state to the endpoint topic", func(t *testing.T) {
		m := &MockPublisher{}
		defer m.AssertExpectations(t)

		m.On("Publish", mock.Anything, "/devices/zigbee-bridge/controls/ep10/on", []byte("1")).Return(nil)
		m.On("Publish", mock.Anything, "/devices/zigbee-bridge/controls/ep11/on", []byte("0")).Return(nil)

		b := New(connectorFor(m.Publish), "", logwrap.New(discard.Discard()))
		assert.NoError(t, b.Init(context.Background()))

		assert.NoError(t, b.SetState(context.Background(), 10, true))
		assert.NoError(t, b.SetState(context.Background(), 11, false))
	})

	t.Run("returns publish failures", func(t *testing.T) {
		expectedErr := errors.New("timeout")

		m := &MockPublisher{}
		defer m.AssertExpectations(t)

		m.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(expectedErr)

		b := New(connectorFor(m.Publish), "", logwrap.New(discard.Discard()))
		assert.NoError(t, b.Init(context.Background()))

		err := b.SetState(context.Background(), 10, true)
		assert.ErrorIs(t, err, expectedErr)
	})
}

func TestBackend_Topic(t *testing.T) {
	t.Run("appends the endpoint to formats without a verb", func(t *testing.T) {
		b := New(connectorFor(nil), "bridge/endpoints/", logwrap.New(discard.Discard()))

		assert.Equal(t, "bridge/endpoints/10", b.Topic(10))
	})
}
