package serial

import (
	"github.com/shimmeringbee/bridge/actuator"
	"github.com/stretchr/testify/assert"
	"math"
	"testing"
)

func TestRender(t *testing.T) {
	t.Run("renders an on command", func(t *testing.T) {
		frame, err := Render(actuator.Command{Endpoint: 11, On: true})
		assert.NoError(t, err)
		assert.Equal(t, "CMD:EP11:ON\r\n", string(frame))
	})

	t.Run("renders an off command", func(t *testing.T) {
		frame, err := Render(actuator.Command{Endpoint: 10, On: false})
		assert.NoError(t, err)
		assert.Equal(t, "CMD:EP10:OFF\r\n", string(frame))
	})

	t.Run("renders endpoint ids without leading zeros", func(t *testing.T) {
		frame, err := Render(actuator.Command{Endpoint: 1, On: true})
		assert.NoError(t, err)
		assert.Equal(t, "CMD:EP1:ON\r\n", string(frame))
	})

	t.Run("largest endpoint fits within the bound", func(t *testing.T) {
		frame, err := Render(actuator.Command{Endpoint: 255, On: false})
		assert.NoError(t, err)
		assert.Less(t, len(frame), MaxFrameLength)
	})

	t.Run("refuses frames that would exceed the bound", func(t *testing.T) {
		_, err := renderFrame(math.MaxUint64, false)
		assert.ErrorIs(t, err, ErrFrameTooLong)
	})
}
