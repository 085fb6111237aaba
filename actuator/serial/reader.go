package serial

import (
	"context"
	"github.com/shimmeringbee/bridge/state"
	"github.com/shimmeringbee/logwrap"
)

// ReadBufferSize bounds a single read from the link.
const ReadBufferSize = 256

// Received is published for every chunk of data read from the link.
type Received struct {
	Data []byte
}

// Overflowed is published when the receive side was flushed.
type Overflowed struct{}

// Reader drains the receive side of the link. Inbound data is diagnostic only, nothing is parsed.
type Reader struct {
	Port      Port
	Logger    logwrap.Logger
	Publisher state.EventPublisher
}

// Run blocks until the port fails or is closed. A read that fills the buffer means the controller is
// sending faster than it is drained: the chunk is still surfaced, then the input is flushed and
// reading continues. Anything still queued in the driver at that point is lost.
func (r *Reader) Run(ctx context.Context) {
	buf := make([]byte, ReadBufferSize)

	for {
		n, err := r.Port.Read(buf)
		if err != nil {
			if ctx.Err() == nil {
				r.Logger.LogError(ctx, "Serial reader stopped.", logwrap.Err(err))
			}
			return
		}

		if n == 0 {
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		r.Logger.LogInfo(ctx, "Received from actuator controller.", logwrap.Datum("data", printable(data)))
		r.publish(Received{Data: data})

		if n == len(buf) {
			r.Logger.LogWarn(ctx, "Serial receive buffer overflow, flushing input.")

			if err := r.Port.ResetInputBuffer(); err != nil {
				r.Logger.LogError(ctx, "Failed to flush serial input.", logwrap.Err(err))
			}

			r.publish(Overflowed{})
		}
	}
}

func (r *Reader) publish(e any) {
	if r.Publisher != nil {
		r.Publisher.Publish(e)
	}
}
