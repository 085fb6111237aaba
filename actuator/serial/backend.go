package serial

import (
	"context"
	"errors"
	"fmt"
	"github.com/shimmeringbee/bridge/actuator"
	"github.com/shimmeringbee/bridge/state"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/zigbee"
	bugst "go.bug.st/serial.v1"
	"io"
	"strings"
)

// Link settings expected by the downstream actuator controller, 8N1 with no flow control.
const (
	BaudRate = 115200
	DataBits = 8
)

// Port is the part of a serial port the backend uses, go.bug.st ports satisfy it.
type Port interface {
	io.ReadWriteCloser
	ResetInputBuffer() error
}

type Opener func() (Port, error)

func OpenPort(name string) Opener {
	return func() (Port, error) {
		p, err := bugst.Open(name, &bugst.Mode{
			BaudRate: BaudRate,
			DataBits: DataBits,
			Parity:   bugst.NoParity,
			StopBits: bugst.OneStopBit,
		})
		if err != nil {
			return nil, err
		}

		return p, nil
	}
}

var ErrPartialWrite = errors.New("partial write to serial port")

var _ actuator.Backend = (*Backend)(nil)

// Backend sends framed commands over a point to point serial link. Writes are only made from the
// stack's processing goroutine and reads only from the reader goroutine, so no lock guards the port.
type Backend struct {
	open      Opener
	logger    logwrap.Logger
	publisher state.EventPublisher

	port         Port
	stopReader   context.CancelFunc
	readerExited chan struct{}
}

func New(open Opener, l logwrap.Logger, p state.EventPublisher) *Backend {
	return &Backend{open: open, logger: l, publisher: p}
}

func (b *Backend) Init(ctx context.Context) error {
	if b.port != nil {
		b.logger.LogDebug(ctx, "Serial port already open, skipping initialisation.")
		return nil
	}

	port, err := b.open()
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}

	b.port = port

	readerCtx, cancel := context.WithCancel(context.Background())
	b.stopReader = cancel
	b.readerExited = make(chan struct{})

	r := Reader{Port: port, Logger: b.logger, Publisher: b.publisher}

	go func() {
		defer close(b.readerExited)
		r.Run(readerCtx)
	}()

	b.logger.LogInfo(ctx, "Serial link initialised.", logwrap.Datum("baud", BaudRate))
	return nil
}

func (b *Backend) SetState(ctx context.Context, endpoint zigbee.Endpoint, on bool) error {
	if b.port == nil {
		return actuator.ErrNotInitialised
	}

	frame, err := Render(actuator.Command{Endpoint: endpoint, On: on})
	if err != nil {
		return err
	}

	sent, err := b.port.Write(frame)
	if err != nil {
		b.logger.LogError(ctx, "Failed to send command to actuator controller.", logwrap.Err(err), logwrap.Datum("frame", printable(frame)))
		return fmt.Errorf("failed to write frame: %w", err)
	}

	if sent != len(frame) {
		b.logger.LogError(ctx, "Partial command sent to actuator controller.", logwrap.Datum("frame", printable(frame)), logwrap.Datum("sent", sent), logwrap.Datum("length", len(frame)))
		return fmt.Errorf("%w: sent %d/%d bytes", ErrPartialWrite, sent, len(frame))
	}

	b.logger.LogInfo(ctx, "Sent command to actuator controller.", logwrap.Datum("frame", printable(frame)))
	return nil
}

// Close stops the reader and releases the port.
func (b *Backend) Close() error {
	if b.port == nil {
		return nil
	}

	b.stopReader()
	err := b.port.Close()
	<-b.readerExited

	b.port = nil
	return err
}

func printable(data []byte) string {
	return strings.TrimRight(string(data), "\r\n\x00")
}
