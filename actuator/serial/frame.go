package serial

import (
	"errors"
	"github.com/shimmeringbee/bridge/actuator"
	"strconv"
)

// MaxFrameLength bounds a rendered frame, counting the terminator and a trailing NUL slot kept for
// controllers that buffer frames as C strings.
const MaxFrameLength = 32

const (
	framePrefix     = "CMD:EP"
	frameSeparator  = ':'
	frameTerminator = "\r\n"
)

var ErrFrameTooLong = errors.New("serial frame exceeds maximum length")

// Render produces the wire form of a command, e.g. "CMD:EP11:ON\r\n".
func Render(c actuator.Command) ([]byte, error) {
	return renderFrame(uint64(c.Endpoint), c.On)
}

func renderFrame(id uint64, on bool) ([]byte, error) {
	frame := make([]byte, 0, MaxFrameLength)

	frame = append(frame, framePrefix...)
	frame = strconv.AppendUint(frame, id, 10)
	frame = append(frame, frameSeparator)
	frame = append(frame, actuator.OnOffString(on)...)
	frame = append(frame, frameTerminator...)

	if len(frame)+1 > MaxFrameLength {
		return nil, ErrFrameTooLong
	}

	return frame, nil
}
