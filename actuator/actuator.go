package actuator

import (
	"context"
	"errors"
	"fmt"
	"github.com/shimmeringbee/zigbee"
)

// Backend performs the physical effect of an endpoint changing state.
type Backend interface {
	Init(ctx context.Context) error
	SetState(ctx context.Context, endpoint zigbee.Endpoint, on bool) error
}

type Command struct {
	Endpoint zigbee.Endpoint
	On       bool
}

func (c Command) String() string {
	return fmt.Sprintf("EP%d:%s", c.Endpoint, OnOffString(c.On))
}

func OnOffString(on bool) string {
	if on {
		return "ON"
	}

	return "OFF"
}

var (
	ErrNotInitialised  = errors.New("actuator backend not initialised")
	ErrUnknownEndpoint = errors.New("endpoint has no actuator")
)
