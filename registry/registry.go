package registry

import (
	"errors"
	"fmt"
	"github.com/shimmeringbee/zigbee"
)

// Size is the number of endpoints the bridge exposes.
const Size = 2

// Home Automation device identifiers.
type DeviceType uint16

const (
	OnOffLight  DeviceType = 0x0100
	OnOffOutput DeviceType = 0x0002
)

func (d DeviceType) String() string {
	switch d {
	case OnOffLight:
		return "OnOffLight"
	case OnOffOutput:
		return "OnOffOutput"
	default:
		return fmt.Sprintf("DeviceType(0x%04x)", uint16(d))
	}
}

type Access uint8

const (
	ReadWrite Access = iota
	WriteOnly
)

func (a Access) String() string {
	switch a {
	case ReadWrite:
		return "ReadWrite"
	case WriteOnly:
		return "WriteOnly"
	default:
		return fmt.Sprintf("Access(%d)", uint8(a))
	}
}

type Endpoint struct {
	ID         zigbee.Endpoint
	DeviceType DeviceType
	Access     Access
	Actuator   string
}

var ErrInvalidBase = errors.New("invalid base endpoint")

// Endpoints 1 to 240 are available to applications.
const maximumEndpoint = zigbee.Endpoint(240)

type Registry struct {
	endpoints [Size]Endpoint
}

// New builds the endpoint table: the light at base, the output at base+1. Actuator descriptors are
// recorded against the endpoints in the same order.
func New(base zigbee.Endpoint, actuators [Size]string) (*Registry, error) {
	if base == 0 || base+Size-1 > maximumEndpoint || base+Size-1 < base {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBase, base)
	}

	return &Registry{
		endpoints: [Size]Endpoint{
			{ID: base, DeviceType: OnOffLight, Access: ReadWrite, Actuator: actuators[0]},
			{ID: base + 1, DeviceType: OnOffOutput, Access: ReadWrite, Actuator: actuators[1]},
		},
	}, nil
}

func (r *Registry) Base() zigbee.Endpoint {
	return r.endpoints[0].ID
}

func (r *Registry) Endpoints() []Endpoint {
	out := make([]Endpoint, Size)
	copy(out, r.endpoints[:])
	return out
}

func (r *Registry) Lookup(id zigbee.Endpoint) (Endpoint, bool) {
	for _, ep := range r.endpoints {
		if ep.ID == id {
			return ep, true
		}
	}

	return Endpoint{}, false
}

func (r *Registry) Contains(id zigbee.Endpoint) bool {
	return id >= r.Base() && id <= r.endpoints[Size-1].ID
}
