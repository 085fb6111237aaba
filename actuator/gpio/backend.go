package gpio

import (
	"context"
	"fmt"
	"github.com/shimmeringbee/bridge/actuator"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/zigbee"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
	"sort"
)

var _ actuator.Backend = (*Backend)(nil)

// Backend drives one output pin per endpoint. The mapping is fixed once resolved.
type Backend struct {
	pins    map[zigbee.Endpoint]gpio.PinOut
	resolve Resolver
	logger  logwrap.Logger
}

// Resolver produces the pin mapping when the backend is initialised.
type Resolver func() (map[zigbee.Endpoint]gpio.PinOut, error)

func New(pins map[zigbee.Endpoint]gpio.PinOut, l logwrap.Logger) *Backend {
	copied := make(map[zigbee.Endpoint]gpio.PinOut, len(pins))
	for ep, pin := range pins {
		copied[ep] = pin
	}

	return &Backend{pins: copied, logger: l}
}

// NewDeferred builds a backend whose pins are resolved by Init, so a missing driver degrades the
// bridge instead of preventing start up.
func NewDeferred(resolve Resolver, l logwrap.Logger) *Backend {
	return &Backend{resolve: resolve, logger: l}
}

// Host resolves pins by name after loading the host's GPIO drivers.
func Host(names map[zigbee.Endpoint]string) Resolver {
	return func() (map[zigbee.Endpoint]gpio.PinOut, error) {
		if _, err := host.Init(); err != nil {
			return nil, fmt.Errorf("failed to load gpio drivers: %w", err)
		}

		return ResolvePins(names)
	}
}

// ResolvePins looks up pins by name in the periph registry, host drivers must already be loaded.
func ResolvePins(names map[zigbee.Endpoint]string) (map[zigbee.Endpoint]gpio.PinOut, error) {
	pins := make(map[zigbee.Endpoint]gpio.PinOut, len(names))

	for ep, name := range names {
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, fmt.Errorf("failed to find gpio pin '%s' for endpoint %d", name, ep)
		}

		pins[ep] = pin
	}

	return pins, nil
}

// Init drives every pin low.
func (b *Backend) Init(ctx context.Context) error {
	if b.pins == nil {
		pins, err := b.resolve()
		if err != nil {
			return err
		}

		b.pins = pins
	}

	for _, ep := range b.endpoints() {
		pin := b.pins[ep]

		if err := pin.Out(gpio.Low); err != nil {
			return fmt.Errorf("failed to configure gpio pin '%s' for endpoint %d: %w", pin.Name(), ep, err)
		}

		b.logger.LogInfo(ctx, "GPIO initialised.", logwrap.Datum("pin", pin.Name()), logwrap.Datum("endpoint", ep), logwrap.Datum("state", actuator.OnOffString(false)))
	}

	return nil
}

func (b *Backend) SetState(ctx context.Context, endpoint zigbee.Endpoint, on bool) error {
	if b.pins == nil {
		return actuator.ErrNotInitialised
	}

	pin, found := b.pins[endpoint]
	if !found {
		b.logger.LogError(ctx, "Endpoint has no gpio pin.", logwrap.Datum("endpoint", endpoint))
		return fmt.Errorf("%w: %d", actuator.ErrUnknownEndpoint, endpoint)
	}

	if err := pin.Out(gpio.Level(on)); err != nil {
		b.logger.LogWarn(ctx, "GPIO write reported failure.", logwrap.Datum("pin", pin.Name()), logwrap.Err(err))
		return nil
	}

	b.logger.LogInfo(ctx, "GPIO set.", logwrap.Datum("pin", pin.Name()), logwrap.Datum("endpoint", endpoint), logwrap.Datum("state", actuator.OnOffString(on)))
	return nil
}

func (b *Backend) endpoints() []zigbee.Endpoint {
	eps := make([]zigbee.Endpoint, 0, len(b.pins))
	for ep := range b.pins {
		eps = append(eps, ep)
	}

	sort.Slice(eps, func(i, j int) bool { return eps[i] < eps[j] })
	return eps
}
