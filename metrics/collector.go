package metrics

import (
	"context"
	"fmt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shimmeringbee/bridge/actuator"
	"github.com/shimmeringbee/bridge/actuator/serial"
	"github.com/shimmeringbee/bridge/commissioning"
	"github.com/shimmeringbee/bridge/dispatch"
	"strings"
)

const namespace = "zigbee_bridge"

var states = []commissioning.State{
	commissioning.Uninitialized,
	commissioning.Initializing,
	commissioning.Steering,
	commissioning.Joined,
	commissioning.SteeringRetryPending,
}

type Collector struct {
	state         *prometheus.GaugeVec
	retries       prometheus.Counter
	degraded      prometheus.Gauge
	commands      *prometheus.CounterVec
	receivedBytes prometheus.Counter
	overflows     prometheus.Counter
}

func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "commissioning_state",
			Help:      "Current commissioning state, 1 for the active state.",
		}, []string{"state"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steering_retries_total",
			Help:      "Network steering retries scheduled.",
		}),
		degraded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "actuator_degraded",
			Help:      "1 if the actuator backend failed to initialise.",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actuator_commands_total",
			Help:      "Actuator commands by endpoint, state and result.",
		}, []string{"endpoint", "state", "result"}),
		receivedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "serial_received_bytes_total",
			Help:      "Bytes read from the serial actuator link.",
		}),
		overflows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "serial_overflows_total",
			Help:      "Receive overflows that caused an input flush.",
		}),
	}

	reg.MustRegister(c.state, c.retries, c.degraded, c.commands, c.receivedBytes, c.overflows)
	c.setState(commissioning.Uninitialized)

	return c
}

// Run applies events from ch until it is closed or ctx is done.
func (c *Collector) Run(ctx context.Context, ch <-chan any) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}

			c.Apply(e)
		}
	}
}

func (c *Collector) Apply(event any) {
	switch e := event.(type) {
	case commissioning.StateChanged:
		c.setState(e.To)
	case commissioning.RetryScheduled:
		c.retries.Inc()
	case commissioning.BackendInitialised:
		if e.Err != nil {
			c.degraded.Set(1)
		} else {
			c.degraded.Set(0)
		}
	case dispatch.Actuated:
		result := "success"
		if e.Err != nil {
			result = "failure"
		}

		c.commands.WithLabelValues(fmt.Sprintf("%d", e.Command.Endpoint), strings.ToLower(actuator.OnOffString(e.Command.On)), result).Inc()
	case serial.Received:
		c.receivedBytes.Add(float64(len(e.Data)))
	case serial.Overflowed:
		c.overflows.Inc()
	}
}

func (c *Collector) setState(current commissioning.State) {
	for _, s := range states {
		v := 0.0
		if s == current {
			v = 1
		}

		c.state.WithLabelValues(s.String()).Set(v)
	}
}
