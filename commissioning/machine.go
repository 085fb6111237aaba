package commissioning

import (
	"context"
	"fmt"
	"github.com/shimmeringbee/bridge/state"
	"github.com/shimmeringbee/logwrap"
	"sync"
	"time"
)

// RetryDelay is the fixed pause before network steering is attempted again. Retries are unbounded and
// never back off: the device is always powered and has no other purpose than to join.
const RetryDelay = 1000 * time.Millisecond

type effect uint8

const (
	effectInitialise effect = 1 << iota
	effectInitialiseBackend
	effectStartSteering
	effectScheduleRetry
	effectLogIdentity
)

func (e effect) has(o effect) bool {
	return e&o == o
}

// transition is the whole state table. factoryNew is only meaningful for a successful start up,
// backendReady reports whether the actuator backend has been initialised successfully.
func transition(current State, signal Signal, status error, factoryNew bool, backendReady bool) (State, effect) {
	switch signal {
	case SignalSkipStartup:
		return Initializing, effectInitialise

	case SignalFirstStart, SignalReboot:
		if status != nil {
			return SteeringRetryPending, effectScheduleRetry
		}

		if factoryNew {
			return Steering, effectInitialiseBackend | effectStartSteering
		}

		return Joined, effectInitialiseBackend

	case SignalSteering:
		if status != nil {
			return SteeringRetryPending, effectScheduleRetry
		}

		if !backendReady {
			return Joined, effectInitialiseBackend | effectLogIdentity
		}

		return Joined, effectLogIdentity

	default:
		return current, 0
	}
}

type Machine struct {
	stack     Stack
	backend   Initialiser
	logger    logwrap.Logger
	publisher state.EventPublisher

	lock         sync.RWMutex
	state        State
	retries      uint64
	degraded     bool
	backendReady bool
}

func New(stack Stack, backend Initialiser, l logwrap.Logger, p state.EventPublisher) *Machine {
	if p == nil {
		p = state.NullEventPublisher
	}

	return &Machine{stack: stack, backend: backend, logger: l, publisher: p}
}

func (m *Machine) State() State {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.state
}

// Retries is the number of steering retries scheduled so far.
func (m *Machine) Retries() uint64 {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.retries
}

// Degraded reports whether the actuator backend failed to initialise.
func (m *Machine) Degraded() bool {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.degraded
}

// OnSignal must be called from the stack's processing context.
func (m *Machine) OnSignal(ctx context.Context, signal Signal, status error) {
	current := m.State()

	factoryNew := false
	if (signal == SignalFirstStart || signal == SignalReboot) && status == nil {
		factoryNew = m.stack.IsFactoryNew()
	}

	m.lock.RLock()
	backendReady := m.backendReady
	m.lock.RUnlock()

	next, effects := transition(current, signal, status, factoryNew, backendReady)

	if effects == 0 {
		m.logger.LogInfo(ctx, "Stack signal.", logwrap.Datum("signal", signal.String()), logwrap.Datum("status", statusString(status)))
	}

	if effects.has(effectInitialise) {
		m.logger.LogInfo(ctx, "Initialising network stack.")
		m.startCommissioning(ctx, ModeInitialization)
	}

	if effects.has(effectInitialiseBackend) {
		m.initialiseBackend(ctx)
	}

	if (signal == SignalFirstStart || signal == SignalReboot) && status == nil {
		if factoryNew {
			m.logger.LogInfo(ctx, "Device started up in factory-reset mode, starting network steering.", logwrap.Datum("signal", signal.String()))
		} else {
			m.logger.LogInfo(ctx, "Device started up in non factory-reset mode, already commissioned.", logwrap.Datum("signal", signal.String()))
		}
	}

	if effects.has(effectStartSteering) {
		m.startCommissioning(ctx, ModeNetworkSteering)
	}

	if effects.has(effectScheduleRetry) {
		m.scheduleRetry(ctx, signal, status)
	}

	if effects.has(effectLogIdentity) {
		id := m.stack.Identity()

		m.logger.LogInfo(ctx, "Joined network successfully.",
			logwrap.Datum("extendedPanId", fmt.Sprintf("%016x", uint64(id.ExtendedPANID))),
			logwrap.Datum("panId", fmt.Sprintf("0x%04x", uint16(id.PANID))),
			logwrap.Datum("channel", id.Channel),
			logwrap.Datum("shortAddress", fmt.Sprintf("0x%04x", uint16(id.ShortAddress))))

		m.publisher.Publish(NetworkJoined{Identity: id})
	}

	m.setState(ctx, next)
}

func (m *Machine) setState(ctx context.Context, next State) {
	m.lock.Lock()
	previous := m.state
	m.state = next
	m.lock.Unlock()

	if previous != next {
		m.logger.LogDebug(ctx, "Commissioning state changed.", logwrap.Datum("from", previous.String()), logwrap.Datum("to", next.String()))
		m.publisher.Publish(StateChanged{From: previous, To: next})
	}
}

func (m *Machine) initialiseBackend(ctx context.Context) {
	err := m.backend.Init(ctx)

	m.lock.Lock()
	m.degraded = err != nil
	m.backendReady = err == nil
	m.lock.Unlock()

	if err != nil {
		m.logger.LogError(ctx, "Deferred actuator initialisation failed, continuing without actuation.", logwrap.Err(err))
	} else {
		m.logger.LogInfo(ctx, "Deferred actuator initialisation succeeded.")
	}

	m.publisher.Publish(BackendInitialised{Err: err})
}

func (m *Machine) scheduleRetry(ctx context.Context, signal Signal, status error) {
	m.lock.Lock()
	m.retries++
	m.lock.Unlock()

	m.logger.LogWarn(ctx, "Network commissioning failed, retrying network steering.", logwrap.Datum("signal", signal.String()), logwrap.Err(status), logwrap.Datum("retryAfter", RetryDelay.String()))

	m.stack.ScheduleAlarm(RetryDelay, func(ctx context.Context) {
		m.startCommissioning(ctx, ModeNetworkSteering)
	})

	m.publisher.Publish(RetryScheduled{Signal: signal, Status: status, Delay: RetryDelay})
}

func (m *Machine) startCommissioning(ctx context.Context, mode Mode) {
	if err := m.stack.StartCommissioning(ctx, mode); err != nil {
		m.logger.LogError(ctx, "Failed to start commissioning.", logwrap.Datum("mode", mode.String()), logwrap.Err(err))
	}
}

func statusString(err error) string {
	if err == nil {
		return "OK"
	}

	return err.Error()
}
