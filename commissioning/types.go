package commissioning

import (
	"context"
	"fmt"
	"github.com/shimmeringbee/zigbee"
	"time"
)

type State uint8

const (
	Uninitialized State = iota
	Initializing
	Steering
	Joined
	SteeringRetryPending
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Initializing:
		return "Initializing"
	case Steering:
		return "Steering"
	case Joined:
		return "Joined"
	case SteeringRetryPending:
		return "SteeringRetryPending"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Signal is a lifecycle notification raised by the network stack.
type Signal uint8

const (
	SignalSkipStartup Signal = iota
	SignalFirstStart
	SignalReboot
	SignalSteering
	SignalLeave
	SignalDeviceAnnounce
)

func (s Signal) String() string {
	switch s {
	case SignalSkipStartup:
		return "SkipStartup"
	case SignalFirstStart:
		return "FirstStart"
	case SignalReboot:
		return "Reboot"
	case SignalSteering:
		return "Steering"
	case SignalLeave:
		return "Leave"
	case SignalDeviceAnnounce:
		return "DeviceAnnounce"
	default:
		return fmt.Sprintf("Signal(%d)", uint8(s))
	}
}

// Mode selects the commissioning procedure the stack should run.
type Mode uint8

const (
	ModeInitialization Mode = iota
	ModeNetworkSteering
)

func (m Mode) String() string {
	switch m {
	case ModeInitialization:
		return "Initialization"
	case ModeNetworkSteering:
		return "NetworkSteering"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

type Identity struct {
	ExtendedPANID zigbee.ExtendedPANID
	PANID         zigbee.PANID
	ShortAddress  zigbee.NetworkAddress
	Channel       uint8
}

// Stack is the part of the network stack the state machine drives.
type Stack interface {
	StartCommissioning(ctx context.Context, mode Mode) error
	// ScheduleAlarm runs fn on the stack's processing context once delay has passed.
	ScheduleAlarm(delay time.Duration, fn func(ctx context.Context))
	IsFactoryNew() bool
	Identity() Identity
}

type SignalHandler func(ctx context.Context, signal Signal, status error)

// Initialiser is the actuator backend's start up hook.
type Initialiser interface {
	Init(ctx context.Context) error
}

// Events published by the machine.

type StateChanged struct {
	From State
	To   State
}

type RetryScheduled struct {
	Signal Signal
	Status error
	Delay  time.Duration
}

type NetworkJoined struct {
	Identity Identity
}

type BackendInitialised struct {
	Err error
}
