package stack

import (
	"context"
	"errors"
	"fmt"
	"github.com/shimmeringbee/bridge/commissioning"
	"github.com/shimmeringbee/bridge/dispatch"
	"github.com/shimmeringbee/bridge/registry"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/zcl"
	"github.com/shimmeringbee/zcl/commands/global"
	"github.com/shimmeringbee/zcl/commands/local/onoff"
	"github.com/shimmeringbee/zigbee"
	"sync"
	"time"
)

// Radio is the Zigbee radio the node runs on, satisfied by *zstack.ZStack.
type Radio interface {
	Initialise(ctx context.Context, nc zigbee.NetworkConfiguration) error
	RegisterAdapterEndpoint(ctx context.Context, endpoint zigbee.Endpoint, appProfileId zigbee.ProfileID, appDeviceId uint16, appDeviceVersion uint8, inClusters []zigbee.ClusterID, outClusters []zigbee.ClusterID) error
	ReadEvent(ctx context.Context) (interface{}, error)
	AdapterNode() zigbee.Node
	GetAdapterNetworkAddress(ctx context.Context) (zigbee.NetworkAddress, error)
	SendApplicationMessageToNode(ctx context.Context, destinationAddress zigbee.IEEEAddress, message zigbee.ApplicationMessage, requireAck bool) error
}

// BasicInformation is served from the Basic cluster of every endpoint.
type BasicInformation struct {
	Manufacturer string
	Model        string
}

const (
	InitialiseTimeout = 2 * time.Minute
	SteeringTimeout   = 10 * time.Second
)

var (
	ErrNotStarted       = errors.New("stack not started")
	ErrNoSignalHandler  = errors.New("no signal handler registered")
	ErrUnknownMode      = errors.New("unknown commissioning mode")
	ErrNotOnNetwork     = errors.New("radio is not on a network")
	ErrAlreadyStarted   = errors.New("stack already started")
	ErrEndpointsChanged = errors.New("endpoints cannot change once started")
)

var _ commissioning.Stack = (*Node)(nil)

// Node presents a Zigbee radio as a device stack. Signals, actions and alarms are all delivered
// from a single processing goroutine, in the order they were raised.
type Node struct {
	radio   Radio
	network zigbee.NetworkConfiguration
	journal Journal
	basic   BasicInformation
	logger  logwrap.Logger

	endpoints []registry.Endpoint
	onSignal  commissioning.SignalHandler
	onAction  dispatch.ActionHandler

	commands *zcl.CommandRegistry

	queueLock sync.Mutex
	queue     []func(context.Context)
	wake      chan struct{}

	ctx     context.Context
	cancel  context.CancelFunc
	workers sync.WaitGroup

	// Only touched from the processing goroutine.
	initialised bool
	registered  map[zigbee.Endpoint]bool
	up          bool
	address     *zigbee.NetworkAddress
	attributes  map[zigbee.Endpoint]bool
}

func New(radio Radio, network zigbee.NetworkConfiguration, journal Journal, basic BasicInformation, l logwrap.Logger) *Node {
	cr := zcl.NewCommandRegistry()
	global.Register(cr)
	onoff.Register(cr)

	return &Node{
		radio:      radio,
		network:    network,
		journal:    journal,
		basic:      basic,
		logger:     l,
		commands:   cr,
		wake:       make(chan struct{}, 1),
		registered: map[zigbee.Endpoint]bool{},
		attributes: map[zigbee.Endpoint]bool{},
	}
}

func (n *Node) RegisterEndpoints(eps []registry.Endpoint) error {
	if n.ctx != nil {
		return ErrEndpointsChanged
	}

	n.endpoints = append([]registry.Endpoint(nil), eps...)
	return nil
}

func (n *Node) RegisterSignalHandler(h commissioning.SignalHandler) {
	n.onSignal = h
}

func (n *Node) RegisterActionHandler(h dispatch.ActionHandler) {
	n.onAction = h
}

// Start launches the processing goroutine and raises the first lifecycle signal.
func (n *Node) Start(ctx context.Context) error {
	if n.onSignal == nil {
		return ErrNoSignalHandler
	}

	if n.ctx != nil {
		return ErrAlreadyStarted
	}

	n.ctx, n.cancel = context.WithCancel(ctx)

	n.workers.Add(1)
	go n.run()

	n.enqueue(func(ctx context.Context) {
		n.signal(ctx, commissioning.SignalSkipStartup, nil)
	})

	return nil
}

func (n *Node) Stop() {
	if n.cancel == nil {
		return
	}

	n.cancel()
	n.workers.Wait()
}

func (n *Node) StartCommissioning(ctx context.Context, mode commissioning.Mode) error {
	if n.ctx == nil {
		return ErrNotStarted
	}

	switch mode {
	case commissioning.ModeInitialization:
		n.enqueue(n.initialise)
	case commissioning.ModeNetworkSteering:
		n.enqueue(n.steer)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}

	return nil
}

// ScheduleAlarm cannot be cancelled, once scheduled fn always runs unless the node has stopped.
func (n *Node) ScheduleAlarm(delay time.Duration, fn func(ctx context.Context)) {
	time.AfterFunc(delay, func() {
		n.enqueue(fn)
	})
}

func (n *Node) IsFactoryNew() bool {
	return !n.journal.Commissioned()
}

// Identity reports the short address confirmed by the last successful steering, or the radio's
// cached address before that.
func (n *Node) Identity() commissioning.Identity {
	address := n.radio.AdapterNode().NetworkAddress
	if n.address != nil {
		address = *n.address
	}

	return commissioning.Identity{
		ExtendedPANID: n.network.ExtendedPANID,
		PANID:         n.network.PANID,
		ShortAddress:  address,
		Channel:       n.network.Channel,
	}
}

func (n *Node) enqueue(job func(context.Context)) {
	n.queueLock.Lock()
	n.queue = append(n.queue, job)
	n.queueLock.Unlock()

	select {
	case n.wake <- struct{}{}:
	default:
	}
}

func (n *Node) dequeue() func(context.Context) {
	n.queueLock.Lock()
	defer n.queueLock.Unlock()

	if len(n.queue) == 0 {
		return nil
	}

	job := n.queue[0]
	n.queue[0] = nil
	n.queue = n.queue[1:]

	return job
}

func (n *Node) run() {
	defer n.workers.Done()

	for {
		select {
		case <-n.ctx.Done():
			return
		case <-n.wake:
			for job := n.dequeue(); job != nil; job = n.dequeue() {
				if n.ctx.Err() != nil {
					return
				}

				job(n.ctx)
			}
		}
	}
}

func (n *Node) signal(ctx context.Context, s commissioning.Signal, status error) {
	n.onSignal(ctx, s, status)
}

func (n *Node) action(ctx context.Context, kind dispatch.ActionKind, message any) {
	if n.onAction == nil {
		return
	}

	if err := n.onAction(ctx, kind, message); err != nil {
		n.logger.LogWarn(ctx, "Action handler reported failure.", logwrap.Datum("kind", kind.String()), logwrap.Err(err))
	}
}
