package status

import (
	"context"
	"fmt"
	"github.com/shimmeringbee/bridge/actuator/serial"
	"github.com/shimmeringbee/bridge/commissioning"
	"github.com/shimmeringbee/bridge/dispatch"
	"github.com/shimmeringbee/bridge/registry"
	"github.com/shimmeringbee/zigbee"
	"sync"
	"time"
)

type Identity struct {
	ExtendedPANID string
	PANID         string
	ShortAddress  string
	Channel       uint8
}

type Endpoint struct {
	ID         zigbee.Endpoint
	DeviceType string
	Access     string
	Actuator   string
	On         *bool      `json:",omitempty"`
	LastChange *time.Time `json:",omitempty"`
	LastError  string     `json:",omitempty"`
	Commands   uint64
	Failures   uint64
}

type Snapshot struct {
	State        commissioning.State
	Identity     *Identity `json:",omitempty"`
	Retries      uint64
	Degraded     bool
	BackendError string `json:",omitempty"`
	Endpoints    []Endpoint
	LastReceived string `json:",omitempty"`
	Overflows    uint64
}

// Tracker folds bus events into the bridge's current status.
type Tracker struct {
	lock     sync.RWMutex
	snapshot Snapshot
	now      func() time.Time
}

// NewIdentity renders a network identity the way it is logged.
func NewIdentity(id commissioning.Identity) Identity {
	return Identity{
		ExtendedPANID: fmt.Sprintf("%016x", uint64(id.ExtendedPANID)),
		PANID:         fmt.Sprintf("0x%04x", uint16(id.PANID)),
		ShortAddress:  fmt.Sprintf("0x%04x", uint16(id.ShortAddress)),
		Channel:       id.Channel,
	}
}

func NewTracker(r *registry.Registry) *Tracker {
	t := &Tracker{now: time.Now}

	for _, ep := range r.Endpoints() {
		t.snapshot.Endpoints = append(t.snapshot.Endpoints, Endpoint{
			ID:         ep.ID,
			DeviceType: ep.DeviceType.String(),
			Access:     ep.Access.String(),
			Actuator:   ep.Actuator,
		})
	}

	return t
}

// Run applies events from ch until it is closed or ctx is done.
func (t *Tracker) Run(ctx context.Context, ch <-chan any) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}

			t.Apply(e)
		}
	}
}

func (t *Tracker) Apply(event any) {
	t.lock.Lock()
	defer t.lock.Unlock()

	switch e := event.(type) {
	case commissioning.StateChanged:
		t.snapshot.State = e.To
	case commissioning.RetryScheduled:
		t.snapshot.Retries++
	case commissioning.NetworkJoined:
		id := NewIdentity(e.Identity)
		t.snapshot.Identity = &id
	case commissioning.BackendInitialised:
		t.snapshot.Degraded = e.Err != nil
		t.snapshot.BackendError = errorString(e.Err)
	case dispatch.Actuated:
		t.applyActuated(e)
	case serial.Received:
		t.snapshot.LastReceived = string(e.Data)
	case serial.Overflowed:
		t.snapshot.Overflows++
	}
}

func (t *Tracker) applyActuated(e dispatch.Actuated) {
	for i := range t.snapshot.Endpoints {
		ep := &t.snapshot.Endpoints[i]
		if ep.ID != e.Command.Endpoint {
			continue
		}

		ep.Commands++
		ep.LastError = errorString(e.Err)

		if e.Err != nil {
			ep.Failures++
			return
		}

		on := e.Command.On
		now := t.now()
		ep.On = &on
		ep.LastChange = &now
		return
	}
}

func (t *Tracker) Snapshot() Snapshot {
	t.lock.RLock()
	defer t.lock.RUnlock()

	s := t.snapshot
	s.Endpoints = append([]Endpoint(nil), t.snapshot.Endpoints...)

	if t.snapshot.Identity != nil {
		id := *t.snapshot.Identity
		s.Identity = &id
	}

	return s
}

func (t *Tracker) Endpoint(id zigbee.Endpoint) (Endpoint, bool) {
	for _, ep := range t.Snapshot().Endpoints {
		if ep.ID == id {
			return ep, true
		}
	}

	return Endpoint{}, false
}

func errorString(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}
