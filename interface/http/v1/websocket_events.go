package v1

import (
	"github.com/shimmeringbee/bridge/actuator"
	"github.com/shimmeringbee/bridge/actuator/serial"
	"github.com/shimmeringbee/bridge/commissioning"
	"github.com/shimmeringbee/bridge/dispatch"
	"github.com/shimmeringbee/bridge/status"
	"github.com/shimmeringbee/zigbee"
)

type SnapshotMessage struct {
	Type     string
	Snapshot status.Snapshot
}

type StateChangedMessage struct {
	Type string
	From commissioning.State
	To   commissioning.State
}

type RetryScheduledMessage struct {
	Type   string
	Signal string
	Status string
	Delay  string
}

type JoinedMessage struct {
	Type     string
	Identity status.Identity
}

type BackendInitialisedMessage struct {
	Type  string
	Error string `json:",omitempty"`
}

type ActuatedMessage struct {
	Type     string
	Endpoint zigbee.Endpoint
	State    string
	Error    string `json:",omitempty"`
}

type SerialReceivedMessage struct {
	Type string
	Data string
}

type SerialOverflowedMessage struct {
	Type string
}

func initialMessages(provider StatusProvider) []any {
	return []any{SnapshotMessage{Type: "Snapshot", Snapshot: provider.Snapshot()}}
}

// mapEvent converts a bus event into a websocket message, events with no message are skipped.
func mapEvent(e any) (any, bool) {
	switch e := e.(type) {
	case commissioning.StateChanged:
		return StateChangedMessage{Type: "StateChanged", From: e.From, To: e.To}, true
	case commissioning.RetryScheduled:
		return RetryScheduledMessage{Type: "RetryScheduled", Signal: e.Signal.String(), Status: errorString(e.Status), Delay: e.Delay.String()}, true
	case commissioning.NetworkJoined:
		return JoinedMessage{Type: "Joined", Identity: status.NewIdentity(e.Identity)}, true
	case commissioning.BackendInitialised:
		return BackendInitialisedMessage{Type: "BackendInitialised", Error: errorString(e.Err)}, true
	case dispatch.Actuated:
		return ActuatedMessage{Type: "Actuated", Endpoint: e.Command.Endpoint, State: actuator.OnOffString(e.Command.On), Error: errorString(e.Err)}, true
	case serial.Received:
		return SerialReceivedMessage{Type: "SerialReceived", Data: string(e.Data)}, true
	case serial.Overflowed:
		return SerialOverflowedMessage{Type: "SerialOverflowed"}, true
	default:
		return nil, false
	}
}

func errorString(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}
