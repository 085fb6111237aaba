package stack

import (
	"context"
	"fmt"
	"github.com/shimmeringbee/bridge/dispatch"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/zcl"
	"github.com/shimmeringbee/zcl/commands/global"
	"github.com/shimmeringbee/zcl/commands/local/onoff"
	"github.com/shimmeringbee/zigbee"
)

const (
	manufacturerNameAttribute = zcl.AttributeID(0x0004)
	modelIdentifierAttribute  = zcl.AttributeID(0x0005)

	statusSuccess              = uint8(0x00)
	statusUnsupportedAttribute = uint8(0x86)
)

func (n *Node) handleIncoming(ctx context.Context, e zigbee.NodeIncomingMessageEvent) {
	appMsg := e.IncomingMessage.ApplicationMessage
	ep := appMsg.DestinationEndpoint

	if !n.hosts(ep) {
		n.logger.LogDebug(ctx, "Dropping message for endpoint not hosted.", logwrap.Datum("endpoint", ep), logwrap.Datum("cluster", appMsg.ClusterID))
		return
	}

	if appMsg.ClusterID == zcl.IdentifyId {
		n.action(ctx, dispatch.ActionIdentify, appMsg)
		return
	}

	msg, err := n.commands.Unmarshal(appMsg)
	if err != nil {
		n.logger.LogDebug(ctx, "Failed to decode ZCL message.", logwrap.Datum("cluster", appMsg.ClusterID), logwrap.Err(err))
		return
	}

	switch appMsg.ClusterID {
	case zcl.OnOffId:
		n.handleOnOff(ctx, e, msg)
	case zcl.BasicId:
		if read, ok := readAttributes(msg.Command); ok {
			n.respond(ctx, e, msg, n.basicRecords(read))
		}
	default:
		n.logger.LogDebug(ctx, "Ignoring message for unhandled cluster.", logwrap.Datum("cluster", appMsg.ClusterID))
	}
}

func (n *Node) hosts(ep zigbee.Endpoint) bool {
	for _, e := range n.endpoints {
		if e.ID == ep {
			return true
		}
	}

	return false
}

func (n *Node) handleOnOff(ctx context.Context, e zigbee.NodeIncomingMessageEvent, msg zcl.Message) {
	ep := msg.DestinationEndpoint

	switch cmd := msg.Command.(type) {
	case *onoff.On, onoff.On:
		n.setOnOff(ctx, ep, true)
	case *onoff.Off, onoff.Off:
		n.setOnOff(ctx, ep, false)
	case *onoff.Toggle, onoff.Toggle:
		n.setOnOff(ctx, ep, !n.attributes[ep])
	case *global.WriteAttributes:
		n.writeOnOff(ctx, ep, cmd.Records)
	case global.WriteAttributes:
		n.writeOnOff(ctx, ep, cmd.Records)
	default:
		if read, ok := readAttributes(msg.Command); ok {
			n.respond(ctx, e, msg, n.onOffRecords(ep, read))
			return
		}

		n.logger.LogDebug(ctx, "Ignoring unhandled On/Off command.", logwrap.Datum("command", fmt.Sprintf("%T", msg.Command)))
	}
}

func (n *Node) writeOnOff(ctx context.Context, ep zigbee.Endpoint, records []global.WriteAttributesRecord) {
	for _, r := range records {
		if r.Identifier != onoff.OnOff || r.DataTypeValue == nil || r.DataTypeValue.DataType != zcl.TypeBoolean {
			continue
		}

		if value, ok := r.DataTypeValue.Value.(bool); ok {
			n.setOnOff(ctx, ep, value)
		}
	}
}

// setOnOff stores the attribute and hands it to the action handler, the stored value is kept even if
// actuation fails.
func (n *Node) setOnOff(ctx context.Context, ep zigbee.Endpoint, value bool) {
	n.attributes[ep] = value

	n.action(ctx, dispatch.ActionSetAttributeValue, dispatch.AttributeEvent{
		Endpoint:  ep,
		Cluster:   zcl.OnOffId,
		Attribute: onoff.OnOff,
		Value:     value,
	})
}

func readAttributes(command interface{}) ([]zcl.AttributeID, bool) {
	switch cmd := command.(type) {
	case *global.ReadAttributes:
		return cmd.Identifier, true
	case global.ReadAttributes:
		return cmd.Identifier, true
	default:
		return nil, false
	}
}

func (n *Node) onOffRecords(ep zigbee.Endpoint, ids []zcl.AttributeID) []global.ReadAttributeResponseRecord {
	var records []global.ReadAttributeResponseRecord

	for _, id := range ids {
		if id == onoff.OnOff {
			records = append(records, supported(id, zcl.TypeBoolean, n.attributes[ep]))
		} else {
			records = append(records, unsupported(id))
		}
	}

	return records
}

func (n *Node) basicRecords(ids []zcl.AttributeID) []global.ReadAttributeResponseRecord {
	var records []global.ReadAttributeResponseRecord

	for _, id := range ids {
		switch id {
		case manufacturerNameAttribute:
			records = append(records, supported(id, zcl.TypeStringCharacter8, n.basic.Manufacturer))
		case modelIdentifierAttribute:
			records = append(records, supported(id, zcl.TypeStringCharacter8, n.basic.Model))
		default:
			records = append(records, unsupported(id))
		}
	}

	return records
}

func supported(id zcl.AttributeID, dt zcl.AttributeDataType, value interface{}) global.ReadAttributeResponseRecord {
	return global.ReadAttributeResponseRecord{
		Identifier:    id,
		Status:        statusSuccess,
		DataTypeValue: &zcl.AttributeDataTypeValue{DataType: dt, Value: value},
	}
}

func unsupported(id zcl.AttributeID) global.ReadAttributeResponseRecord {
	return global.ReadAttributeResponseRecord{Identifier: id, Status: statusUnsupportedAttribute}
}

func (n *Node) respond(ctx context.Context, e zigbee.NodeIncomingMessageEvent, request zcl.Message, records []global.ReadAttributeResponseRecord) {
	appMsg, err := n.commands.Marshal(zcl.Message{
		FrameType:           zcl.FrameGlobal,
		Direction:           zcl.ServerToClient,
		TransactionSequence: request.TransactionSequence,
		ClusterID:           request.ClusterID,
		SourceEndpoint:      request.DestinationEndpoint,
		DestinationEndpoint: request.SourceEndpoint,
		CommandIdentifier:   global.ReadAttributesResponseID,
		Command:             &global.ReadAttributesResponse{Records: records},
	})
	if err != nil {
		n.logger.LogError(ctx, "Failed to encode read attributes response.", logwrap.Err(err))
		return
	}

	if err := n.radio.SendApplicationMessageToNode(ctx, e.Node.IEEEAddress, appMsg, false); err != nil {
		n.logger.LogWarn(ctx, "Failed to send read attributes response.", logwrap.Datum("destination", e.Node.IEEEAddress.String()), logwrap.Err(err))
	}
}
