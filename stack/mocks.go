package stack

import (
	"context"
	"github.com/shimmeringbee/zigbee"
	"github.com/stretchr/testify/mock"
)

var _ Radio = (*MockRadio)(nil)

type MockRadio struct {
	mock.Mock
}

func (m *MockRadio) Initialise(ctx context.Context, nc zigbee.NetworkConfiguration) error {
	args := m.Called(ctx, nc)
	return args.Error(0)
}

func (m *MockRadio) RegisterAdapterEndpoint(ctx context.Context, endpoint zigbee.Endpoint, appProfileId zigbee.ProfileID, appDeviceId uint16, appDeviceVersion uint8, inClusters []zigbee.ClusterID, outClusters []zigbee.ClusterID) error {
	args := m.Called(ctx, endpoint, appProfileId, appDeviceId, appDeviceVersion, inClusters, outClusters)
	return args.Error(0)
}

func (m *MockRadio) ReadEvent(ctx context.Context) (interface{}, error) {
	args := m.Called(ctx)
	return args.Get(0), args.Error(1)
}

func (m *MockRadio) AdapterNode() zigbee.Node {
	args := m.Called()
	return args.Get(0).(zigbee.Node)
}

func (m *MockRadio) GetAdapterNetworkAddress(ctx context.Context) (zigbee.NetworkAddress, error) {
	args := m.Called(ctx)
	return args.Get(0).(zigbee.NetworkAddress), args.Error(1)
}

func (m *MockRadio) SendApplicationMessageToNode(ctx context.Context, destinationAddress zigbee.IEEEAddress, message zigbee.ApplicationMessage, requireAck bool) error {
	args := m.Called(ctx, destinationAddress, message, requireAck)
	return args.Error(0)
}
