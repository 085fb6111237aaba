package actuator

import (
	"context"
	"github.com/shimmeringbee/zigbee"
	"github.com/stretchr/testify/mock"
)

var _ Backend = (*MockBackend)(nil)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Init(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockBackend) SetState(ctx context.Context, endpoint zigbee.Endpoint, on bool) error {
	args := m.Called(ctx, endpoint, on)
	return args.Error(0)
}
