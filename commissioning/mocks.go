package commissioning

import (
	"context"
	"github.com/stretchr/testify/mock"
	"time"
)

var _ Stack = (*MockStack)(nil)

type MockStack struct {
	mock.Mock
}

func (m *MockStack) StartCommissioning(ctx context.Context, mode Mode) error {
	args := m.Called(ctx, mode)
	return args.Error(0)
}

func (m *MockStack) ScheduleAlarm(delay time.Duration, fn func(ctx context.Context)) {
	m.Called(delay, fn)
}

func (m *MockStack) IsFactoryNew() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockStack) Identity() Identity {
	args := m.Called()
	return args.Get(0).(Identity)
}

var _ Initialiser = (*MockInitialiser)(nil)

type MockInitialiser struct {
	mock.Mock
}

func (m *MockInitialiser) Init(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
