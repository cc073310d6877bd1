package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"
)

type MockClock struct {
	mock.Mock
}

type MockClock_Expecter struct {
	mock *mock.Mock
}

func NewMockClock(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClock {
	m := &MockClock{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockClock) EXPECT() *MockClock_Expecter {
	return &MockClock_Expecter{mock: &m.Mock}
}

func (m *MockClock) Now() time.Time {
	ret := m.Called()
	now, _ := ret.Get(0).(time.Time)
	return now
}

func (e *MockClock_Expecter) Now() *mock.Call {
	return e.mock.On("Now")
}
