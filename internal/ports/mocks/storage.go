// Package mocks holds testify mocks of the ports interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

type MockStorage_Expecter struct {
	mock *mock.Mock
}

func NewMockStorage(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStorage {
	m := &MockStorage{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockStorage) EXPECT() *MockStorage_Expecter {
	return &MockStorage_Expecter{mock: &m.Mock}
}

func (m *MockStorage) Get(ctx context.Context, key string) (string, error) {
	ret := m.Called(ctx, key)
	return ret.String(0), ret.Error(1)
}

func (m *MockStorage) Put(ctx context.Context, key string, value string) error {
	ret := m.Called(ctx, key, value)
	return ret.Error(0)
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	ret := m.Called(ctx, key)
	return ret.Error(0)
}

func (e *MockStorage_Expecter) Get(ctx interface{}, key interface{}) *mock.Call {
	return e.mock.On("Get", ctx, key)
}

func (e *MockStorage_Expecter) Put(ctx interface{}, key interface{}, value interface{}) *mock.Call {
	return e.mock.On("Put", ctx, key, value)
}

func (e *MockStorage_Expecter) Delete(ctx interface{}, key interface{}) *mock.Call {
	return e.mock.On("Delete", ctx, key)
}
