package mocks

import (
	"context"

	"github.com/bnema/atlas-crm-cli/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockAuthAPI struct {
	mock.Mock
}

type MockAuthAPI_Expecter struct {
	mock *mock.Mock
}

func NewMockAuthAPI(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAuthAPI {
	m := &MockAuthAPI{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockAuthAPI) EXPECT() *MockAuthAPI_Expecter {
	return &MockAuthAPI_Expecter{mock: &m.Mock}
}

func (m *MockAuthAPI) Login(ctx context.Context, email, password string) (domain.TokenPair, error) {
	ret := m.Called(ctx, email, password)
	pair, _ := ret.Get(0).(domain.TokenPair)
	return pair, ret.Error(1)
}

func (m *MockAuthAPI) CurrentUser(ctx context.Context) (domain.User, error) {
	ret := m.Called(ctx)
	user, _ := ret.Get(0).(domain.User)
	return user, ret.Error(1)
}

func (e *MockAuthAPI_Expecter) Login(ctx interface{}, email interface{}, password interface{}) *mock.Call {
	return e.mock.On("Login", ctx, email, password)
}

func (e *MockAuthAPI_Expecter) CurrentUser(ctx interface{}) *mock.Call {
	return e.mock.On("CurrentUser", ctx)
}
