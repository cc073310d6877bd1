package mocks

import (
	"context"

	"github.com/bnema/atlas-crm-cli/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockPreferencesRepository struct {
	mock.Mock
}

type MockPreferencesRepository_Expecter struct {
	mock *mock.Mock
}

func NewMockPreferencesRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPreferencesRepository {
	m := &MockPreferencesRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPreferencesRepository) EXPECT() *MockPreferencesRepository_Expecter {
	return &MockPreferencesRepository_Expecter{mock: &m.Mock}
}

func (m *MockPreferencesRepository) Load(ctx context.Context) (domain.Preferences, error) {
	ret := m.Called(ctx)
	prefs, _ := ret.Get(0).(domain.Preferences)
	return prefs, ret.Error(1)
}

func (m *MockPreferencesRepository) Save(ctx context.Context, prefs domain.Preferences) error {
	ret := m.Called(ctx, prefs)
	return ret.Error(0)
}

func (e *MockPreferencesRepository_Expecter) Load(ctx interface{}) *mock.Call {
	return e.mock.On("Load", ctx)
}

func (e *MockPreferencesRepository_Expecter) Save(ctx interface{}, prefs interface{}) *mock.Call {
	return e.mock.On("Save", ctx, prefs)
}
