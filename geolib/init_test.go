package geolib_test

import (
	"context"
	"time"

	"github.com/9seconds/geolocator/geolib"
	"github.com/stretchr/testify/mock"
)

type ProviderMock struct {
	mock.Mock
}

func (m *ProviderMock) Name() string {
	return m.Called().String(0)
}

func (m *ProviderMock) Boot(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *ProviderMock) Locate(ctx context.Context, ip string) (geolib.Location, error) {
	args := m.Called(ctx, ip)

	return args.Get(0).(geolib.Location), args.Error(1)
}

type UpdatableProviderMock struct {
	ProviderMock
}

func (m *UpdatableProviderMock) Update(ctx context.Context) (string, error) {
	args := m.Called(ctx)

	return args.String(0), args.Error(1)
}

type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) Get(key string) ([]byte, bool) {
	args := m.Called(key)

	data, _ := args.Get(0).([]byte)

	return data, args.Bool(1)
}

func (m *StoreMock) Put(key string, value []byte, ttl time.Duration) error {
	return m.Called(key, value, ttl).Error(0)
}

func (m *StoreMock) Flush() error {
	return m.Called().Error(0)
}

func (m *StoreMock) SupportsTags() bool {
	return m.Called().Bool(0)
}

func (m *StoreMock) Tags(tags []string) geolib.Store {
	return m.Called(tags).Get(0).(geolib.Store)
}

type LoggerMock struct {
	mock.Mock
}

func (m *LoggerMock) LookupError(ip, provider string, err error) {
	m.Called(ip, provider, err)
}

func (m *LoggerMock) UpdateInfo(provider, msg string) {
	m.Called(provider, msg)
}

func (m *LoggerMock) UpdateError(provider string, err error) {
	m.Called(provider, err)
}
