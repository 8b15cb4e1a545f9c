package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/treeci/treeci/internal/pushlog"
)

type MockPushLog struct {
	mock.Mock
}

func (m *MockPushLog) GetOne(
	ctx context.Context,
	repoURL string,
	pushID int64,
) (*pushlog.Push, error) {
	args := m.Called(ctx, repoURL, pushID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pushlog.Push), args.Error(1)
}

func (m *MockPushLog) Since(
	ctx context.Context,
	repoURL string,
	lastID int64,
) ([]pushlog.Push, error) {
	args := m.Called(ctx, repoURL, lastID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pushlog.Push), args.Error(1)
}
