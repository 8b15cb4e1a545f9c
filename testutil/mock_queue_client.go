package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/treeci/treeci/internal/graph"
)

type MockQueueClient struct {
	mock.Mock
}

func (m *MockQueueClient) CreateTask(
	ctx context.Context,
	taskID string,
	definition graph.Task,
) error {
	args := m.Called(ctx, taskID, definition)
	return args.Error(0)
}
