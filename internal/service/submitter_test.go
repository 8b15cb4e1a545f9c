package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/treeci/treeci/internal/graph"
	"github.com/treeci/treeci/testutil"
)

func TestGraphSubmitter_Submit(t *testing.T) {
	submitter := NewGraphSubmitter()

	t.Run("success - all tasks share the first task's id as group id", func(t *testing.T) {
		// arrange
		client := new(testutil.MockQueueClient)
		client.On("CreateTask", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		g := &graph.Graph{Tasks: []graph.Task{
			{"payload": map[string]any{}},
			{"task": map[string]any{"payload": map[string]any{}}},
			{"scopes": []any{"scope:b", "scope:a"}},
		}}

		// act
		groupID, err := submitter.Submit(
			context.Background(), client, "try", g, []string{"scope:a"},
		)

		// assert
		assert.NoError(t, err)
		client.AssertNumberOfCalls(t, "CreateTask", 3)
		assert.Equal(t, client.Calls[0].Arguments.String(1), groupID)
		for _, call := range client.Calls {
			def := call.Arguments.Get(2).(graph.Task)
			assert.Equal(t, groupID, def["taskGroupId"])
		}
	})

	t.Run("success - scopes are the union of task and project scopes", func(t *testing.T) {
		client := new(testutil.MockQueueClient)
		client.On("CreateTask", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		g := &graph.Graph{Tasks: []graph.Task{
			{"scopes": []any{"scope:b", "scope:a"}},
		}}

		_, err := submitter.Submit(
			context.Background(), client, "try", g, []string{"scope:a", "scope:c"},
		)

		assert.NoError(t, err)
		def := client.Calls[0].Arguments.Get(2).(graph.Task)
		assert.Equal(t, []string{"scope:b", "scope:a", "scope:c"}, def["scopes"])
	})

	t.Run("success - wrapped entries are unwrapped before submission", func(t *testing.T) {
		client := new(testutil.MockQueueClient)
		client.On("CreateTask", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		g := &graph.Graph{Tasks: []graph.Task{
			{"task": map[string]any{"provisionerId": "aws"}},
		}}

		_, err := submitter.Submit(context.Background(), client, "try", g, nil)

		assert.NoError(t, err)
		def := client.Calls[0].Arguments.Get(2).(graph.Task)
		assert.Equal(t, "aws", def["provisionerId"])
		assert.NotContains(t, def, "task")
	})

	t.Run("fail - a rejected task aborts the remaining submissions", func(t *testing.T) {
		client := new(testutil.MockQueueClient)
		client.On("CreateTask", mock.Anything, mock.Anything, mock.Anything).
			Return(nil).Once()
		client.On("CreateTask", mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("authorization failed")).Once()
		g := &graph.Graph{Tasks: []graph.Task{
			{"payload": map[string]any{}},
			{"payload": map[string]any{}},
			{"payload": map[string]any{}},
		}}

		_, err := submitter.Submit(context.Background(), client, "try", g, nil)

		assert.Error(t, err)
		client.AssertNumberOfCalls(t, "CreateTask", 2)
		var submitErr TaskSubmissionError
		assert.True(t, errors.As(err, &submitErr))
		assert.NotEmpty(t, submitErr.TaskID)
	})
}
