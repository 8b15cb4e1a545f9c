package service

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/treeci/treeci/internal/graph"
	"github.com/treeci/treeci/internal/queue"
)

// GraphSubmitter pushes rendered task graphs to the remote queue.
type GraphSubmitter struct{}

func NewGraphSubmitter() *GraphSubmitter {
	return &GraphSubmitter{}
}

// Submit creates every task of the graph in rendered order. Each task
// gets a fresh unguessable id; the first id doubles as the task group id
// shared by the whole graph, which is why ordering matters. Every task's
// scopes are unioned with the project scopes before submission. The first
// failure aborts the remaining tasks; already-created tasks are not
// rolled back, task creation being idempotent by id on the remote side.
func (s *GraphSubmitter) Submit(
	ctx context.Context,
	client queue.Client,
	alias string,
	g *graph.Graph,
	scopes []string,
) (string, error) {
	var groupID string
	for i, entry := range g.Tasks {
		taskID := uuid.NewString()
		if i == 0 {
			groupID = taskID
		}

		def := graph.Inner(entry)
		def = graph.WithScopes(def, scopes)
		def = graph.WithGroupID(def, groupID)

		if err := client.CreateTask(ctx, taskID, def); err != nil {
			log.Printf(
				"err submitting task %s (project %s, group %s): %+v",
				taskID, alias, groupID, err,
			)
			return "", TaskSubmissionError{TaskID: taskID, Err: err}
		}
	}
	return groupID, nil
}
