package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/treeci/treeci/internal"
)

type JobSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewJobSQLiteStore(rdb, rwdb *sql.DB) *JobSQLiteStore {
	return &JobSQLiteStore{rdb, rwdb}
}

func (store *JobSQLiteStore) CreateJob(
	ctx context.Context,
	alias string,
	pushID int64,
) (*GraphJob, error) {
	j := &GraphJob{
		ProjectAlias: alias,
		PushID:       pushID,
		Status:       StatusQueued,
	}
	query := `insert into graph_jobs (
		project_alias,
		push_id,
		status
	)
	values ($1, $2, $3)
	returning job_id, created_on`
	if err := sqlscan.Get(ctx, store.rwdb, j, query, j.ProjectAlias, j.PushID, j.Status); err != nil {
		return nil, err
	}
	return j, nil
}

func (store *JobSQLiteStore) ReadJobByID(ctx context.Context, id int64) (*GraphJob, error) {
	j := &GraphJob{JobID: id}
	query := "select * from graph_jobs where job_id = $1"
	if err := sqlscan.Get(ctx, store.rdb, j, query, j.JobID); err != nil {
		return nil, err
	}
	return j, nil
}

func (store *JobSQLiteStore) ListJobs(
	ctx context.Context,
	alias string,
	limit, offset int64,
) ([]GraphJob, error) {
	jobs := []GraphJob{}
	query := `select * from graph_jobs
	where project_alias = $1
	order by job_id desc
	limit $2 offset $3`
	if err := sqlscan.Select(ctx, store.rdb, &jobs, query, alias, limit, offset); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (store *JobSQLiteStore) CountJobs(ctx context.Context, alias string) (int64, error) {
	var count int64
	query := "select count(*) from graph_jobs where project_alias = $1"
	if err := store.rdb.QueryRowContext(ctx, query, alias).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (store *JobSQLiteStore) UpdateJobRevision(
	ctx context.Context,
	id int64,
	revision string,
) error {
	query := `update graph_jobs
	set revision = $1
	where job_id = $2`
	_, err := store.rwdb.ExecContext(ctx, query, revision, id)
	return err
}

func (store *JobSQLiteStore) UpdateJobStarted(
	ctx context.Context,
	id int64,
	status JobStatus,
	startedOn *time.Time,
) error {
	query := `update graph_jobs
	set status = $1,
		started_on = $2
	where job_id = $3`
	_, err := store.rwdb.ExecContext(
		ctx, query,
		status,
		startedOn.Format(internal.DBTimestampLayout),
		id,
	)
	return err
}

func (store *JobSQLiteStore) UpdateJobEnded(
	ctx context.Context,
	id int64,
	status JobStatus,
	taskGroupID, errMessage *string,
	endedOn *time.Time,
) error {
	query := `update graph_jobs
	set status = $1,
		task_group_id = $2,
		error = $3,
		ended_on = $4
	where job_id = $5`
	_, err := store.rwdb.ExecContext(
		ctx, query,
		status,
		taskGroupID,
		errMessage,
		endedOn.Format(internal.DBTimestampLayout),
		id,
	)
	return err
}
