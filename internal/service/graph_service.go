package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/treeci/treeci/internal/project"
	"github.com/treeci/treeci/internal/pushlog"
	"github.com/treeci/treeci/internal/queue"
	"github.com/treeci/treeci/internal/store"
	"github.com/treeci/treeci/internal/util"
	"github.com/treeci/treeci/internal/vcs"
)

type JobWriter interface {
	CreateJob(ctx context.Context, alias string, pushID int64) (*store.GraphJob, error)
	UpdateJobRevision(ctx context.Context, id int64, revision string) error
	UpdateJobStarted(ctx context.Context, id int64, status store.JobStatus, startedOn *time.Time) error
	UpdateJobEnded(
		ctx context.Context,
		id int64,
		status store.JobStatus,
		taskGroupID, errMessage *string,
		endedOn *time.Time,
	) error
}

type JobReader interface {
	ReadJobByID(ctx context.Context, id int64) (*store.GraphJob, error)
	ListJobs(ctx context.Context, alias string, limit, offset int64) ([]store.GraphJob, error)
	CountJobs(ctx context.Context, alias string) (int64, error)
}

type JobStore interface {
	JobWriter
	JobReader
}

type CursorStore interface {
	ReadCursor(ctx context.Context, alias string) (int64, error)
	UpsertCursor(ctx context.Context, alias string, lastPushID int64) error
}

type PushLog interface {
	GetOne(ctx context.Context, repoURL string, pushID int64) (*pushlog.Push, error)
	Since(ctx context.Context, repoURL string, lastID int64) ([]pushlog.Push, error)
}

type TemplateSource interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// GraphService owns the push-to-task-graph pipeline: push metadata lookup,
// template fetch, render, submission and the per-project job queues that
// serialize it all.
type GraphService struct {
	jobStore     JobStore
	cursorStore  CursorStore
	registry     *project.Registry
	pushLog      PushLog
	fetcher      TemplateSource
	renderer     *TemplateRenderer
	submitter    *GraphSubmitter
	queueClient  queue.Client
	scheduler    gocron.Scheduler
	pollInterval time.Duration

	mu     sync.Mutex
	queues map[string]*JobQueue
}

func NewGraphService(
	jobStore JobStore,
	cursorStore CursorStore,
	registry *project.Registry,
	pushLog PushLog,
	fetcher TemplateSource,
	queueClient queue.Client,
	scheduler gocron.Scheduler,
	pollInterval time.Duration,
) *GraphService {
	return &GraphService{
		jobStore:     jobStore,
		cursorStore:  cursorStore,
		registry:     registry,
		pushLog:      pushLog,
		fetcher:      fetcher,
		renderer:     NewTemplateRenderer(),
		submitter:    NewGraphSubmitter(),
		queueClient:  queueClient,
		scheduler:    scheduler,
		pollInterval: pollInterval,
		queues:       make(map[string]*JobQueue),
	}
}

// TriggerPush records a graph job for the push and queues it for
// processing.
func (s *GraphService) TriggerPush(
	ctx context.Context,
	alias string,
	pushID int64,
) (*store.GraphJob, error) {
	if _, err := s.registry.Get(alias); err != nil {
		return nil, err
	}
	job, err := s.jobStore.CreateJob(ctx, alias, pushID)
	if err != nil {
		return nil, err
	}
	if err := s.EnqueueJob(job); err != nil {
		return nil, err
	}
	return job, nil
}

// RunJob executes the pipeline for one queued job and records the
// outcome. There is no retry across stages; only the template fetch
// retries internally.
func (s *GraphService) RunJob(ctx context.Context, job *store.GraphJob) error {
	startedOn := time.Now().UTC()
	if err := s.jobStore.UpdateJobStarted(
		ctx, job.JobID, store.StatusRunning, &startedOn,
	); err != nil {
		return err
	}

	groupID, err := s.processJob(ctx, job)
	endedOn := time.Now().UTC()
	if err != nil {
		log.Printf(
			"err processing push %d for project %s: %+v",
			job.PushID, job.ProjectAlias, err,
		)
		if sqlErr := s.jobStore.UpdateJobEnded(
			ctx, job.JobID, store.StatusFailed, nil, util.AsPtr(err.Error()), &endedOn,
		); sqlErr != nil {
			log.Println("err updating job status to failed:", sqlErr)
		}
		return err
	}
	return s.jobStore.UpdateJobEnded(
		ctx, job.JobID, store.StatusSubmitted, &groupID, nil, &endedOn,
	)
}

func (s *GraphService) processJob(ctx context.Context, job *store.GraphJob) (string, error) {
	proj, err := s.registry.Get(job.ProjectAlias)
	if err != nil {
		return "", err
	}

	push, err := s.pushLog.GetOne(ctx, proj.Repository, job.PushID)
	if err != nil {
		return "", err
	}
	tip, err := push.Tip()
	if err != nil {
		return "", err
	}
	if err := s.jobStore.UpdateJobRevision(ctx, job.JobID, tip.Node); err != nil {
		return "", err
	}

	repo, err := vcs.ResolveRepoURL(proj.Repository)
	if err != nil {
		return "", err
	}
	templateURL := proj.TemplateURL(repo, tip.Node)
	vars := buildVariables(proj, push, tip, templateURL)

	rawTemplate, err := s.fetcher.Fetch(ctx, templateURL)
	if err != nil {
		log.Printf(
			"err fetching template for project %s revision %s: %+v",
			proj.Alias, tip.Node, err,
		)
		return "", err
	}

	g, err := s.renderer.Render(rawTemplate, vars, s.registry.ErrorTemplate)
	if err != nil {
		log.Printf(
			"err rendering template for project %s revision %s: %+v",
			proj.Alias, tip.Node, err,
		)
		return "", err
	}

	return s.submitter.Submit(ctx, s.queueClient, proj.Alias, g, proj.Scopes)
}

// buildVariables assembles the substitution mapping for one push. The
// comment variable falls back to a single space when the push carries no
// try directive, keeping the variable applied without rendering a
// literal empty string.
func buildVariables(
	proj *project.Project,
	push *pushlog.Push,
	tip *pushlog.Changeset,
	templateURL string,
) Variables {
	comment := vcs.TryDirective(tip.Desc)
	if comment == "" {
		comment = " "
	}
	return Variables{
		"owner":         push.User,
		"revision":      tip.Node,
		"project":       proj.Alias,
		"level":         strconv.Itoa(proj.Level),
		"revision_hash": tip.Node,
		"comment":       comment,
		"pushlog_id":    strconv.FormatInt(push.ID, 10),
		"url":           proj.Repository,
		"pushdate":      strconv.FormatInt(push.Date, 10),
		"source":        templateURL,
	}
}

func (s *GraphService) GetJobByID(ctx context.Context, id int64) (*store.GraphJob, error) {
	return s.jobStore.ReadJobByID(ctx, id)
}

func (s *GraphService) ListJobs(
	ctx context.Context,
	alias string,
	limit, offset int64,
) ([]store.GraphJob, error) {
	return s.jobStore.ListJobs(ctx, alias, limit, offset)
}

func (s *GraphService) GetJobCount(ctx context.Context, alias string) (int64, error) {
	return s.jobStore.CountJobs(ctx, alias)
}

func (s *GraphService) ListProjects() []*project.Project {
	return s.registry.List()
}

// PollProject reads pushes recorded since the stored cursor and queues a
// graph job for each.
func (s *GraphService) PollProject(ctx context.Context, alias string) error {
	proj, err := s.registry.Get(alias)
	if err != nil {
		return err
	}
	lastID, err := s.cursorStore.ReadCursor(ctx, alias)
	if err != nil {
		return err
	}
	pushes, err := s.pushLog.Since(ctx, proj.Repository, lastID)
	if err != nil {
		return err
	}

	for _, p := range pushes {
		if _, err := s.TriggerPush(ctx, alias, p.ID); err != nil {
			log.Printf("err queuing push %d for project %s: %+v", p.ID, alias, err)
			break
		}
		lastID = p.ID
	}
	return s.cursorStore.UpsertCursor(ctx, alias, lastID)
}

// SchedulePolling registers a pushlog poll job for every poll-enabled
// project.
func (s *GraphService) SchedulePolling() error {
	if s.scheduler == nil {
		return nil
	}
	for _, proj := range s.registry.List() {
		if !proj.Poll {
			continue
		}
		alias := proj.Alias
		_, err := s.scheduler.NewJob(
			gocron.DurationJob(s.pollInterval),
			gocron.NewTask(func() {
				if err := s.PollProject(context.Background(), alias); err != nil {
					log.Printf("err polling push log for project %s: %+v", alias, err)
				}
			}),
		)
		if err != nil {
			return fmt.Errorf("error scheduling push log poll: %w", err)
		}
	}
	return nil
}

func (s *GraphService) InitializeJobQueues(maxJobs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, proj := range s.registry.List() {
		s.queues[proj.Alias] = NewJobQueue(s, maxJobs)
	}
}

func (s *GraphService) StartJobQueues() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for alias := range s.queues {
		go s.queues[alias].Run()
	}
}

func (s *GraphService) GetJobQueue(alias string) (*JobQueue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queues[alias]
	return q, ok
}

func (s *GraphService) EnqueueJob(job *store.GraphJob) error {
	q, ok := s.GetJobQueue(job.ProjectAlias)
	if !ok {
		return fmt.Errorf("job queue for project %s does not exist", job.ProjectAlias)
	}
	return q.Enqueue(job)
}

func (s *GraphService) ShutdownAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var wg sync.WaitGroup
	for _, q := range s.queues {
		wg.Go(func() {
			q.Shutdown()
		})
	}
	wg.Wait()
}
