package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/treeci/treeci/internal/project"
	"github.com/treeci/treeci/internal/store"
)

const maxJobsPerPage int64 = 20

func SetupGraphRoutes(e *echo.Echo, graphService GraphServicer) {
	h := NewGraphHandler(graphService)
	e.GET("/health", h.GetHealth)

	api := e.Group("/api")
	api.POST(
		"/projects/:alias/pushes/:push_id",
		h.PostPushTrigger,
		RequireWebhookKey,
	)
	api.GET("/projects", h.GetProjects)
	api.GET("/projects/:alias/jobs", h.GetProjectJobs)
	api.GET("/jobs/:job_id", h.GetJob)
}

type GraphServicer interface {
	TriggerPush(ctx context.Context, alias string, pushID int64) (*store.GraphJob, error)
	GetJobByID(ctx context.Context, id int64) (*store.GraphJob, error)
	ListJobs(ctx context.Context, alias string, limit, offset int64) ([]store.GraphJob, error)
	GetJobCount(ctx context.Context, alias string) (int64, error)
	ListProjects() []*project.Project
}

type GraphHandler struct {
	graphService GraphServicer
}

func NewGraphHandler(graphService GraphServicer) *GraphHandler {
	return &GraphHandler{graphService: graphService}
}

func (h *GraphHandler) GetHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (h *GraphHandler) PostPushTrigger(c echo.Context) error {
	pp := new(PushParams)
	if err := c.Bind(pp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid push data")
	}

	job, err := h.graphService.TriggerPush(c.Request().Context(), pp.Alias, pp.PushID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, job)
}

func (h *GraphHandler) GetJob(c echo.Context) error {
	jp := new(JobParams)
	if err := c.Bind(jp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid job id")
	}

	job, err := h.graphService.GetJobByID(c.Request().Context(), jp.JobID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "job not found").WithInternal(err)
	}
	return c.JSON(http.StatusOK, job)
}

func (h *GraphHandler) GetProjectJobs(c echo.Context) error {
	lp := new(ListJobsParams)
	if err := c.Bind(lp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid list parameters")
	}
	if lp.Limit <= 0 || lp.Limit > maxJobsPerPage {
		lp.Limit = maxJobsPerPage
	}
	if lp.Offset < 0 {
		lp.Offset = 0
	}

	jobs, err := h.graphService.ListJobs(
		c.Request().Context(), lp.Alias, lp.Limit, lp.Offset,
	)
	if err != nil {
		return err
	}
	count, err := h.graphService.GetJobCount(c.Request().Context(), lp.Alias)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"jobs":  jobs,
		"total": count,
	})
}

func (h *GraphHandler) GetProjects(c echo.Context) error {
	return c.JSON(http.StatusOK, h.graphService.ListProjects())
}
