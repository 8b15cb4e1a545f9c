package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/treeci/treeci/internal"
	"github.com/treeci/treeci/internal/project"
	"github.com/treeci/treeci/internal/settings"
	"github.com/treeci/treeci/internal/store"
)

type MockGraphService struct {
	mock.Mock
}

func (m *MockGraphService) TriggerPush(
	ctx context.Context,
	alias string,
	pushID int64,
) (*store.GraphJob, error) {
	args := m.Called(ctx, alias, pushID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.GraphJob), args.Error(1)
}

func (m *MockGraphService) GetJobByID(ctx context.Context, id int64) (*store.GraphJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.GraphJob), args.Error(1)
}

func (m *MockGraphService) ListJobs(
	ctx context.Context,
	alias string,
	limit, offset int64,
) ([]store.GraphJob, error) {
	args := m.Called(ctx, alias, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.GraphJob), args.Error(1)
}

func (m *MockGraphService) GetJobCount(ctx context.Context, alias string) (int64, error) {
	args := m.Called(ctx, alias)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGraphService) ListProjects() []*project.Project {
	args := m.Called()
	return args.Get(0).([]*project.Project)
}

func TestGraphHandler_PostPushTrigger(t *testing.T) {
	t.Run("success - push is accepted and a job returned", func(t *testing.T) {
		// arrange
		expectedJob := &store.GraphJob{JobID: 7, ProjectAlias: "try", PushID: 42}
		mockGraphService := new(MockGraphService)
		mockGraphService.On("TriggerPush", mock.Anything, "try", int64(42)).
			Return(expectedJob, nil)

		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/api/projects/try/pushes/42", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("alias", "push_id")
		c.SetParamValues("try", "42")
		h := NewGraphHandler(mockGraphService)

		// act
		err := h.PostPushTrigger(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusAccepted, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `"job_id":7`)
		assert.Contains(t, body, `"project_alias":"try"`)
	})

	t.Run("fail - service error is propagated to the error handler", func(t *testing.T) {
		mockGraphService := new(MockGraphService)
		mockGraphService.On("TriggerPush", mock.Anything, "nope", int64(42)).
			Return(nil, project.UnknownProjectError{Alias: "nope"})

		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/api/projects/nope/pushes/42", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("alias", "push_id")
		c.SetParamValues("nope", "42")
		h := NewGraphHandler(mockGraphService)

		err := h.PostPushTrigger(c)

		assert.Error(t, err)
	})
}

func TestGraphHandler_GetJob(t *testing.T) {
	t.Run("success - job found", func(t *testing.T) {
		expectedJob := &store.GraphJob{JobID: 7, ProjectAlias: "try", PushID: 42}
		mockGraphService := new(MockGraphService)
		mockGraphService.On("GetJobByID", mock.Anything, int64(7)).
			Return(expectedJob, nil)

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/api/jobs/7", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("job_id")
		c.SetParamValues("7")
		h := NewGraphHandler(mockGraphService)

		err := h.GetJob(c)

		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"job_id":7`)
	})

	t.Run("fail - missing job maps to 404", func(t *testing.T) {
		mockGraphService := new(MockGraphService)
		mockGraphService.On("GetJobByID", mock.Anything, int64(999)).
			Return(nil, fmt.Errorf("sql: no rows in result set"))

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/api/jobs/999", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("job_id")
		c.SetParamValues("999")
		h := NewGraphHandler(mockGraphService)

		err := h.GetJob(c)

		assert.Error(t, err)
		httpErr, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusNotFound, httpErr.Code)
	})
}

func TestGraphHandler_GetProjectJobs(t *testing.T) {
	t.Run("success - jobs listed with total", func(t *testing.T) {
		expectedJobs := []store.GraphJob{
			{JobID: 2, ProjectAlias: "try", PushID: 42},
			{JobID: 1, ProjectAlias: "try", PushID: 41},
		}
		mockGraphService := new(MockGraphService)
		mockGraphService.On("ListJobs", mock.Anything, "try", maxJobsPerPage, int64(0)).
			Return(expectedJobs, nil)
		mockGraphService.On("GetJobCount", mock.Anything, "try").
			Return(int64(2), nil)

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/api/projects/try/jobs", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("alias")
		c.SetParamValues("try")
		h := NewGraphHandler(mockGraphService)

		err := h.GetProjectJobs(c)

		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `"total":2`)
		assert.Contains(t, body, `"job_id":2`)
	})

	t.Run("success - oversized limit falls back to the page maximum", func(t *testing.T) {
		mockGraphService := new(MockGraphService)
		mockGraphService.On("ListJobs", mock.Anything, "try", maxJobsPerPage, int64(0)).
			Return([]store.GraphJob{}, nil)
		mockGraphService.On("GetJobCount", mock.Anything, "try").
			Return(int64(0), nil)

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/api/projects/try/jobs?limit=500", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("alias")
		c.SetParamValues("try")
		h := NewGraphHandler(mockGraphService)

		err := h.GetProjectJobs(c)

		assert.NoError(t, err)
		mockGraphService.AssertExpectations(t)
	})
}

func TestGraphHandler_GetProjects(t *testing.T) {
	t.Run("success - configured projects listed", func(t *testing.T) {
		mockGraphService := new(MockGraphService)
		mockGraphService.On("ListProjects").Return([]*project.Project{
			{Alias: "try", Repository: "https://hg.example.com/try", Level: 1},
		})

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		h := NewGraphHandler(mockGraphService)

		err := h.GetProjects(c)

		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "try")
	})
}

func TestRequireWebhookKey(t *testing.T) {
	next := func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}

	t.Run("success - matching key passes through", func(t *testing.T) {
		// arrange
		settings.Settings = &settings.AppSettings{WebhookKey: "hunter2"}
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/api/projects/try/pushes/42", nil)
		req.Header.Set(internal.WebhookKeyHeader, "hunter2")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		// act
		err := RequireWebhookKey(next)(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("fail - wrong key is rejected", func(t *testing.T) {
		settings.Settings = &settings.AppSettings{WebhookKey: "hunter2"}
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/api/projects/try/pushes/42", nil)
		req.Header.Set(internal.WebhookKeyHeader, "wrong")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := RequireWebhookKey(next)(c)

		httpErr, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	})

	t.Run("fail - unset key rejects every request", func(t *testing.T) {
		settings.Settings = &settings.AppSettings{WebhookKey: ""}
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/api/projects/try/pushes/42", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := RequireWebhookKey(next)(c)

		httpErr, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	})
}
