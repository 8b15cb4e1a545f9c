package main

import (
	"log"

	"github.com/treeci/treeci/internal"
	"github.com/treeci/treeci/internal/handler"
	"github.com/treeci/treeci/internal/project"
	"github.com/treeci/treeci/internal/pushlog"
	"github.com/treeci/treeci/internal/queue"
	"github.com/treeci/treeci/internal/service"
	"github.com/treeci/treeci/internal/settings"
	"github.com/treeci/treeci/internal/store"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	_ "modernc.org/sqlite"
)

func main() {
	settings.ReadDotenv(internal.DotEnvPath)
	settings.Settings = settings.NewSettings()

	rdb := store.InitDatabase(true)
	defer rdb.Close()
	rwdb := store.InitDatabase(false)
	defer rwdb.Close()
	store.RunMigrations(rwdb, internal.MigrationsDir)

	registry, err := project.Load(settings.Settings.ProjectsPath)
	if err != nil {
		log.Fatal(err)
	}

	scheduler := service.NewScheduler()
	defer scheduler.Shutdown()

	queueClient := queue.NewHTTPClient(
		settings.Settings.QueueRootURL,
		settings.Settings.QueueClientID,
		settings.Settings.QueueAccessToken,
		nil,
	)

	graphSvc := service.NewGraphService(
		store.NewJobSQLiteStore(rdb, rwdb),
		store.NewCursorSQLiteStore(rdb, rwdb),
		registry,
		pushlog.NewClient(),
		service.NewTemplateFetcher(),
		queueClient,
		scheduler,
		settings.Settings.PollInterval,
	)
	graphSvc.InitializeJobQueues(settings.Settings.QueueSize)
	graphSvc.StartJobQueues()
	defer graphSvc.ShutdownAll()

	if err := graphSvc.SchedulePolling(); err != nil {
		log.Fatal(err)
	}
	scheduler.Start()

	e := echo.New()
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(
		middleware.CORSWithConfig(internal.GetCORSConfig()),
		middleware.RateLimiterWithConfig(internal.GetRateLimiterConfig()),
	)
	handler.SetupGraphRoutes(e, graphSvc)

	internal.GracefulShutdown(e, settings.Settings.Port)
}
