// Package server initializes and runs the backend application: configuration,
// database and migrations, identity provider and object storage clients, and
// the HTTP server with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/opensource-kemini/kemini-backend/internal/logging"
	"github.com/opensource-kemini/kemini-backend/internal/server/auth"
	"github.com/opensource-kemini/kemini-backend/internal/server/config"
	"github.com/opensource-kemini/kemini-backend/internal/server/httpapi"
	"github.com/opensource-kemini/kemini-backend/internal/server/repositories/repomanager"
	"github.com/opensource-kemini/kemini-backend/internal/server/services"
	"github.com/opensource-kemini/kemini-backend/internal/server/storage"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	cognitoClient, err := auth.NewCognitoClient(ctx, c.CognitoRegion)
	if err != nil {
		return nil, fmt.Errorf("cognito init error: %w", err)
	}
	verifier := auth.NewCognitoVerifier(cognitoClient, logger)

	gateway := storage.NewS3Gateway(c)

	us := services.NewUserService(db, repos, cognitoClient, c, logger)
	es := services.NewEnvironmentService(db, repos, gateway, logger)

	server := httpapi.NewServer(c.EndpointAddr, logger, verifier, us, es)

	return &App{config: c, logger: logger, db: db, server: server}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}
