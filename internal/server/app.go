// Package server wires the storage, services and HTTP surface together and
// runs them until the process is asked to stop.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/sheetkeeper/internal/cryptox"
	"github.com/dmitrijs2005/sheetkeeper/internal/logging"
	"github.com/dmitrijs2005/sheetkeeper/internal/notify"
	"github.com/dmitrijs2005/sheetkeeper/internal/objectstore"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/config"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/httpserver"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/services"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	characters *services.CharacterService
	access     *services.AccessService
	notifier   *notify.Notifier
}

// Services bundles what both the server and the admin tooling need.
type Services struct {
	Characters *services.CharacterService
	Index      *services.IndexService
	Access     *services.AccessService
	Repos      repomanager.RepositoryManager
}

// OpenStore connects to the configured object store backend.
func OpenStore(ctx context.Context, c *config.Config) (objectstore.Store, error) {
	switch c.StorageBackend {
	case config.StorageMemory:
		return objectstore.NewMemoryStore(), nil
	default:
		return objectstore.NewS3Store(ctx, objectstore.S3Config{
			Endpoint:     c.S3BaseEndpoint,
			Region:       c.S3Region,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
			Bucket:       c.S3Bucket,
			UsePathStyle: c.S3UsePathStyle,
		})
	}
}

// NewServices builds repositories and services over store using the
// configured encryption key and namespace.
func NewServices(store objectstore.Store, c *config.Config, logger logging.Logger) *Services {
	rm := repomanager.NewObjectStoreRepositoryManager(store, cryptox.NewCipher(c.EncryptionKey), c.Namespace)

	is := services.NewIndexService(rm.Characters(), rm.Index(), logger)
	return &Services{
		Characters: services.NewCharacterService(rm.Characters(), is, logger),
		Index:      is,
		Access:     services.NewAccessService(rm.Characters(), c.TokenSecret, c.EditTokenValidity),
		Repos:      rm,
	}
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	store, err := OpenStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("object store init error: %w", err)
	}
	if c.StorageBackend == config.StorageMemory {
		logger.Warn(ctx, "using in-memory storage, records will not survive a restart")
	}

	svc := NewServices(store, c, logger)

	n := notify.New(notify.Config{
		Host:       c.SMTPHost,
		Port:       c.SMTPPort,
		User:       c.SMTPUser,
		Password:   c.SMTPPassword,
		From:       c.MailFrom,
		To:         c.NotificationTo,
		ExcludeIPs: c.ExcludeIPs,
	}, logger)

	return &App{
		config:     c,
		logger:     logger,
		characters: svc.Characters,
		access:     svc.Access,
		notifier:   n,
	}, nil
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

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	hash, err := httpserver.HashSitePassword(app.config.SitePassword)
	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return
	}
	if hash == nil {
		app.logger.Warn(ctx, "site password not set, the site is open to everyone")
	}

	router := httpserver.NewRouter(app.characters, app.access, app.notifier, app.logger, httpserver.Options{
		SitePasswordHash: hash,
		Sessions:         httpserver.NewSessionStore(app.config.SessionSecret, app.config.SecureCookies),
		SecureCookies:    app.config.SecureCookies,
		EditCookieMaxAge: app.config.EditTokenValidity,
		AllowedOrigins:   app.config.AllowedOrigins,
	})

	s := httpserver.NewHTTPServer(app.config.HTTPAddr, app.logger, router)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
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
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
	app.notifier.Wait()
}
