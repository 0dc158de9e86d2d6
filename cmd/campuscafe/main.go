package main

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeRez0/campuscafe/internal/adapter/auth"
	"github.com/MikeRez0/campuscafe/internal/adapter/config"
	"github.com/MikeRez0/campuscafe/internal/adapter/handler/http"
	"github.com/MikeRez0/campuscafe/internal/adapter/logger"
	"github.com/MikeRez0/campuscafe/internal/adapter/notify"
	"github.com/MikeRez0/campuscafe/internal/adapter/storage"
	"github.com/MikeRez0/campuscafe/internal/adapter/storage/memory"
	"github.com/MikeRez0/campuscafe/internal/adapter/storage/repository"
	"github.com/MikeRez0/campuscafe/internal/core/port"
	"github.com/MikeRez0/campuscafe/internal/core/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	conf, err := config.NewConfig()
	if err != nil {
		fmt.Printf("config error:%s", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(conf.App)
	if err != nil {
		fmt.Printf("error creating log: %s", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	if err := run(conf, log); err != nil {
		log.Error("campuscafe stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(conf *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, catalog, closeStore, err := openStorage(ctx, conf.Database, log)
	if err != nil {
		return err
	}
	defer closeStore()

	tokenService, err := auth.New()
	if err != nil {
		return fmt.Errorf("token service creating error: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	var notifier port.Notifier
	if conf.Redis.Addr != "" {
		redisNotifier, err := notify.NewRedisNotifier(conf.Redis, conf.Notify, log.Named("Notifier"))
		if err != nil {
			return fmt.Errorf("notifier creating error: %w", err)
		}
		g.Go(func() error {
			return redisNotifier.Run(gctx, conf.Notify.Workers)
		})
		notifier = redisNotifier
	} else {
		notifier = notify.NewLogNotifier(log.Named("Notifier"))
	}

	svc, err := service.NewService(repo, catalog, notifier, tokenService, log.Named("Service"),
		service.WithFreeItemImmediate(conf.App.FreeItemImmediate))
	if err != nil {
		return fmt.Errorf("service creating error: %w", err)
	}

	router, err := newRouter(svc, tokenService, conf.App, log)
	if err != nil {
		return err
	}

	server := &nethttp.Server{Addr: conf.HTTP.HostString, Handler: router}
	g.Go(func() error {
		log.Info("listening", zap.String("addr", conf.HTTP.HostString))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return fmt.Errorf("router serve error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openStorage picks Postgres when a DSN is configured and the in-memory
// adapter otherwise.
func openStorage(ctx context.Context, conf *config.Database, log *zap.Logger) (
	port.Repository, port.Catalog, func(), error) {
	if conf.DSN == "" {
		log.Warn("DATABASE_URI is empty, using in-memory storage")
		store := memory.New()
		for _, item := range memory.DefaultMenu() {
			store.PutMenuItem(item)
		}
		return store, store, func() {}, nil
	}

	db, err := storage.NewDBStorage(ctx, conf)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("database error: %w", err)
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("database migration error: %w", err)
	}

	repo, err := repository.NewRepository(db)
	if err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("repository creating error: %w", err)
	}
	return repo, repo, db.Close, nil
}

func newRouter(svc port.Service, tokenService port.TokenService, app *config.App,
	log *zap.Logger) (*http.Router, error) {
	if app.Mode == config.AppModeProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	studentHandler, err := http.NewStudentHandler(svc, app.StaffCode, log.Named("Student handler"))
	if err != nil {
		return nil, fmt.Errorf("student handler creating error: %w", err)
	}
	orderHandler, err := http.NewOrderHandler(svc, log.Named("Order handler"))
	if err != nil {
		return nil, fmt.Errorf("order handler creating error: %w", err)
	}
	loyaltyHandler, err := http.NewLoyaltyHandler(svc, log.Named("Loyalty handler"))
	if err != nil {
		return nil, fmt.Errorf("loyalty handler creating error: %w", err)
	}

	r, err := http.NewRouter(http.NewHandler(log.Named("Router")), tokenService,
		studentHandler, orderHandler, loyaltyHandler)
	if err != nil {
		return nil, fmt.Errorf("router creating error: %w", err)
	}
	return r, nil
}
