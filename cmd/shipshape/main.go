package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shipshape-app/shipshape/internal/backup"
	"github.com/shipshape-app/shipshape/internal/cache"
	"github.com/shipshape-app/shipshape/internal/config"
	"github.com/shipshape-app/shipshape/internal/connectivity"
	"github.com/shipshape-app/shipshape/internal/gateway"
	"github.com/shipshape-app/shipshape/internal/logging"
	"github.com/shipshape-app/shipshape/internal/model"
	"github.com/shipshape-app/shipshape/internal/outbox"
	"github.com/shipshape-app/shipshape/internal/realtime"
	"github.com/shipshape-app/shipshape/internal/repo"
	"github.com/shipshape-app/shipshape/internal/scheduler"
	"github.com/shipshape-app/shipshape/internal/server"
	"github.com/shipshape-app/shipshape/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel)
	slog.SetDefault(logger)

	db, err := cache.Open(cfg.CachePath)
	if err != nil {
		logger.Error("failed to open cache", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	sess := session.NewClient(cfg.AuthURL, logger.With("component", "session"))
	if cfg.AccessToken != "" {
		if err := sess.SetTokens(cfg.AccessToken, cfg.RefreshToken); err != nil {
			logger.Error("invalid access token", "error", err)
			os.Exit(1)
		}
	}

	gw := gateway.New(cfg.BackendURL, sess, logger.With("component", "gateway"))

	netSignal := connectivity.NewInterfaceSignal(0)
	monitor := connectivity.NewMonitor(netSignal, gw, cfg.ProbeInterval, logger.With("component", "connectivity"))

	engine := outbox.NewEngine(cache.NewOutboxStore(db), gw, netSignal, logger.With("component", "outbox"))
	sched := scheduler.New(gw, logger.With("component", "scheduler"))
	snaps := backup.NewSnapshotter(cfg.SnapshotDir, cfg.CachePath, cfg.SnapshotPass)

	households := repo.NewHouseholdRepo(gw, cache.NewHouseholdStore(db), monitor, engine, sess, logger.With("component", "households"))
	members := repo.NewMemberRepo(gw, cache.NewMemberStore(db), monitor, sess, logger.With("component", "members"))
	chores := repo.NewChoreRepo(gw, cache.NewChoreStore(db), monitor, engine, logger.With("component", "chores"))
	tasks := repo.NewTaskRepo(gw, cache.NewTaskStore(db), monitor, engine, sched, snaps, sess, logger.With("component", "tasks"))
	areas := repo.NewAreaRepo(gw, cache.NewAreaStore(db), monitor, logger.With("component", "areas"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	netSignal.Start(ctx)
	monitor.Start(ctx)

	// Flush the outbox whenever the backend comes back.
	monitor.Subscribe(func(st connectivity.Status) {
		if st == connectivity.StatusOnline {
			go func() {
				if err := engine.SyncNow(ctx); err != nil {
					logger.Warn("reconnect sync failed", "error", err)
				}
			}()
		}
	})

	feed := realtime.New(feedURL(cfg.BackendURL), sess, monitor, logger.With("component", "realtime"))
	feed.Subscribe(func(change realtime.Change) {
		go refreshOnChange(ctx, change, households, members, chores, tasks, logger)
	})
	go feed.Run(ctx)

	// Compact old replayed outbox entries once a day.
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := engine.PurgeDone(cfg.OutboxRetention); err != nil {
					logger.Warn("outbox compaction failed", "error", err)
				} else if n > 0 {
					logger.Info("compacted outbox", "purged", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	srv := server.New(monitor, engine, sess, server.Repos{
		Households: households,
		Members:    members,
		Chores:     chores,
		Tasks:      tasks,
		Areas:      areas,
	}, logger)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("control API listening", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancel()
	monitor.Stop()
	netSignal.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// feedURL derives the change feed address from the backend base URL.
func feedURL(backendURL string) string {
	url := backendURL
	if strings.HasPrefix(url, "https://") {
		url = "wss://" + strings.TrimPrefix(url, "https://")
	} else if strings.HasPrefix(url, "http://") {
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}
	return strings.TrimSuffix(url, "/") + "/api/v1/realtime"
}

// refreshOnChange re-reads the changed entity's list so the cache picks
// up edits made on other devices.
func refreshOnChange(ctx context.Context, change realtime.Change, households *repo.HouseholdRepo, members *repo.MemberRepo, chores *repo.ChoreRepo, tasks *repo.TaskRepo, logger *slog.Logger) {
	household, err := households.Current(ctx)
	if err != nil || household == nil {
		return
	}
	switch change.Entity {
	case "task":
		start := model.DateOnly(time.Now())
		if _, err := tasks.List(ctx, household.ID, start, start.AddDate(0, 0, 6)); err != nil {
			logger.Debug("task refresh failed", "error", err)
		}
	case "chore":
		if _, err := chores.List(ctx, household.ID); err != nil {
			logger.Debug("chore refresh failed", "error", err)
		}
	case "member":
		if _, err := members.List(ctx, household.ID); err != nil {
			logger.Debug("member refresh failed", "error", err)
		}
	}
}
