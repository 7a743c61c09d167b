package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"tagd/internal/oracle"
	"tagd/internal/oracle/redisoracle"
	"tagd/internal/platform/authtoken"
	"tagd/internal/platform/config"
	"tagd/internal/platform/httpserver"
	"tagd/internal/platform/logger"
	platformredis "tagd/internal/platform/redis"
	"tagd/internal/presentation"
	"tagd/internal/scheduler"
	"tagd/internal/tags/models"
	"tagd/internal/tags/rulesfile"
	"tagd/internal/tags/service"
	"tagd/internal/tags/store"
	httptransport "tagd/internal/transport/http"
	"tagd/pkg/platform/audit"
	kafkapublisher "tagd/pkg/platform/audit/publishers/kafka"
	memorypublisher "tagd/pkg/platform/audit/publishers/memory"
)

// main wires dependencies and keeps the process lifecycle small; tag
// semantics live under internal/tags.
func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	rules, grants, err := rulesfile.Load(cfg.RulesPath)
	if err != nil {
		log.Warn("rules file not loaded, starting with defaults",
			"path", cfg.RulesPath,
			"error", err,
		)
		rules = &models.RuleSet{}
		grants = nil
	}
	static := oracle.NewStatic(grants)

	var health httptransport.HealthFunc
	permOracles := []oracle.PermissionOracle{static}
	rc, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if rc != nil {
		defer rc.Close()
		permOracles = append(permOracles, redisoracle.New(rc.Client, redisoracle.WithLogger(log)))
		health = rc.Health
		log.Info("redis permission backend enabled")
	}

	var publisher audit.Publisher
	if len(cfg.Audit.Brokers) > 0 {
		kp, err := kafkapublisher.New(cfg.Audit.Brokers, cfg.Audit.Topic, kafkapublisher.WithLogger(log))
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			kp.Close(ctx)
		}()
		publisher = kp
		log.Info("kafka audit trail enabled", "topic", cfg.Audit.Topic)
	} else {
		publisher = memorypublisher.New()
	}

	board := presentation.New(presentation.WithLogger(log))
	loop := scheduler.NewTickLoop(cfg.TickInterval)

	svc, err := service.New(store.NewMemory(), oracle.NewComposite(permOracles...), board, loop,
		service.WithLogger(log),
		service.WithAuditPublisher(publisher),
		service.WithConfig(service.Config{
			WarmupWindow:       cfg.WarmupWindow,
			ApplyRetryDelay:    cfg.ApplyRetryDelay,
			ApplyMaxAttempts:   cfg.ApplyMaxAttempts,
			RevalidateInterval: cfg.RevalidateInterval,
		}),
	)
	if err != nil {
		return err
	}
	svc.SetRules(rules)

	reload := func(ctx context.Context) (int, error) {
		rs, grants, err := rulesfile.Load(cfg.RulesPath)
		if err != nil {
			return 0, err
		}
		static.Replace(grants)
		svc.ReloadRules(ctx, rs)
		return len(rs.Rules), nil
	}

	tokens := authtoken.New(cfg.JWTSigningKey, "tagd")
	handler := httptransport.New(svc, board, reload, health, log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler, tokens))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc.Start()
	defer svc.Stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loop.Run(ctx)
	})
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr, "rules", len(rules.Rules))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server stopped")
	return nil
}
