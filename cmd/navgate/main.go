package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/valinor-ai/navgate/internal/access"
	"github.com/valinor-ai/navgate/internal/audit"
	"github.com/valinor-ai/navgate/internal/auth"
	"github.com/valinor-ai/navgate/internal/catalog"
	"github.com/valinor-ai/navgate/internal/permissions"
	"github.com/valinor-ai/navgate/internal/platform/config"
	"github.com/valinor-ai/navgate/internal/platform/database"
	"github.com/valinor-ai/navgate/internal/platform/server"
	"github.com/valinor-ai/navgate/internal/platform/telemetry"
	"github.com/valinor-ai/navgate/internal/rolemapper"
	"golang.org/x/sync/errgroup"
)

var errMissingSigningKey = errors.New("auth.jwt.signingkey is required outside dev mode")

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := telemetry.NewLogger(cfg.Log.Level, cfg.Log.Format)
	telemetry.SetDefault(logger)

	slog.Info("navgate starting",
		"port", cfg.Server.Port,
		"catalog_source", cfg.Access.Source,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The database is optional unless the catalog lives in it.
	var pool *database.Pool
	if cfg.Database.URL != "" {
		slog.Info("connecting to database")
		p, err := database.Connect(ctx, cfg.Database.URL, database.WithMaxConns(cfg.Database.MaxConns))
		switch {
		case err != nil && cfg.Access.Source == catalog.SourcePostgres:
			return fmt.Errorf("connecting to database: %w", err)
		case err != nil:
			slog.Warn("database connection failed, starting without DB", "error", err)
		default:
			pool = p
			defer pool.Close()
		}
	}

	auditLogger, err := buildAuditLogger(ctx, cfg.Audit, pool)
	if err != nil {
		return err
	}
	defer auditLogger.Close()

	source, err := buildSource(cfg.Access, pool)
	if err != nil {
		return err
	}

	// Role mapper and permission cache start empty; the first reload fills
	// them and a failure here is fatal.
	mapper := rolemapper.New(nil)
	cache := permissions.NewCache(nil)
	reloader := catalog.NewReloader(source, mapper, cache, auditLogger)
	if _, err := reloader.Reload(ctx, "system"); err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	evaluator := access.NewEvaluator(cache,
		access.WithSuperAdminKeys(cfg.Access.SuperAdminKeys...),
		access.WithBlanketViewerKeys(cfg.Access.BlanketViewerKeys...),
	)

	signingKey := cfg.Auth.JWT.SigningKey
	if signingKey == "" {
		if !cfg.Auth.DevMode {
			return errMissingSigningKey
		}
		signingKey = uuid.NewString() + uuid.NewString()
		slog.Warn("no signing key configured, using an ephemeral one")
	}
	tokenSvc := auth.NewTokenService(
		signingKey,
		cfg.Auth.JWT.Issuer,
		cfg.Auth.JWT.ExpiryHours,
		cfg.Auth.JWT.RefreshExpiryHours,
	)

	var devIdentity *auth.Identity
	if cfg.Auth.DevMode {
		slog.Warn("running in dev mode, authentication bypassed with 'Bearer dev'")
		devIdentity = devModeIdentity(cfg.Access.SuperAdminKeys)
	}

	var auditHandler *audit.Handler
	if pool != nil {
		auditHandler = audit.NewHandler(pool)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := server.New(addr, server.Dependencies{
		Pool:               pool,
		Auth:               tokenSvc,
		AuthHandler:        auth.NewHandler(tokenSvc),
		AccessHandler:      access.NewHandler(evaluator, mapper, cache, reloader, auditLogger),
		Evaluator:          evaluator,
		Mapper:             mapper,
		AuditHandler:       auditHandler,
		AuditLogger:        auditLogger,
		DevMode:            cfg.Auth.DevMode,
		DevIdentity:        devIdentity,
		Logger:             logger,
		CORSAllowedOrigins: cfg.CORS.AllowedOrigins,
		AdminPath:          cfg.Access.AdminPath,
		RequireDatabase:    cfg.Access.Source == catalog.SourcePostgres,
	})

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})
	g.Go(func() error {
		reloadOnSignal(gctx, hup, reloader)
		return nil
	})

	slog.Info("server ready", "addr", addr, "dev_mode", cfg.Auth.DevMode)
	return g.Wait()
}

// buildSource picks the catalog source named in the config.
func buildSource(cfg config.AccessConfig, pool *database.Pool) (catalog.Source, error) {
	var db database.TxBeginner
	if pool != nil {
		db = pool
	}
	src, err := catalog.NewSource(cfg.Source, cfg.CatalogPath, db)
	if err != nil {
		return nil, fmt.Errorf("configuring catalog source: %w", err)
	}
	return src, nil
}

// buildAuditLogger persists audit events when a database is available and
// always mirrors them to the structured log.
func buildAuditLogger(ctx context.Context, cfg config.AuditConfig, pool *database.Pool) (audit.Logger, error) {
	slogAudit := audit.NewSlogLogger(slog.Default())
	if pool == nil {
		return slogAudit, nil
	}

	store := audit.NewStore()
	if err := store.Migrate(ctx, pool); err != nil {
		return nil, err
	}
	async := audit.NewAsyncLogger(pool, store, audit.LoggerConfig{
		BufferSize:    cfg.BufferSize,
		BatchSize:     cfg.BatchSize,
		FlushInterval: time.Duration(cfg.FlushInterval) * time.Millisecond,
	})
	slog.Info("audit logger started")
	return audit.Tee{async, slogAudit}, nil
}

func devModeIdentity(superAdminKeys []string) *auth.Identity {
	roleKey := "SuperAdmin"
	if len(superAdminKeys) > 0 {
		roleKey = superAdminKeys[0]
	}
	return &auth.Identity{
		UserID: "dev-user",
		Email:  "dev@localhost",
		User: map[string]any{
			"id":    "dev-user",
			"email": "dev@localhost",
			"role":  map[string]any{"roleKey": roleKey, "roleLabel": "Developer"},
		},
	}
}

// reloadOnSignal reloads the catalog on every SIGHUP until ctx ends.
func reloadOnSignal(ctx context.Context, sig <-chan os.Signal, reloader *catalog.Reloader) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
			// Failures are logged and audited by the reloader; the previous
			// catalog stays active.
			_, _ = reloader.Reload(ctx, "signal")
		}
	}
}
