package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valinor-ai/navgate/internal/access"
	"github.com/valinor-ai/navgate/internal/audit"
	"github.com/valinor-ai/navgate/internal/auth"
	"github.com/valinor-ai/navgate/internal/platform/metrics"
	"github.com/valinor-ai/navgate/internal/platform/middleware"
	"github.com/valinor-ai/navgate/internal/rolemapper"
)

// DefaultAdminPath is used when Dependencies.AdminPath is empty.
const DefaultAdminPath = "/dashboard/settings/permissions"

// Dependencies holds all injected dependencies for the server.
type Dependencies struct {
	Pool               *pgxpool.Pool
	Auth               *auth.TokenService
	AuthHandler        *auth.Handler
	AccessHandler      *access.Handler
	Evaluator          *access.Evaluator
	Mapper             *rolemapper.Mapper
	AuditHandler       *audit.Handler
	AuditLogger        audit.Logger
	DevMode            bool
	DevIdentity        *auth.Identity
	Logger             *slog.Logger
	CORSAllowedOrigins []string
	// AdminPath is the dashboard page whose view and act grants guard the
	// inspection and reload endpoints.
	AdminPath string
	// RequireDatabase makes /readyz fail without a pool.
	RequireDatabase bool
}

type Server struct {
	httpServer      *http.Server
	protectedMux    *http.ServeMux
	pool            *pgxpool.Pool
	requireDatabase bool
	handler         http.Handler
}

func New(addr string, deps Dependencies) *Server {
	// Protected routes mux, wrapped with auth middleware
	protectedMux := http.NewServeMux()

	var protectedHandler http.Handler = protectedMux
	if deps.Auth != nil {
		var opts []auth.MiddlewareOption
		if deps.DevMode {
			opts = append(opts, auth.WithDevIdentity(deps.DevIdentity))
		}
		protectedHandler = auth.Middleware(deps.Auth, opts...)(protectedHandler)
	}

	// Top-level mux: public routes + protected catch-all
	topMux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		protectedMux:    protectedMux,
		pool:            deps.Pool,
		requireDatabase: deps.RequireDatabase,
	}

	// Public routes (no auth required)
	topMux.HandleFunc("GET /healthz", s.handleHealth)
	topMux.HandleFunc("GET /readyz", s.handleReadiness)
	topMux.Handle("GET /metrics", metrics.Handler())
	if deps.AuthHandler != nil {
		deps.AuthHandler.RegisterRoutes(topMux)
		if deps.DevMode {
			deps.AuthHandler.RegisterDevRoutes(topMux)
		}
	}

	var accessOpts []access.MiddlewareOption
	if deps.AuditLogger != nil {
		accessOpts = append(accessOpts, access.WithAuditLogger(deps.AuditLogger))
	}

	adminPath := deps.AdminPath
	if adminPath == "" {
		adminPath = DefaultAdminPath
	}

	if deps.AccessHandler != nil {
		deps.AccessHandler.RegisterRoutes(protectedMux, adminPath, accessOpts...)
	}

	if deps.AuditHandler != nil && deps.Evaluator != nil && deps.Mapper != nil {
		protectedMux.Handle("GET /api/v1/audit/events",
			access.RequirePath(deps.Evaluator, deps.Mapper, access.View, adminPath, accessOpts...)(
				http.HandlerFunc(deps.AuditHandler.HandleListEvents),
			),
		)
	}

	// All other routes go through auth middleware
	topMux.Handle("/", protectedHandler)

	// Wrap top-level mux with observability middleware
	var handler http.Handler = topMux
	handler = metrics.Middleware(handler)
	if deps.Logger != nil {
		handler = middleware.Logging(deps.Logger)(handler)
	}
	handler = middleware.RequestID(handler)
	if len(deps.CORSAllowedOrigins) > 0 {
		handler = middleware.CORS(deps.CORSAllowedOrigins)(handler)
	}

	s.handler = handler
	s.httpServer.Handler = handler
	return s
}

// Handler returns the full middleware-wrapped handler chain (for testing).
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ProtectedMux returns the mux for authenticated routes.
// Use this to register routes that require authentication.
func (s *Server) ProtectedMux() *http.ServeMux {
	return s.protectedMux
}

func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.httpServer.Addr, err)
	}

	slog.Info("server starting", "addr", listener.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if s.pool == nil && !s.requireDatabase {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	if s.pool == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "database not connected",
		})
		return
	}

	if err := s.pool.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "database ping failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
