// cmd/web/main.go
//
// Gatehouse – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load config (conf/.env → conf/gatehouse.yaml → GATEHOUSE_* env).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. When auditing is enabled, resolve the DB password (plain or a
//     `vault:` reference) and build the lazily-opened pool.  Nothing
//     connects until the first audit write.
//
//  4. Build the auth-service client, dispatcher, form schema, and tracker.
//
//  5. Router:
//
//     • chi RequestID, client address (trusted proxies only), Recoverer
//     • request-scoped logger + access log
//     • security headers, optional ForceHTTPS
//     • /healthz and /metrics
//     • guard in front of the auth component
//
//  6. Serve until SIGINT/SIGTERM, then drain and exit.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/gatehouse/components/auth"
	"github.com/yanizio/gatehouse/internal/action"
	"github.com/yanizio/gatehouse/internal/audit"
	"github.com/yanizio/gatehouse/internal/authapi"
	"github.com/yanizio/gatehouse/internal/clientinfo"
	"github.com/yanizio/gatehouse/internal/config"
	"github.com/yanizio/gatehouse/internal/database"
	"github.com/yanizio/gatehouse/internal/form"
	"github.com/yanizio/gatehouse/internal/formstate"
	"github.com/yanizio/gatehouse/internal/guard"
	"github.com/yanizio/gatehouse/internal/logger"
	"github.com/yanizio/gatehouse/internal/middleware"
	"github.com/yanizio/gatehouse/internal/server"
	"github.com/yanizio/gatehouse/internal/session"
	"github.com/yanizio/gatehouse/internal/vault"
)

// secretTTL is how long a resolved Vault value stays cached; boot reads
// the password once.
const secretTTL = 5 * time.Minute

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("gatehouse: %v", err)
	}
}

func run(ctx context.Context) error {
	//
	// ── 1.  Config ──────────────────────────────────────────────────────
	//
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	//
	// ── 2.  Logger ──────────────────────────────────────────────────────
	//
	logOut, err := logger.New(logger.Options{Dir: cfg.Log.Dir, Level: cfg.Log.Level, Tee: runningInTTY()})
	if err != nil {
		return fmt.Errorf("start logger: %w", err)
	}
	defer func() { _ = logOut.Sync() }()
	logOut.Infow("gatehouse starting", "root", cfg.Paths.Root, "listen_addr", cfg.HTTP.ListenAddr)

	//
	// ── 3.  Audit trail (optional, lazy DB) ─────────────────────────────
	//
	var opts []action.Option
	if cfg.Audit.Enabled {
		db, err := openAuditDB(ctx, cfg.Database, logOut)
		if err != nil {
			return err
		}
		defer db.Close()

		clients, err := clientinfo.Open(cfg.Audit.GeoIPDB)
		if err != nil {
			return err
		}
		defer clients.Close()

		opts = append(opts, action.WithRecorder(audit.New(db)), action.WithClientInfo(clients))
		logOut.Infow("audit trail enabled", "open", "on first write")
	}

	//
	// ── 4.  Auth service, dispatcher, forms ─────────────────────────────
	//
	authCli, err := authapi.New(authapi.Options{
		BaseURL:       cfg.Auth.BaseURL,
		Timeout:       cfg.Auth.RequestTimeout,
		LookupRetries: cfg.Auth.LookupRetries,
		Logger:        logOut,
	})
	if err != nil {
		return err
	}
	dispatcher := action.New(authCli, opts...)

	schema, err := loadSchema(cfg.Forms)
	if err != nil {
		return err
	}
	tracker := formstate.NewTracker(cfg.Forms.TrackerCapacity, schema, dispatcher)

	comp, err := auth.New(auth.Deps{
		Schema:   schema,
		Forms:    tracker,
		Actions:  dispatcher,
		Sessions: authCli,
	})
	if err != nil {
		return fmt.Errorf("auth component: %w", err)
	}

	//
	// ── 5.  Router ──────────────────────────────────────────────────────
	//
	r, err := newRouter(cfg.HTTP, logOut, authCli, comp)
	if err != nil {
		return err
	}

	//
	// ── 6.  Serve ───────────────────────────────────────────────────────
	//
	return server.Run(ctx, server.New(cfg.HTTP, r), logOut)
}

// newRouter composes the middleware chain and mounts the auth component
// behind the guard.  Health and metrics stay outside the guard.
func newRouter(hc config.HTTP, log *zap.SugaredLogger, lookup session.Lookup, comp *auth.Component) (http.Handler, error) {
	proxies, err := middleware.ParseProxies(hc.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("http.trusted_proxies: %w", err)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID, middleware.ClientAddr(proxies), chimw.Recoverer)
	r.Use(logger.Middleware(log))
	r.Use(middleware.Security)
	if hc.ForceHTTPS {
		r.Use(middleware.ForceHTTPS)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.With(guard.Middleware(lookup)).Mount("/", comp.Routes())
	return r, nil
}

// openAuditDB resolves the password and returns a pool that opens, and
// creates the audit table, on first use.
func openAuditDB(ctx context.Context, dbc config.Database, log *zap.SugaredLogger) (*database.Lazy, error) {
	var kv vault.KV
	if vault.IsRef(dbc.Password) {
		cli, err := vault.New(ctx, log)
		if err != nil {
			return nil, fmt.Errorf("vault: %w", err)
		}
		kv = cli
	}
	pw, err := vault.Resolve(ctx, kv, dbc.Password, secretTTL)
	if err != nil {
		return nil, fmt.Errorf("resolve database password: %w", err)
	}

	dsn := dbc.DSN
	if pw != "" {
		if dsn, err = database.WithPassword(dsn, pw); err != nil {
			return nil, fmt.Errorf("database dsn: %w", err)
		}
	}

	opts := database.DefaultOptions()
	opts.MaxOpenConns = dbc.MaxOpenConns
	opts.MaxIdleConns = dbc.MaxIdleConns
	return database.LazyDSN(dsn, opts, audit.Migrate), nil
}

func loadSchema(fc config.Forms) (*form.Schema, error) {
	if fc.Dir == "" {
		return form.Default()
	}
	s, err := form.LoadDir(fc.Dir)
	if err != nil {
		return nil, fmt.Errorf("load forms from %s: %w", fc.Dir, err)
	}
	return s, nil
}
