// Package gateway owns the process-wide TLS-layer state of the terminating
// daemon: credentials, the session resumption cache and the audit logger. It
// is constructed once at startup and rebuilt on credential reload; nothing
// here is an implicit global.
package gateway

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"vgw/internal/cache"
	"vgw/internal/config"
	"vgw/internal/creds"
	"vgw/internal/engine"
	"vgw/internal/keyproxy"
	"vgw/internal/logger"
	"vgw/internal/verify"
	"vgw/internal/worker"
)

type Gateway struct {
	Config      *config.Config
	Credentials *creds.Credentials
	Cache       cache.Store
	Audit       *logger.AuditLogger

	// VerifyCallback is registered with the engine as its
	// handshake-verify hook.
	VerifyCallback func(s engine.Session, status verify.Status) error
}

func New(cfg *config.Config) (*Gateway, error) {
	audit, err := logger.GetAuditLogger()
	if err != nil {
		log.Printf("Warning: Failed to initialize audit logger: %v", err)
	}
	if audit != nil {
		keyproxy.SetAuditSink(audit)
	}

	credentials, err := creds.Load(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	if audit != nil {
		audit.LogCredentialReload(len(credentials.Pairs))
	}

	g := &Gateway{
		Config:         cfg,
		Credentials:    credentials,
		Cache:          cache.NewStore(cfg),
		Audit:          audit,
		VerifyCallback: verify.Callback(audit),
	}

	return g, nil
}

// debugf writes operational detail only when debug logging is configured.
func (g *Gateway) debugf(format string, args ...any) {
	if g.Config.Debug > 0 {
		log.Printf(format, args...)
	}
}

// AuditCallback is the audit-log hook handed to the engine. Engine warnings
// that predate session setup arrive without a session.
func (g *Gateway) AuditCallback(s engine.Session, msg string) {
	if s == nil {
		log.Printf("warning: %s", msg)
		if g.Audit != nil {
			g.Audit.LogEngineWarning("", msg)
		}
		return
	}

	w, ok := worker.FromSession(s)
	if !ok {
		log.Printf("warning: %s", msg)
		return
	}
	log.Printf("[%s] warning: %s", w.ID, msg)
	if g.Audit != nil {
		g.Audit.LogEngineWarning(w.ID, msg)
	}
}

// NewWorker creates the per-connection context for a freshly accepted
// connection.
func (g *Gateway) NewWorker() *worker.Worker {
	return worker.New(g.Config)
}

// Reload tears down and rebuilds the credential state and the resumption
// cache, as on SIGHUP after a certificate rotation. Sessions cached under
// the old credentials are scrubbed, not migrated.
func (g *Gateway) Reload() error {
	credentials, err := creds.Load(g.Config)
	if err != nil {
		return fmt.Errorf("failed to reload credentials: %w", err)
	}

	g.Credentials.Close()
	g.Credentials = credentials

	g.Cache.Deinit()
	g.Cache = cache.NewStore(g.Config)

	if g.Audit != nil {
		g.Audit.LogCredentialReload(len(credentials.Pairs))
	}
	log.Printf("🔄 Reloaded %d certificate/key pair(s)", len(credentials.Pairs))
	return nil
}

// Shutdown releases every process-wide resource; the cache teardown scrubs
// all resident session material before the process exits.
func (g *Gateway) Shutdown() {
	g.Cache.Deinit()
	g.Credentials.Close()
	if g.Audit != nil {
		g.Audit.Close()
	}
}

// Run blocks handling lifecycle signals: SIGHUP reloads credentials,
// SIGINT/SIGTERM shut the gateway down.
func (g *Gateway) Run() {
	log.Printf("🚀 Gateway up on %s (custodian at %s)", g.Config.ListenAddr, g.Config.CustodianSocket)
	g.debugf("resumption cache: capacity %d, ttl %v", g.Config.CacheCapacity, g.Config.CacheTTL)
	g.debugf("client compat mode: %v, priorities: %s", g.Config.ClientCompat, g.Config.Priorities)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)

	for sig := range sigCh {
		if sig == syscall.SIGHUP {
			// A reload that cannot produce working credentials is as
			// fatal as the same failure at startup.
			if err := g.Reload(); err != nil {
				log.Fatalf("reload failed: %v", err)
			}
			continue
		}
		log.Printf("shutting down: %v", sig)
		break
	}

	g.Shutdown()
}
