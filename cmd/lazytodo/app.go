package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/Joseda-hg/lazytodo/internal/cache"
	"github.com/Joseda-hg/lazytodo/internal/config"
	"github.com/Joseda-hg/lazytodo/internal/db"
	"github.com/Joseda-hg/lazytodo/internal/engine"
	"github.com/Joseda-hg/lazytodo/internal/identity"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/store"
	"github.com/Joseda-hg/lazytodo/internal/web"
)

const tokenTTL = 30 * 24 * time.Hour

type app struct {
	cfg     config.Config
	cfgPath string
	engine  *engine.Engine
	session *identity.Session
	tokens  *identity.Tokens
	notices *engine.NoticeLog
	closers []func() error
}

// loadConfig resolves the config file, applies flags and persists them, then
// layers .env and LAZYTODO_* variables on top without saving secrets.
func loadConfig(flags *rootFlags) (config.Config, string, error) {
	cfgPath := flags.configPath
	if cfgPath == "" {
		defaultPath, err := config.DefaultConfigPath()
		if err != nil {
			return config.Config{}, "", err
		}
		cfgPath = defaultPath
	}

	for _, envPath := range []string{".env", filepath.Join(filepath.Dir(cfgPath), ".env")} {
		if err := config.LoadDotEnv(envPath); err != nil {
			return config.Config{}, "", err
		}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, "", err
	}

	if flags.dbPath != "" {
		cfg.DBPath = flags.dbPath
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(filepath.Dir(cfgPath), "lazytodo.db")
	}
	if flags.user != "" {
		cfg.User = flags.user
	}
	if flags.web {
		cfg.WebEnabled = true
	}
	if flags.port != 0 {
		cfg.WebPort = flags.port
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return config.Config{}, "", err
	}

	cfg, err = config.ApplyEnv(cfg, os.Getenv)
	if err != nil {
		return config.Config{}, "", err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, "", err
	}
	return cfg, cfgPath, nil
}

func newApp(ctx context.Context, flags *rootFlags) (*app, error) {
	cfg, cfgPath, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, cfgPath: cfgPath, notices: engine.NewNoticeLog(50)}

	adapter, err := a.openAdapter(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.JWTSecret != "" {
		a.tokens, err = identity.NewTokens(cfg.JWTSecret, tokenTTL)
		if err != nil {
			a.Close()
			return nil, err
		}
	}
	a.session = identity.NewSession(a.tokens)

	a.engine = engine.New(adapter, a.session,
		engine.WithNotifier(engine.Notifiers{engine.LogNotifier{}, a.notices}),
		engine.WithLocale(parseLocale(cfg.Locale)),
	)
	a.engine.Start(ctx)

	if err := a.signIn(flags.token); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) openAdapter(ctx context.Context) (store.Adapter, error) {
	if a.cfg.Backend == config.BackendRemote {
		pool := store.DefaultPoolConfig()
		pool.DSN = a.cfg.PostgresDSN
		remote, err := store.OpenPostgres(ctx, pool)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, remote.Close)
		return remote, nil
	}

	if a.cfg.Blob == config.BlobRedis {
		kv, err := cache.NewRedisKV(ctx, cache.RedisConfig{Addr: a.cfg.RedisAddr, Prefix: "lazytodo"})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, kv.Close)
		log.Printf("Local task store using redis at %s", a.cfg.RedisAddr)
		return store.NewLocal(kv, a.cfg.Profile), nil
	}

	if err := config.EnsureDir(a.cfg.DBPath); err != nil {
		return nil, err
	}
	sqlDB, err := db.Open(a.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, sqlDB.Close)
	return store.NewLocal(db.NewKV(sqlDB), a.cfg.Profile), nil
}

// signIn picks the startup identity. The local backend trusts the configured
// or OS user; the remote backend needs a verified token or a later web sign-in.
func (a *app) signIn(token string) error {
	if token != "" {
		if _, err := a.session.SignIn(token); err != nil {
			return fmt.Errorf("sign in: %w", err)
		}
		return nil
	}
	if a.cfg.Backend != config.BackendLocal {
		return nil
	}
	a.session.SignInAs(model.Identity(localUser(a.cfg.User)))
	return nil
}

func localUser(configured string) string {
	if trimmed := strings.TrimSpace(configured); trimmed != "" {
		return trimmed
	}
	if current, err := user.Current(); err == nil && current.Username != "" {
		return current.Username
	}
	return "local"
}

func parseLocale(value string) language.Tag {
	if strings.TrimSpace(value) == "" {
		return language.Und
	}
	tag, err := language.Parse(value)
	if err != nil {
		log.Printf("ignoring invalid locale %q: %v", value, err)
		return language.Und
	}
	return tag
}

func (a *app) webServer() *http.Server {
	handler := web.NewServer(a.engine, a.session, a.notices, web.DefaultOptions()).Handler()
	return &http.Server{
		Addr:         listenAddr(a.cfg),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// listenAddr keeps the API on loopback unless web_host says otherwise; task
// routes have no per-request auth.
func listenAddr(cfg config.Config) string {
	return net.JoinHostPort(cfg.WebHost, strconv.Itoa(cfg.WebPort))
}

// serveWeb runs srv until ctx is cancelled, then shuts it down gracefully.
func serveWeb(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Web server running at http://%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down web server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web server forced to shutdown: %w", err)
	}
	return nil
}

func (a *app) Close() {
	if a.engine != nil {
		a.engine.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("close: %v", err)
		}
	}
}
