package commands

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nickym11111/forge-fall-25-project-sub000/internal/auth"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/config"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/metrics"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/profile"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/services/oidc"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/session"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/shelflife"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/usercache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App is the wired session client shared by every command
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Out       io.Writer
	Sessions  *session.Manager
	Cache     *usercache.Store
	Facade    *auth.Facade
	Predictor *shelflife.Predictor
	Registry  *prometheus.Registry

	closers []func() error
}

// NewApp builds the session client from cfg. Close releases what it opened.
func NewApp(cfg *config.Config, log *zap.Logger, out io.Writer) (*App, error) {
	policy, err := usercache.ParseFailurePolicy(cfg.RefreshFailurePolicy)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		Logger:   log,
		Out:      out,
		Registry: prometheus.NewRegistry(),
	}

	store, err := app.tokenStore()
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	recorder := metrics.NewCollector(app.Registry)

	app.Sessions = session.NewManager(
		oidc.NewClient(cfg.AuthURL, cfg.AuthClientID, cfg.AuthClientSecret, httpClient),
		store, cfg.AuthURL, httpClient, log.Named("session"),
	)
	fetcher := profile.NewFetcher(cfg.APIBaseURL,
		profile.WithTimeout(cfg.ProfileTimeout),
		profile.WithRecorder(recorder),
	)
	app.Cache = usercache.NewStore(app.Sessions, fetcher,
		usercache.WithFailurePolicy(policy),
		usercache.WithLogger(log.Named("usercache")),
		usercache.WithRecorder(recorder),
	)
	app.Facade = auth.NewFacade(app.Sessions, app.Cache, &printNavigator{out: out}, cfg.EntryRoute, log.Named("auth"))
	app.Predictor = shelflife.NewPredictor(cfg.APIBaseURL, httpClient, cfg.ExpiryTimeout, log.Named("shelflife"))

	return app, nil
}

func (a *App) tokenStore() (session.TokenStore, error) {
	switch a.Config.TokenStore {
	case config.TokenStoreMemory:
		return session.NewMemoryTokenStore(), nil
	case config.TokenStoreRedis:
		opts, err := redis.ParseURL(a.Config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		a.closers = append(a.closers, client.Close)
		return session.NewRedisTokenStore(client, a.Config.RedisTokenKey, a.Config.RefreshTokenTTL), nil
	default:
		return session.NewFileTokenStore(a.Config.TokenFile), nil
	}
}

// Close releases connections opened by NewApp
func (a *App) Close() error {
	var firstErr error
	for _, c := range a.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// printNavigator shows route changes on the terminal
type printNavigator struct {
	out io.Writer
}

func (n *printNavigator) Redirect(route string) {
	fmt.Fprintf(n.out, "-> %s\n", route)
}
