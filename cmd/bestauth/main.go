package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/coverly/bestauth/internal/storage/postgres"
	authmod "github.com/coverly/bestauth/modules/auth"
	authsvc "github.com/coverly/bestauth/pkg/auth"
	"github.com/coverly/bestauth/pkg/config"
	"github.com/coverly/bestauth/pkg/cookie"
	"github.com/coverly/bestauth/pkg/email"
	"github.com/coverly/bestauth/pkg/httpserver"
	"github.com/coverly/bestauth/pkg/logger"
	"github.com/coverly/bestauth/pkg/pg"
	"github.com/coverly/bestauth/pkg/ratelimit"
	redisconn "github.com/coverly/bestauth/pkg/redis"
	"github.com/coverly/bestauth/pkg/session"
	"github.com/coverly/bestauth/pkg/usage"
)

type appConfig struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	AppName     string `env:"APP_NAME" envDefault:"Coverly"`

	// Comma separated list of enabled OAuth providers.
	OAuthProviders string `env:"OAUTH_PROVIDERS" envDefault:""`

	// Rate limit for credential endpoints, per client IP.
	AuthRateCapacity int `env:"AUTH_RATE_CAPACITY" envDefault:"10"`
	AuthRateRefill   int `env:"AUTH_RATE_REFILL" envDefault:"10"`
}

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var (
		appCfg     appConfig
		pgCfg      pg.Config
		httpCfg    httpserver.Config
		cookieCfg  cookie.Config
		sessionCfg session.Config
		emailCfg   email.Config
		googleCfg  authsvc.GoogleConfig
		githubCfg  authsvc.GithubConfig
	)
	if err := config.Load(&appCfg); err != nil {
		return fmt.Errorf("load app config: %w", err)
	}
	if err := config.Load(&pgCfg); err != nil {
		return fmt.Errorf("load postgres config: %w", err)
	}
	if err := config.Load(&httpCfg); err != nil {
		return fmt.Errorf("load http config: %w", err)
	}
	if err := config.Load(&cookieCfg); err != nil {
		return fmt.Errorf("load cookie config: %w", err)
	}
	if err := config.Load(&sessionCfg); err != nil {
		return fmt.Errorf("load session config: %w", err)
	}
	if err := config.Load(&emailCfg); err != nil {
		return fmt.Errorf("load email config: %w", err)
	}

	log := logger.New(logger.WithEnvironment(appCfg.Environment, "bestauth"))
	slog.SetDefault(log)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	store := postgres.New(pool)

	cookies, err := cookie.NewFromConfig(cookieCfg)
	if err != nil {
		return fmt.Errorf("build cookie manager: %w", err)
	}

	sessions := session.NewManager(store, sessionCfg, session.WithLogger(log))
	transport := session.NewCompositeTransport(
		session.NewCookieTransport(cookies, sessionCfg.CookieName),
		session.HeaderTransport{},
	)
	go sessions.StartCleanup(ctx)

	var sender email.EmailSender
	if emailCfg.PostmarkServerToken != "" {
		sender, err = email.NewPostmarkSender(emailCfg)
		if err != nil {
			return fmt.Errorf("build email sender: %w", err)
		}
	} else {
		log.Info("postmark not configured, emails will be logged")
		sender = email.NewLogSender(log)
	}
	mailer := email.NewMailer(sender, appCfg.BaseURL, appCfg.AppName)

	ephemeral := authsvc.NewEphemeralService(store)
	passwords := authsvc.NewPasswordService(store, ephemeral,
		authsvc.WithPasswordLogger(log),
		authsvc.WithSessionRevoker(sessions),
	)
	magicLinks := authsvc.NewMagicLinkService(store, ephemeral)
	verification := authsvc.NewVerificationService(store, ephemeral)

	adapters, err := oauthAdapters(appCfg, &googleCfg, &githubCfg)
	if err != nil {
		return err
	}
	oauth := authsvc.NewOAuthService(store, adapters)

	quota := usage.NewService(store)

	limiter, limiterCheck, err := buildLimiter(ctx, appCfg, log)
	if err != nil {
		return err
	}

	mod := authmod.New(authmod.Deps{
		Cookies:      cookies,
		Sessions:     sessions,
		Transport:    transport,
		Users:        store,
		Passwords:    passwords,
		MagicLinks:   magicLinks,
		Verification: verification,
		OAuth:        oauth,
		Quota:        quota,
		Mailer:       mailer,
		Limiter:      limiter,
		Logger:       log,
	})

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", httpserver.HealthHandler(log))
	r.Get("/ready", httpserver.HealthHandler(log, append(limiterCheck, pg.Healthcheck(pool))...))
	r.Mount("/", mod.Router())

	return httpserver.New(httpCfg, log).Run(ctx, r)
}

// oauthAdapters builds adapters for the providers named in OAUTH_PROVIDERS.
// Provider credentials are only loaded, and therefore only required, for
// providers that are switched on.
func oauthAdapters(appCfg appConfig, googleCfg *authsvc.GoogleConfig, githubCfg *authsvc.GithubConfig) ([]authsvc.ProviderAdapter, error) {
	var adapters []authsvc.ProviderAdapter
	for provider := range strings.SplitSeq(appCfg.OAuthProviders, ",") {
		switch strings.TrimSpace(provider) {
		case "":
		case authsvc.ProviderGoogle:
			if err := config.Load(googleCfg); err != nil {
				return nil, fmt.Errorf("load google oauth config: %w", err)
			}
			adapters = append(adapters, authsvc.NewGoogleAdapter(*googleCfg))
		case authsvc.ProviderGithub:
			if err := config.Load(githubCfg); err != nil {
				return nil, fmt.Errorf("load github oauth config: %w", err)
			}
			adapters = append(adapters, authsvc.NewGithubAdapter(*githubCfg))
		default:
			return nil, fmt.Errorf("unknown oauth provider in OAUTH_PROVIDERS: %q", provider)
		}
	}
	return adapters, nil
}

// buildLimiter wires the credential-endpoint limiter. With REDIS_URL set
// the buckets are shared across instances; otherwise they are process
// local.
func buildLimiter(ctx context.Context, appCfg appConfig, log *slog.Logger) (ratelimit.Limiter, []func(context.Context) error, error) {
	cfg := ratelimit.Config{
		Capacity:       appCfg.AuthRateCapacity,
		RefillRate:     appCfg.AuthRateRefill,
		RefillInterval: time.Minute,
	}

	var redisCfg redisconn.Config
	if err := config.Load(&redisCfg); err != nil {
		return nil, nil, fmt.Errorf("load redis config: %w", err)
	}

	if os.Getenv("REDIS_URL") == "" {
		store := ratelimit.NewMemoryStore()
		limiter, err := ratelimit.NewBucket(store, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("build rate limiter: %w", err)
		}
		log.Info("rate limiting with in-process store")
		return limiter, nil, nil
	}

	client, err := redisconn.Connect(ctx, redisCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	limiter, err := ratelimit.NewBucket(ratelimit.NewRedisStore(client), cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("build rate limiter: %w", err)
	}
	return limiter, []func(context.Context) error{redisconn.Healthcheck(client)}, nil
}
