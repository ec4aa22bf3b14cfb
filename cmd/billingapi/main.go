package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/verdantlab/sprout/pkg/auditlog"
	"github.com/verdantlab/sprout/pkg/billing"
	"github.com/verdantlab/sprout/pkg/config"
	"github.com/verdantlab/sprout/pkg/httpserver"
	"github.com/verdantlab/sprout/pkg/logger"
	"github.com/verdantlab/sprout/pkg/pg"
	"github.com/verdantlab/sprout/pkg/redis"
	"github.com/verdantlab/sprout/pkg/requestid"
	"github.com/verdantlab/sprout/svc/billingapi"
)

type appConfig struct {
	Environment   string `env:"APP_ENV" envDefault:"development"`
	IntrospectURL string `env:"AUTH_INTROSPECT_URL,required"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var app appConfig
	config.MustLoad(&app)

	log := logger.New(
		logger.WithEnvironment(app.Environment, "billingapi"),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	if err := run(ctx, app, log); err != nil {
		log.ErrorContext(ctx, "billingapi stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, app appConfig, log *slog.Logger) error {
	var pgCfg pg.Config
	config.MustLoad(&pgCfg)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return err
	}

	var redisCfg redis.Config
	config.MustLoad(&redisCfg)

	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	// Feed events fan out through Redis so every instance sees entries
	// recorded by its peers.
	hub := auditlog.NewRedisHub(redisClient)
	defer hub.Close()

	var paddleCfg billing.PaddleConfig
	config.MustLoad(&paddleCfg)

	provider, err := billing.NewPaddleProvider(paddleCfg)
	if err != nil {
		return err
	}

	var apiCfg billingapi.Config
	config.MustLoad(&apiCfg)

	catalog, err := billing.LoadCatalog(apiCfg.CatalogPath)
	if err != nil {
		return err
	}

	svc := billingapi.NewService(
		billingapi.NewPgSubscriptionStore(pool),
		billingapi.NewPgAuditStore(pool),
		provider,
		catalog,
		billingapi.WithFeedPublisher(hub),
		billingapi.WithServiceLogger(log),
		billingapi.WithCheckoutURLs(apiCfg.SuccessURL, apiCfg.CancelURL),
	)

	router := billingapi.NewRouter(billingapi.RouterConfig{
		Service: svc,
		Authn:   billingapi.NewIntrospectionAuthFunc(app.IntrospectURL, nil),
		Feed:    hub,
		Health: httpserver.HealthCheckHandler(ctx, log,
			pg.Healthcheck(pool),
			redis.Healthcheck(redisClient),
		),
		Log: log,
	})

	var httpCfg httpserver.Config
	config.MustLoad(&httpCfg)
	if apiCfg.Addr != "" {
		httpCfg.Addr = apiCfg.Addr
	}

	srv := httpserver.NewFromConfig(httpCfg,
		httpserver.WithLogger(log),
		httpserver.WithStartHook(func(log *slog.Logger) {
			log.Info("billingapi listening", "addr", httpCfg.Addr)
		}),
	)
	return srv.Run(ctx, router)
}
