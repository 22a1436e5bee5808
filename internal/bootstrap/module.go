package bootstrap

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"sentinela/internal/bootstrap/config"
	"sentinela/internal/bootstrap/database"
	"sentinela/internal/bootstrap/logging"
	cacheinfra "sentinela/internal/infrastructure/cache"
	"sentinela/internal/infrastructure/notify"
	sqliterepo "sentinela/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "sentinela/internal/infrastructure/persistence/sqlite/uow"
	"sentinela/internal/infrastructure/sharepoint"
	"sentinela/internal/ports"
	"sentinela/internal/transport/httpapi"
	"sentinela/internal/usecase/deviation"
	"sentinela/internal/usecase/session"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewAuditRepository,
			fx.As(new(ports.AuditRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(
		fx.Annotate(
			cacheinfra.NewSQLiteCache,
			fx.As(new(ports.Cache)),
		),
	),
	fx.Provide(provideRegistry),
	fx.Provide(provideListStore),
	fx.Provide(provideNotifier),
	fx.Provide(providePolicy),
	fx.Provide(session.NewManager),
	fx.Provide(provideService),
	fx.Provide(provideServer),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

// provideRegistry hands out the default registerer; the /metrics endpoint
// serves the matching default gatherer.
func provideRegistry() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}

func provideListStore(cfg config.Config, reg prometheus.Registerer) ports.ListStore {
	return sharepoint.NewClient(cfg.Store, sharepoint.NewMetrics(reg))
}

func provideNotifier(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (ports.Notifier, error) {
	notifier, err := notify.NewNATSNotifier(ctx, cfg.Notify)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			notifier.Close()
			return nil
		},
	})
	return notifier, nil
}

func providePolicy(lc fx.Lifecycle, ctx context.Context, cfg config.Config) *deviation.PolicyProvider {
	provider := deviation.NewPolicyProvider(ctx, cfg.Policy)
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return provider.Watch(ctx)
		},
	})
	return provider
}

func provideService(
	cfg config.Config,
	store ports.ListStore,
	cache ports.Cache,
	audit ports.AuditRepository,
	uow ports.UnitOfWork,
	notifier ports.Notifier,
	policy *deviation.PolicyProvider,
	sessions *session.Manager,
	reg prometheus.Registerer,
) *deviation.Service {
	return deviation.NewService(cfg.Store, store, cache, audit, uow, notifier, policy, sessions, deviation.NewMetrics(reg))
}

func provideServer(cfg config.Config, svc *deviation.Service) *httpapi.Server {
	return httpapi.NewServer(cfg.HTTP, svc)
}
