package config

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"sentinela/internal/bootstrap/logging"
	"sentinela/internal/errs"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Store    StoreConfig    `mapstructure:"store"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"database"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Policy   PolicyConfig   `mapstructure:"policy"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

// StoreConfig points at the remote list store and the two named collections.
// Credentials feed an OAuth2 client-credentials token source.
type StoreConfig struct {
	SiteURL        string        `mapstructure:"site_url"`
	UsersList      string        `mapstructure:"users_list"`
	DeviationsList string        `mapstructure:"deviations_list"`
	ClientID       string        `mapstructure:"client_id"`
	ClientSecret   string        `mapstructure:"client_secret"`
	TokenURL       string        `mapstructure:"token_url"`
	ListLimit      int           `mapstructure:"list_limit"`
	RetryAttempts  int           `mapstructure:"retry_attempts"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	BatchWorkers   int           `mapstructure:"batch_workers"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type NotifyConfig struct {
	NATSURL string `mapstructure:"nats_url"`
	Subject string `mapstructure:"subject"`
}

// PolicyConfig names the optional override files for escalation thresholds
// (TOML) and the per-POI reason catalog (YAML).
type PolicyConfig struct {
	EscalationFile string `mapstructure:"escalation_file"`
	ReasonsFile    string `mapstructure:"reasons_file"`
	WatchFiles     bool   `mapstructure:"watch_files"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SENTINELA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			// Keep default and env-backed config when no file is provided.
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if cfg.Store.SiteURL == "" {
		return Config{}, errors.New("store.site_url is required")
	}
	if cfg.Store.UsersList == "" || cfg.Store.DeviationsList == "" {
		return Config{}, errors.New("store.users_list and store.deviations_list are required")
	}
	if cfg.Database.DSN == "" {
		return Config{}, errors.New("database.dsn is required")
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("users_list", cfg.Store.UsersList),
		slog.String("deviations_list", cfg.Store.DeviationsList),
	)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "sentinela")
	v.SetDefault("app.env", "local")

	v.SetDefault("store.site_url", "https://example.sharepoint.com/sites/controleoperacional")
	v.SetDefault("store.users_list", "UsuariosPainelTorre")
	v.SetDefault("store.deviations_list", "Desvios")
	v.SetDefault("store.list_limit", 2000)
	v.SetDefault("store.retry_attempts", 3)
	v.SetDefault("store.retry_delay", 2*time.Second)
	v.SetDefault("store.batch_workers", 5)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.refresh_interval", 5*time.Minute)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", ".sentinela/state/journal.sqlite")

	v.SetDefault("notify.subject", "sentinela.escalations")

	v.SetDefault("policy.watch_files", true)
}
