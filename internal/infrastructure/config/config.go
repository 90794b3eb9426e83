// Package config loads settings from config.toml, an optional .env file and
// RENTAL_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "RENTAL"

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Billing   BillingConfig   `mapstructure:"billing"`
	Tariff    TariffConfig    `mapstructure:"tariff"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Printing  PrintingConfig  `mapstructure:"printing"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
	Output string `mapstructure:"output"` // stdout, stderr or a file path
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DatabaseConfig covers both drivers. Path is the sqlite file; the network
// fields are postgres only.
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Path            string `mapstructure:"path"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
}

// RedisConfig is optional; without it revocations and bill caching stay
// in process.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret                 string        `mapstructure:"secret"`
	RefreshSecret          string        `mapstructure:"refresh_secret"`
	AccessTokenExpiration  time.Duration `mapstructure:"access_token_expiration"`
	RefreshTokenExpiration time.Duration `mapstructure:"refresh_token_expiration"`
	Issuer                 string        `mapstructure:"issuer"`
	MaxRefreshCount        int           `mapstructure:"max_refresh_count"`
}

type HTTPConfig struct {
	ReadTimeout           time.Duration `mapstructure:"read_timeout"`
	WriteTimeout          time.Duration `mapstructure:"write_timeout"`
	IdleTimeout           time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout        time.Duration `mapstructure:"request_timeout"`
	MaxHeaderBytes        int           `mapstructure:"max_header_bytes"`
	MaxBodySize           int64         `mapstructure:"max_body_size"`
	MaxUploadSize         int64         `mapstructure:"max_upload_size"`
	RateLimitEnabled      bool          `mapstructure:"rate_limit_enabled"`
	RateLimitRPS          float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst        int           `mapstructure:"rate_limit_burst"`
	AuthRateLimitEnabled  bool          `mapstructure:"auth_rate_limit_enabled"`
	AuthRateLimitRequests int           `mapstructure:"auth_rate_limit_requests"`
	AuthRateLimitWindow   time.Duration `mapstructure:"auth_rate_limit_window"`
	// An empty origin list refuses every cross-origin request
	CORSAllowOrigins []string `mapstructure:"cors_allow_origins"`
	CORSAllowMethods []string `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders []string `mapstructure:"cors_allow_headers"`
	TrustedProxies   []string `mapstructure:"trusted_proxies"`
}

type BillingConfig struct {
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
	StreamHeartbeat  time.Duration `mapstructure:"stream_heartbeat"`
	StreamMaxClients int           `mapstructure:"stream_max_clients"`
}

const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// StorageConfig selects where contract PDFs are written
type StorageConfig struct {
	Driver            string        `mapstructure:"driver"`
	LocalDir          string        `mapstructure:"local_dir"`
	LocalBaseURL      string        `mapstructure:"local_base_url"`
	Endpoint          string        `mapstructure:"endpoint"`
	Region            string        `mapstructure:"region"`
	Bucket            string        `mapstructure:"bucket"`
	AccessKeyID       string        `mapstructure:"access_key_id"`
	SecretAccessKey   string        `mapstructure:"secret_access_key"`
	UsePathStyle      bool          `mapstructure:"use_path_style"`
	PresignExpiration time.Duration `mapstructure:"presign_expiration"`
}

type PrintingConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	ChromePath    string        `mapstructure:"chrome_path"` // empty means auto-detect
	RemoteURL     string        `mapstructure:"remote_url"`  // ws://host:9222
	NoSandbox     bool          `mapstructure:"no_sandbox"`
	RenderTimeout time.Duration `mapstructure:"render_timeout"`
}

const (
	MetricsExporterOTLP       = "otlp"
	MetricsExporterPrometheus = "prometheus"
)

// TelemetryConfig switches each signal on separately. Traces, OTLP metrics
// and logs all go to CollectorEndpoint.
type TelemetryConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	CollectorEndpoint string  `mapstructure:"collector_endpoint"`
	SamplingRatio     float64 `mapstructure:"sampling_ratio"`
	ServiceName       string  `mapstructure:"service_name"`
	Insecure          bool    `mapstructure:"insecure"`

	MetricsEnabled        bool          `mapstructure:"metrics_enabled"`
	MetricsExporter       string        `mapstructure:"metrics_exporter"`
	MetricsExportInterval time.Duration `mapstructure:"metrics_export_interval"`

	LogsEnabled bool `mapstructure:"logs_enabled"`

	ProfilingEnabled  bool   `mapstructure:"profiling_enabled"`
	ProfilingServer   string `mapstructure:"profiling_server"`
	ProfilingAuthUser string `mapstructure:"profiling_auth_user"`
	ProfilingAuthPass string `mapstructure:"profiling_auth_pass"`

	DBTraceEnabled    bool          `mapstructure:"db_trace_enabled"`
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"`
	DBSlowQueryThresh time.Duration `mapstructure:"db_slow_query_threshold"`
}

// defaults registers every key with viper. A key viper does not know is
// never looked up in the environment by Unmarshal, so secrets get "" here.
var defaults = map[string]any{
	"app.name": "rental-backend",
	"app.env":  "development",
	"app.port": "8080",

	"database.driver":             DriverSQLite,
	"database.path":               "rental.db",
	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "rental",
	"database.sslmode":            "disable",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  60,
	"database.conn_max_idle_time": 30,

	"redis.enabled":  false,
	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"jwt.secret":                   "",
	"jwt.refresh_secret":           "",
	"jwt.access_token_expiration":  15 * time.Minute,
	"jwt.refresh_token_expiration": 7 * 24 * time.Hour,
	"jwt.issuer":                   "rental-backend",
	"jwt.max_refresh_count":        10,

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"http.read_timeout":             15 * time.Second,
	"http.write_timeout":            30 * time.Second,
	"http.idle_timeout":             60 * time.Second,
	"http.request_timeout":          30 * time.Second,
	"http.max_header_bytes":         1 << 20,
	"http.max_body_size":            1 << 20,
	"http.max_upload_size":          10 << 20,
	"http.rate_limit_enabled":       false,
	"http.rate_limit_rps":           20.0,
	"http.rate_limit_burst":         40,
	"http.auth_rate_limit_enabled":  false,
	"http.auth_rate_limit_requests": 5,
	"http.auth_rate_limit_window":   time.Minute,
	"http.cors_allow_origins":       []string{},
	"http.cors_allow_methods":       []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
	"http.cors_allow_headers":       []string{"Content-Type", "Authorization", "X-Request-ID"},
	"http.trusted_proxies":          []string{},

	"billing.cache_ttl":          time.Hour,
	"billing.stream_heartbeat":   30 * time.Second,
	"billing.stream_max_clients": 100,

	"tariff.scale":    0,
	"tariff.rounding": "",
	"tariff.file":     "",

	"storage.driver":             StorageLocal,
	"storage.local_dir":          "./data/files",
	"storage.local_base_url":     "/files",
	"storage.endpoint":           "",
	"storage.region":             "us-east-1",
	"storage.bucket":             "",
	"storage.access_key_id":      "",
	"storage.secret_access_key":  "",
	"storage.use_path_style":     false,
	"storage.presign_expiration": 15 * time.Minute,

	"printing.enabled":        false,
	"printing.chrome_path":    "",
	"printing.remote_url":     "",
	"printing.no_sandbox":     false,
	"printing.render_timeout": 30 * time.Second,

	"telemetry.enabled":                 false,
	"telemetry.collector_endpoint":      "localhost:4317",
	"telemetry.sampling_ratio":          1.0,
	"telemetry.service_name":            "",
	"telemetry.insecure":                false,
	"telemetry.metrics_enabled":         false,
	"telemetry.metrics_exporter":        MetricsExporterPrometheus,
	"telemetry.metrics_export_interval": time.Minute,
	"telemetry.logs_enabled":            false,
	"telemetry.profiling_enabled":       false,
	"telemetry.profiling_server":        "http://localhost:4040",
	"telemetry.profiling_auth_user":     "",
	"telemetry.profiling_auth_pass":     "",
	"telemetry.db_trace_enabled":        false,
	"telemetry.db_log_full_sql":         false,
	"telemetry.db_slow_query_threshold": 200 * time.Millisecond,
}

// Load reads config.toml from ".", "./config" or /etc/rental, then .env,
// then the environment (RENTAL_DATABASE_DRIVER overrides database.driver).
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	for _, dir := range []string{".", "./config", "/etc/rental"} {
		v.AddConfigPath(dir)
	}
	var notFound viper.ConfigFileNotFoundError
	if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}

	tiers, err := tiersFromViper(v)
	if err != nil {
		return nil, err
	}
	cfg.Tariff.Tiers = tiers
	if cfg.Tariff.File != "" {
		doc, err := LoadTariffFile(cfg.Tariff.File)
		if err != nil {
			return nil, err
		}
		cfg.Tariff.merge(doc)
	}
	cfg.Tariff.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate reports every problem at once
func (c *Config) validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	db := c.Database
	check(db.Driver == DriverSQLite || db.Driver == DriverPostgres,
		"database.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, db.Driver)
	check(db.MaxOpenConns > 0, "database.max_open_conns must be positive")
	check(db.MaxIdleConns >= 0, "database.max_idle_conns cannot be negative")
	check(db.MaxIdleConns <= db.MaxOpenConns,
		"database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)", db.MaxIdleConns, db.MaxOpenConns)

	switch c.Storage.Driver {
	case StorageLocal:
	case StorageS3:
		check(c.Storage.Bucket != "", "storage.bucket is required for the s3 driver")
	default:
		check(false, "storage.driver must be %q or %q, got %q", StorageLocal, StorageS3, c.Storage.Driver)
	}

	check(c.HTTP.RateLimitRPS >= 0 && c.HTTP.RateLimitBurst >= 0,
		"http.rate_limit_rps and http.rate_limit_burst cannot be negative")
	check(c.Telemetry.SamplingRatio >= 0 && c.Telemetry.SamplingRatio <= 1,
		"telemetry.sampling_ratio must be between 0 and 1, got %g", c.Telemetry.SamplingRatio)
	check(c.Telemetry.MetricsExporter == MetricsExporterOTLP || c.Telemetry.MetricsExporter == MetricsExporterPrometheus,
		"telemetry.metrics_exporter must be %q or %q, got %q",
		MetricsExporterOTLP, MetricsExporterPrometheus, c.Telemetry.MetricsExporter)

	if _, err := c.Tariff.Schedule(); err != nil {
		errs = append(errs, fmt.Errorf("invalid tariff: %w", err))
	}

	if c.IsProduction() {
		check(len(c.JWT.Secret) >= 32, "jwt.secret must be at least 32 characters in production")
		if db.Driver == DriverPostgres {
			check(db.Password != "", "database.password is required in production")
			check(db.SSLMode != "disable", "database.sslmode cannot be disable in production")
		}
		check(!slices.Contains(c.HTTP.CORSAllowOrigins, "*"), "http.cors_allow_origins cannot contain * in production")
		check(!c.Telemetry.DBLogFullSQL, "telemetry.db_log_full_sql would put tenant data into traces; disable it in production")
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN is the sqlite file path or an escaped postgres URL
func (d *DatabaseConfig) DSN() string {
	if d.Driver == DriverSQLite {
		return d.Path
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// MigrateURL is the golang-migrate source URL for the same database
func (d *DatabaseConfig) MigrateURL() string {
	if d.Driver == DriverSQLite {
		return "sqlite3://" + d.Path
	}
	return d.DSN()
}
