// Package config loads service settings from flags, environment, an optional
// config.yaml and a .env file.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment variable, e.g. BULKMAIL_HTTP_ADDR.
const EnvPrefix = "BULKMAIL"

// Transport names accepted in mail.transport.
const (
	TransportSMTP   = "smtp"
	TransportResend = "resend"
	TransportNoop   = "noop"
)

// Configuration errors
var (
	ErrNoJWTSecret      = errors.New("jwt.secret is required (set BULKMAIL_JWT_SECRET)")
	ErrUnknownTransport = errors.New("mail.transport must be one of: smtp, resend, noop")
	ErrBadCSRFKey       = errors.New("csrf.key must be 64 hex characters (32 bytes)")
)

// Config is the full service configuration.
type Config struct {
	Env       string          `mapstructure:"env"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	DB        DBConfig        `mapstructure:"db"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	CORS      CORSConfig      `mapstructure:"cors"`
	CSRF      CSRFConfig      `mapstructure:"csrf"`
	Mail      MailConfig      `mapstructure:"mail"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Resend    ResendConfig    `mapstructure:"resend"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Perf      PerfConfig      `mapstructure:"perf"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
}

type CORSConfig struct {
	Origins []string `mapstructure:"origins"`
}

type CSRFConfig struct {
	Key string `mapstructure:"key"` // hex encoded
}

type MailConfig struct {
	Transport string `mapstructure:"transport"`
	From      string `mapstructure:"from"`
}

type SMTPConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxConns int           `mapstructure:"max_conns"`
	TLS      string        `mapstructure:"tls"`
}

type ResendConfig struct {
	APIKey   string `mapstructure:"api_key"`
	MaxConns int    `mapstructure:"max_conns"`
}

// AdminConfig holds the seed-admin credentials. Password has no default.
type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RateLimitConfig struct {
	PerSecond int `mapstructure:"per_second"`
}

type PerfConfig struct {
	SlowRequestMs int `mapstructure:"slow_request_ms"`
	SlowQueryMs   int `mapstructure:"slow_query_ms"`
	RingSize      int `mapstructure:"ring_size"`
}

var defaults = map[string]any{
	"env":                  "development",
	"http.addr":            ":5000",
	"db.path":              "bulkmail.db",
	"jwt.secret":           "",
	"jwt.expiry":           7 * 24 * time.Hour,
	"cors.origins":         []string{},
	"csrf.key":             "",
	"mail.transport":       TransportSMTP,
	"mail.from":            "",
	"smtp.host":            "smtp.gmail.com",
	"smtp.port":            587,
	"smtp.username":        "",
	"smtp.password":        "",
	"smtp.timeout":         10 * time.Second,
	"smtp.max_conns":       5,
	"smtp.tls":             "mandatory",
	"resend.api_key":       "",
	"resend.max_conns":     2,
	"admin.email":          "admin@bulkmail.com",
	"admin.password":       "",
	"log.level":            "info",
	"log.format":           "json",
	"ratelimit.per_second": 10,
	"perf.slow_request_ms": 200,
	"perf.slow_query_ms":   50,
	"perf.ring_size":       4096,
}

// NewViper returns a viper instance with defaults registered and environment
// binding enabled. Every key has a default so env overrides reach Unmarshal.
func NewViper() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadDotEnv loads .env files into the process environment without
// overriding variables already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
		slog.Debug("config_event", "event", "dotenv_loaded", "path", p)
	}
	return nil
}

// Load reads the config file (configFile, or ./config.yaml when present) and
// unmarshals everything into a Config.
// POST: Returns a Config with defaults filled in; Validate is not called
func Load(v *viper.Viper, configFile string) (Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		slog.Debug("config_event", "event", "file_loaded", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.CORS.Origins = splitList(cfg.CORS.Origins)
	return cfg, nil
}

// Validate checks the settings the serve command cannot run without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return ErrNoJWTSecret
	}
	switch c.Mail.Transport {
	case TransportSMTP, TransportResend, TransportNoop:
	default:
		return ErrUnknownTransport
	}
	return nil
}

// IsDevelopment reports whether the service runs in a development environment.
func (c Config) IsDevelopment() bool {
	return c.Env == "" || c.Env == "development" || c.Env == "dev"
}

// CSRFKey decodes csrf.key. In development an empty key is replaced by a
// random one; elsewhere it is an error.
// POST: Returns a 32-byte key or an error
func (c Config) CSRFKey() ([]byte, error) {
	if c.CSRF.Key == "" {
		if !c.IsDevelopment() {
			return nil, ErrBadCSRFKey
		}
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate csrf key: %w", err)
		}
		slog.Warn("config_event", "event", "csrf_key_generated", "reason", "csrf.key not set")
		return key, nil
	}
	key, err := hex.DecodeString(c.CSRF.Key)
	if err != nil || len(key) != 32 {
		return nil, ErrBadCSRFKey
	}
	return key, nil
}

// SlogLevel maps log.level to a slog.Level, defaulting to Info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// splitList flattens comma-separated entries, so a single env value can carry several origins.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
