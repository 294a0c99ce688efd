package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// MinBcryptCost is the lowest bcrypt cost the server accepts.
const MinBcryptCost = 12

// Config holds all configuration for the deadline tracker API.
// Configuration can come from an optional YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (database URL, JWT secret, SMTP and Firebase keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"0.0.0.0"`
	Port     string `yaml:"port" env:"PORT" env-default:"3001"`
	Env      string `yaml:"env" env:"ENV" env-default:"development"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// MaxBodySize caps JSON request bodies in bytes.
	MaxBodySize int64 `yaml:"max_body_size" env:"MAX_BODY_SIZE" env-default:"10485760"`

	// MigrationsPath is the directory holding golang-migrate SQL files.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`

	// SeedFile optionally points to a YAML file of users created at startup.
	SeedFile string `yaml:"seed_file" env:"SEED_FILE" env-default:""`

	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Redis     RedisConfig     `yaml:"redis"`
	Firebase  FirebaseConfig  `yaml:"firebase"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	Upload    UploadConfig    `yaml:"upload"`
	CORS      CORSConfig      `yaml:"cors"`
	Reminders RemindersConfig `yaml:"reminders"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	URL            string        `yaml:"-" env:"DATABASE_URL"` // Secret - not in YAML
	MaxConnections int32         `yaml:"max_connections" env:"DB_MAX_CONNECTIONS" env-default:"25"`
	MaxConnIdle    time.Duration `yaml:"max_conn_idle" env:"DB_MAX_CONN_IDLE" env-default:"30m"`
}

// AuthConfig holds password hashing and token signing configuration.
type AuthConfig struct {
	JWTSecret    string `yaml:"-" env:"JWT_SECRET" env-default:"your-secret-key"`
	JWTExpiresIn string `yaml:"jwt_expires_in" env:"JWT_EXPIRES_IN" env-default:"7d"`
	BcryptCost   int    `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"12"`

	// TokenTTL is parsed from JWTExpiresIn (not from config file).
	TokenTTL time.Duration `yaml:"-"`
}

// RedisConfig configures the optional token denylist. An empty host disables it.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// FirebaseConfig holds service account fields for push delivery.
type FirebaseConfig struct {
	ProjectID   string `yaml:"project_id" env:"FIREBASE_PROJECT_ID" env-default:""`
	PrivateKey  string `yaml:"-" env:"FIREBASE_PRIVATE_KEY"`
	ClientEmail string `yaml:"client_email" env:"FIREBASE_CLIENT_EMAIL" env-default:""`
}

// IsConfigured returns true when all service account fields are present.
func (f *FirebaseConfig) IsConfigured() bool {
	return f.ProjectID != "" && f.PrivateKey != "" && f.ClientEmail != ""
}

// SMTPConfig holds outgoing mail settings for email reminders.
type SMTPConfig struct {
	Host string `yaml:"host" env:"SMTP_HOST" env-default:""`
	Port int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	User string `yaml:"user" env:"SMTP_USER" env-default:""`
	Pass string `yaml:"-" env:"SMTP_PASS"`
	From string `yaml:"from" env:"SMTP_FROM" env-default:""`
}

// IsConfigured returns true if an SMTP host is set.
func (s *SMTPConfig) IsConfigured() bool {
	return s.Host != ""
}

// Sender returns the envelope sender, falling back to the SMTP user.
func (s *SMTPConfig) Sender() string {
	if s.From != "" {
		return s.From
	}
	return s.User
}

// UploadConfig controls where task attachments are stored.
type UploadConfig struct {
	Dir         string `yaml:"dir" env:"UPLOAD_DIR" env-default:"./uploads"`
	MaxFileSize int64  `yaml:"max_file_size" env:"MAX_FILE_SIZE" env-default:"10485760"`
}

// CORSConfig lists browser origins allowed to call the API.
type CORSConfig struct {
	FrontendURL       string `yaml:"frontend_url" env:"FRONTEND_URL" env-default:"http://localhost:5173"`
	AllowedOriginsStr string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:""`

	// AllowedOrigins is parsed from FrontendURL and AllowedOriginsStr (not from config file).
	AllowedOrigins []string `yaml:"-"`
}

// RemindersConfig controls the background reminder dispatcher.
type RemindersConfig struct {
	DispatchEnabled  bool          `yaml:"dispatch_enabled" env:"REMINDERS_DISPATCH_ENABLED" env-default:"false"`
	DispatchInterval time.Duration `yaml:"dispatch_interval" env:"REMINDERS_DISPATCH_INTERVAL" env-default:"1m"`
	BatchSize        int           `yaml:"batch_size" env:"REMINDERS_BATCH_SIZE" env-default:"50"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.BindAddr + ":" + c.Port
}

// Load reads configuration from config.yaml (if present) with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.parseComplexFields(); err != nil {
		return nil, fmt.Errorf("failed to parse config fields: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// parseComplexFields handles fields that need post-processing after loading.
func (c *Config) parseComplexFields() error {
	ttl, err := ParseExpiry(c.Auth.JWTExpiresIn)
	if err != nil {
		return fmt.Errorf("JWT_EXPIRES_IN: %w", err)
	}
	c.Auth.TokenTTL = ttl

	c.CORS.AllowedOrigins = parseOrigins(c.CORS.FrontendURL, c.CORS.AllowedOriginsStr)

	// Private keys pasted into env files usually carry escaped newlines.
	c.Firebase.PrivateKey = strings.ReplaceAll(c.Firebase.PrivateKey, `\n`, "\n")
	return nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.Auth.BcryptCost < MinBcryptCost {
		return fmt.Errorf("BCRYPT_COST must be at least %d, got %d", MinBcryptCost, c.Auth.BcryptCost)
	}
	if c.Upload.MaxFileSize <= 0 {
		return errors.New("MAX_FILE_SIZE must be positive")
	}
	if c.Reminders.DispatchEnabled && c.Reminders.DispatchInterval <= 0 {
		return errors.New("REMINDERS_DISPATCH_INTERVAL must be positive when dispatch is enabled")
	}
	return nil
}

// ParseExpiry parses a token lifetime. It accepts Go durations ("90m", "12h")
// and whole-day values with a "d" suffix ("7d").
func ParseExpiry(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, errors.New("empty duration")
	}

	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid day count %q", value)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %q", value)
	}
	return d, nil
}

// parseOrigins merges the frontend URL with a comma-separated origin list, dropping duplicates.
func parseOrigins(frontendURL, value string) []string {
	seen := make(map[string]bool)
	var origins []string

	add := func(origin string) {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "" || seen[origin] {
			return
		}
		seen[origin] = true
		origins = append(origins, origin)
	}

	add(frontendURL)
	for _, origin := range strings.Split(value, ",") {
		add(origin)
	}
	return origins
}
