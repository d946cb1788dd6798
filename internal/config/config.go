package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv    string          `env:"APP_ENV" envDefault:"development"`
	LogLevel  int             `env:"LOG_LEVEL" envDefault:"0"`
	HTTP      HTTPConfig
	Auth      AuthConfig
	Postgres  PostgresConfig
	RateLimit RateLimitConfig
}

type HTTPConfig struct {
	Port           string        `env:"PORT" envDefault:"3000"`
	BodyLimitBytes int64         `env:"BODY_LIMIT_BYTES" envDefault:"10240"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	ShutdownGrace  time.Duration `env:"SHUTDOWN_GRACE" envDefault:"10s"`
}

type AuthConfig struct {
	JWTSecret     string        `env:"JWT_SECRET"`
	JWTExpiresIn  time.Duration `env:"JWT_EXPIRES_IN" envDefault:"24h"`
	APIKeyTTL     time.Duration `env:"API_KEY_TTL" envDefault:"2160h"`
	BcryptCost    int           `env:"BCRYPT_COST" envDefault:"12"`
	AdminEmail    string        `env:"ADMIN_EMAIL"`
	AdminPassword string        `env:"ADMIN_PASSWORD"`
	AdminName     string        `env:"ADMIN_NAME" envDefault:"Administrator"`
}

type PostgresConfig struct {
	DatabaseURL string `env:"DATABASE_URL"`
	Host        string `env:"PGHOST" envDefault:"localhost"`
	Port        string `env:"PGPORT" envDefault:"5432"`
	User        string `env:"PGUSER"`
	Password    string `env:"PGPASSWORD"`
	Database    string `env:"PGDATABASE"`
	SSLMode     string `env:"PGSSLMODE" envDefault:"disable"`
}

type RateLimitConfig struct {
	RedisURL string        `env:"REDIS_URL"`
	Max      int           `env:"RATE_LIMIT_MAX" envDefault:"100"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1h"`
}

// Load reads an optional .env file and then the process environment.
// Variables already present in the environment win over the file.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsTest() bool {
	return c.AppEnv == "test"
}

// DSN returns DATABASE_URL when set, otherwise a URL assembled from the PG* variables.
func (p PostgresConfig) DSN() (string, error) {
	if p.DatabaseURL != "" {
		return p.DatabaseURL, nil
	}

	if p.User == "" || p.Database == "" {
		return "", fmt.Errorf("missing required env: DATABASE_URL or PGUSER/PGDATABASE")
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(p.Host, p.Port),
		Path:   p.Database,
	}
	if p.Password == "" {
		u.User = url.User(p.User)
	} else {
		u.User = url.UserPassword(p.User, p.Password)
	}
	q := u.Query()
	q.Set("sslmode", p.SSLMode)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
