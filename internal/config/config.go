package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"budget_api"`
	ServerPort  int    `env:"SERVER_PORT" envDefault:"3000"`
	APIPrefix   string `env:"API_PREFIX" envDefault:"/api/v1"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	DBDriver    string `env:"DB_DRIVER" envDefault:"postgres"`
	DatabaseURL string `env:"DATABASE_URL"`
	AutoMigrate bool   `env:"DB_AUTO_MIGRATE" envDefault:"true"`

	JWTAccessSecret  string        `env:"JWT_ACCESS_TOKEN_SECRET"`
	JWTRefreshSecret string        `env:"JWT_REFRESH_TOKEN_SECRET"`
	TokenTTL         time.Duration `env:"TOKEN_TTL" envDefault:"48h"`
	BcryptCost       int           `env:"BCRYPT_COST" envDefault:"10"`

	MinProductPrice float64 `env:"MIN_PRODUCT_PRICE" envDefault:"2"`

	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	ESURL      string `env:"ES_URL"`
	ESUser     string `env:"ES_USER"`
	ESPassword string `env:"ES_PASSWORD"`
	ESIndex    string `env:"ES_INDEX" envDefault:"products"`
}

// Load reads an optional .env file and then the process environment.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil {
		log.Printf("notice: .env file not loaded: %v. Using system environment variables", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, missing("DATABASE_URL"))
	}
	if c.DBDriver != DriverPostgres && c.DBDriver != DriverSQLite {
		errs = append(errs, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.DBDriver))
	}
	if c.JWTAccessSecret == "" {
		errs = append(errs, missing("JWT_ACCESS_TOKEN_SECRET"))
	}
	if c.JWTRefreshSecret == "" {
		errs = append(errs, missing("JWT_REFRESH_TOKEN_SECRET"))
	}
	if c.JWTAccessSecret != "" && c.JWTAccessSecret == c.JWTRefreshSecret {
		errs = append(errs, errors.New("JWT_ACCESS_TOKEN_SECRET and JWT_REFRESH_TOKEN_SECRET must differ"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST out of range: %d", c.BcryptCost))
	}
	if c.MinProductPrice < 0 {
		errs = append(errs, errors.New("MIN_PRODUCT_PRICE cannot be negative"))
	}

	return errors.Join(errs...)
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

func (c *Config) AccessSecret() []byte  { return []byte(c.JWTAccessSecret) }
func (c *Config) RefreshSecret() []byte { return []byte(c.JWTRefreshSecret) }

func missing(name string) error {
	return fmt.Errorf("missing required env %s", name)
}
