package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	DBDriver   string `env:"DB_DRIVER" envDefault:"mysql"`
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"3306"`
	DBUser     string `env:"DB_USER" envDefault:"macrotrack"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"macrotrack_pass"`
	DBName     string `env:"DB_NAME" envDefault:"macrotrack"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"macrotrack.db"`

	JWTSecret      string        `env:"JWT_SECRET"`
	TokenTTL       time.Duration `env:"TOKEN_TTL" envDefault:"120h"`
	APIKey         string        `env:"API_KEY"`
	AllowedOrigins string        `env:"ALLOWED_ORIGINS" envDefault:"*"`
	TrustProxy     bool          `env:"TRUST_PROXY" envDefault:"false"`

	ResendAPIKey string `env:"RESEND_API_KEY"`
	MailFrom     string `env:"MAIL_FROM" envDefault:"MacroTrack <no-reply@macrotrack.app>"`

	USDAAPIKey      string        `env:"USDA_API_KEY" envDefault:"DEMO_KEY"`
	USDABaseURL     string        `env:"USDA_BASE_URL" envDefault:"https://api.nal.usda.gov"`
	OFFBaseURL      string        `env:"OFF_BASE_URL" envDefault:"https://world.openfoodfacts.org"`
	FoodHTTPTimeout time.Duration `env:"FOOD_HTTP_TIMEOUT" envDefault:"8s"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"24h"`

	CalorieFloorKcal float64 `env:"CALORIE_FLOOR_KCAL" envDefault:"1200"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}
	return Parse()
}

// Parse builds a Config from the process environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable must be set")
	}
	switch c.DBDriver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be mysql or sqlite, got %q", c.DBDriver)
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.CalorieFloorKcal <= 0 {
		return errors.New("CALORIE_FLOOR_KCAL must be positive")
	}
	return nil
}

func (c *Config) DSN() string {
	mc := mysql.NewConfig()
	mc.User = c.DBUser
	mc.Passwd = c.DBPassword
	mc.Net = "tcp"
	mc.Addr = c.DBHost + ":" + c.DBPort
	mc.DBName = c.DBName
	mc.ParseTime = true
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}
