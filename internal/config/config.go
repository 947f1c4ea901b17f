package config

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/sethvargo/go-envconfig"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mkosyrev/product-store/internal/hash"
	"github.com/mkosyrev/product-store/internal/models"
)

type Config struct {
	Port      string `env:"PORT, default=8080"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	DBHost     string `env:"DB_HOST, default=localhost"`
	DBPort     string `env:"DB_PORT, default=5432"`
	DBUser     string `env:"DB_USER, default=postgres"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME, default=product_store"`

	// Base64-encoded HMAC key phrases, one per token class.
	AccessPhrase  string `env:"ACCESS_PHRASE, required"`
	RefreshPhrase string `env:"REFRESH_PHRASE, required"`

	KafkaAddress string `env:"KAFKA_ADDRESS"`

	ESURL      string `env:"ES_URL"`
	ESUser     string `env:"ES_USER"`
	ESPassword string `env:"ES_PASSWORD"`

	// Optional bootstrap admin, created at startup when absent.
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminName     string `env:"ADMIN_NAME, default=admin"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("config: connect database: %w", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Product{}); err != nil {
		return nil, fmt.Errorf("config: migrate: %w", err)
	}
	return db, nil
}

// SeedAdmin creates the bootstrap admin account when ADMIN_EMAIL and
// ADMIN_PASSWORD are set and no user with that email exists yet.
func SeedAdmin(db *gorm.DB, cfg *Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	var existing models.User
	err := db.Where("email = ?", cfg.AdminEmail).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("config: seed admin lookup: %w", err)
	}

	passwordHash, err := hash.HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("config: seed admin hash: %w", err)
	}

	admin := models.User{
		Email:        cfg.AdminEmail,
		Name:         cfg.AdminName,
		PasswordHash: passwordHash,
		Role:         models.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("config: seed admin create: %w", err)
	}
	return nil
}
