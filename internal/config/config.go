package config

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/avolkov/bookstore/internal/hash"
	"github.com/avolkov/bookstore/internal/models"
)

type Config struct {
	HTTP_ADDR   string
	LOG_LEVEL   string
	DB_HOST     string
	DB_PORT     string
	DB_USER     string
	DB_PASSWORD string
	DB_NAME     string
	ES_URL      string
	ES_USER     string
	ES_PASSWORD string
	ES_INDEX    string

	KAFKA_ADDRESS string

	SESSION_TTL_HOURS string

	SEED_USER_USERNAME  string
	SEED_USER_PASSWORD  string
	SEED_ADMIN_USERNAME string
	SEED_ADMIN_PASSWORD string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		HTTP_ADDR:   os.Getenv("HTTP_ADDR"),
		LOG_LEVEL:   os.Getenv("LOG_LEVEL"),
		DB_HOST:     os.Getenv("DB_HOST"),
		DB_PORT:     os.Getenv("DB_PORT"),
		DB_USER:     os.Getenv("DB_USER"),
		DB_PASSWORD: os.Getenv("DB_PASSWORD"),
		DB_NAME:     os.Getenv("DB_NAME"),
		ES_URL:      os.Getenv("ES_URL"),
		ES_USER:     os.Getenv("ES_USER"),
		ES_PASSWORD: os.Getenv("ES_PASSWORD"),
		ES_INDEX:    os.Getenv("ES_INDEX"),

		KAFKA_ADDRESS: os.Getenv("KAFKA_ADDRESS"),

		SESSION_TTL_HOURS: os.Getenv("SESSION_TTL_HOURS"),

		SEED_USER_USERNAME:  os.Getenv("SEED_USER_USERNAME"),
		SEED_USER_PASSWORD:  os.Getenv("SEED_USER_PASSWORD"),
		SEED_ADMIN_USERNAME: os.Getenv("SEED_ADMIN_USERNAME"),
		SEED_ADMIN_PASSWORD: os.Getenv("SEED_ADMIN_PASSWORD"),
	}

	if config.HTTP_ADDR == "" {
		config.HTTP_ADDR = ":8080"
	}
	if config.ES_INDEX == "" {
		config.ES_INDEX = "books"
	}

	return config, nil
}

// SessionTTL returns the configured session lifetime, defaulting to 24h.
func (c *Config) SessionTTL() time.Duration {
	hours, err := strconv.Atoi(c.SESSION_TTL_HOURS)
	if err != nil || hours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(hours) * time.Hour
}

func InitDB() (*gorm.DB, error) {
	configuration, _ := LoadConfig()

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		configuration.DB_USER,
		configuration.DB_PASSWORD,
		configuration.DB_HOST,
		configuration.DB_PORT,
		configuration.DB_NAME,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("database connect failed: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Book{},
		&models.Cart{},
		&models.CartItem{},
		&models.Session{},
	)
}

// SeedUsers inserts the predefined local accounts when the SEED_*
// variables are set. Existing rows are left untouched.
func SeedUsers(db *gorm.DB, cfg *Config, logger *slog.Logger) error {
	seeds := []struct {
		username, password, role string
	}{
		{cfg.SEED_USER_USERNAME, cfg.SEED_USER_PASSWORD, models.RoleUser},
		{cfg.SEED_ADMIN_USERNAME, cfg.SEED_ADMIN_PASSWORD, models.RoleAdmin},
	}

	for _, s := range seeds {
		if s.username == "" {
			continue
		}
		hashed, err := hash.HashPassword(s.password)
		if err != nil {
			return err
		}
		var user models.User
		res := db.Where(models.User{Username: s.username}).
			Attrs(models.User{PasswordHash: hashed, Role: s.role}).
			FirstOrCreate(&user)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			logger.Info("seeded predefined user", "username", s.username, "role", s.role)
		}
	}
	return nil
}
