package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN               string
	Environment         string
	MigrationsPath      string
	HourlyRate          float64
	MaterializeInterval time.Duration
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		DBDSN:               os.Getenv("DB_DSN"),
		Environment:         os.Getenv("ENV"),
		MigrationsPath:      os.Getenv("MIGRATIONS_PATH"),
		HourlyRate:          25.0,
		MaterializeInterval: 24 * time.Hour,
	}

	// Дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "migrations"
	}

	if raw := os.Getenv("HOURLY_RATE"); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("HOURLY_RATE is not a number: %w", err)
		}
		cfg.HourlyRate = rate
	}

	if raw := os.Getenv("MATERIALIZE_INTERVAL"); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("MATERIALIZE_INTERVAL is not a duration: %w", err)
		}
		cfg.MaterializeInterval = interval
	}

	// Обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	return cfg, nil
}
