package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Datolla/geospot-react/internal/appcontext"
	"github.com/Datolla/geospot-react/internal/entity"
	"github.com/Datolla/geospot-react/internal/ingest"
	"github.com/Datolla/geospot-react/internal/store"
)

const (
	defaultMaxUploadBytes  = 10 << 20 // 10 MiB
	defaultMaxPageSize     = 1000
	defaultDefaultPageSize = 50
)

func InitContext() (*appcontext.Context, error) {
	if err := godotenv.Load(); err != nil {
		zap.L().Warn("No .env file found, using environment variables")
	}

	logger, err := InitLogger()
	if err != nil {
		return nil, err
	}

	cfg := loadConfig()

	db, err := InitDB()
	if err != nil {
		return nil, err
	}

	datasetStore := store.NewGormStore(db, cfg.MaxPageSize)
	pipeline := ingest.NewPipeline(datasetStore, logger, cfg.MaxUploadBytes)

	ctx := &appcontext.Context{
		DB:     db,
		Logger: logger,
		Config: cfg,

		Store:    datasetStore,
		Pipeline: pipeline,
	}

	return ctx, nil
}

func loadConfig() appcontext.Config {
	cfg := appcontext.Config{
		Port:            os.Getenv("PORT"),
		Environment:     os.Getenv("ENVIRONMENT"),
		MaxUploadBytes:  defaultMaxUploadBytes,
		MaxPageSize:     defaultMaxPageSize,
		DefaultPageSize: defaultDefaultPageSize,
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = strings.Split(origins, ",")
	}
	if raw := os.Getenv("MAX_UPLOAD_BYTES"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil && v > 0 {
			cfg.MaxUploadBytes = v
		}
	}
	if raw := os.Getenv("MAX_PAGE_SIZE"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			cfg.MaxPageSize = v
		}
	}
	return cfg
}

func InitDB() (*gorm.DB, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS postgis").Error; err != nil {
		return nil, fmt.Errorf("failed to enable postgis extension: %w", err)
	}
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}

	if err := db.AutoMigrate(&entity.Dataset{}, &entity.Feature{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

func InitLogger() (*zap.Logger, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
