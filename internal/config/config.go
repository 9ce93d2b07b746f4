package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"granttrack/internal/errors"

	"github.com/go-playground/validator/v10"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Log      LogConfig
	Matching MatchingConfig
	Balancer BalancerConfig
	Columns  ColumnConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int `validate:"min=1"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string `validate:"required"`
	GinMode string `validate:"oneof=debug release test"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `validate:"oneof=ERROR WARN INFO DEBUG TRACE"`
}

// MatchingConfig tunes the cross-cycle matcher
type MatchingConfig struct {
	Threshold   float64 `validate:"gt=0,lte=1"`
	Concurrency int     `validate:"min=1,max=64"`
}

// BalancerConfig holds assignment balancer defaults
type BalancerConfig struct {
	DefaultReviewersPerProposal int `validate:"min=1"`
	RotateTies                  bool
}

// ColumnConfig holds match-column inference weights
type ColumnConfig struct {
	HintBonus          float64 `validate:"gte=0"`
	FilePenalty        float64 `validate:"gte=0"`
	FalsePositiveRatio float64 `validate:"gt=0,lte=1"`
}

// Load reads configuration for the API server; DATABASE_URL is required
func Load() (*Config, error) {
	return load(true)
}

// LoadOffline reads configuration for tools that run without a database
func LoadOffline() (*Config, error) {
	return load(false)
}

func load(requireDatabase bool) (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 10),
		},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "debug"),
		},
		Log: LogConfig{
			Level: strings.ToUpper(getEnvOrDefault("LOG_LEVEL", "INFO")),
		},
		Matching: MatchingConfig{
			Threshold:   getEnvFloatOrDefault("MATCH_THRESHOLD", 0.7),
			Concurrency: getEnvIntOrDefault("MATCH_CONCURRENCY", 4),
		},
		Balancer: BalancerConfig{
			DefaultReviewersPerProposal: getEnvIntOrDefault("DEFAULT_REVIEWERS_PER_PROPOSAL", 2),
			RotateTies:                  getEnvBoolOrDefault("BALANCER_ROTATE_TIES", true),
		},
		Columns: ColumnConfig{
			HintBonus:          getEnvFloatOrDefault("COLUMN_HINT_BONUS", 40),
			FilePenalty:        getEnvFloatOrDefault("COLUMN_FILE_PENALTY", 200),
			FalsePositiveRatio: getEnvFloatOrDefault("COLUMN_FALSE_POSITIVE_RATIO", 0.5),
		},
	}

	if requireDatabase && config.Database.URL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

var validate = validator.New()

func validateConfig(config *Config) error {
	if err := validate.Struct(config); err != nil {
		var msgs []string
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
			}
		} else {
			msgs = append(msgs, err.Error())
		}
		return errors.ConfigInvalid(strings.Join(msgs, "; "))
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
