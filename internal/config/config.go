package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/crypto/bcrypt"
)

// Store backends.
const (
	BackendDynamoDB = "dynamodb"
	BackendPostgres = "postgres"
)

// Password hashers.
const (
	HasherBcrypt   = "bcrypt"
	HasherArgon2id = "argon2id"
)

var supportedAlgorithms = map[string]bool{"HS256": true, "HS384": true, "HS512": true}

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Version  string `envconfig:"VERSION" default:"dev"`

	SecretKey      string        `envconfig:"SECRET_KEY" required:"true"`
	TokenAlgorithm string        `envconfig:"TOKEN_ALGORITHM" default:"HS256"`
	TokenTTL       time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
	PasswordHasher string        `envconfig:"PASSWORD_HASHER" default:"bcrypt"`
	BcryptCost     int           `envconfig:"BCRYPT_COST" default:"12"`

	StoreBackend       string `envconfig:"STORE_BACKEND" default:"dynamodb"`
	AWSRegion          string `envconfig:"AWS_REGION" default:"us-east-1"`
	DynamoEndpoint     string `envconfig:"DYNAMODB_ENDPOINT" default:""`
	DynamoAccessKeyID  string `envconfig:"DYNAMODB_ACCESS_KEY_ID" default:""`
	DynamoSecretKey    string `envconfig:"DYNAMODB_SECRET_ACCESS_KEY" default:""`
	DynamoCreateTables bool   `envconfig:"DYNAMODB_CREATE_TABLES" default:"false"`
	UsersTable         string `envconfig:"USERS_TABLE" default:"users"`
	UsernameIndex      string `envconfig:"USERNAME_INDEX" default:"username-index"`
	EmailIndex         string `envconfig:"EMAIL_INDEX" default:"email-index"`
	TodosTable         string `envconfig:"TODOS_TABLE" default:"todos"`
	DatabaseURL        string `envconfig:"DATABASE_URL" default:""`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	AdminUsername string `envconfig:"ADMIN_USERNAME" default:""`
	AdminEmail    string `envconfig:"ADMIN_EMAIL" default:""`
	AdminPassword string `envconfig:"ADMIN_PASSWORD" default:""`
}

// Load reads an optional .env file, then environment variables into a Config
// struct, and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY must not be empty")
	}
	if !supportedAlgorithms[c.TokenAlgorithm] {
		return fmt.Errorf("unsupported TOKEN_ALGORITHM %q", c.TokenAlgorithm)
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}

	switch c.PasswordHasher {
	case HasherBcrypt:
		if c.BcryptCost < bcrypt.DefaultCost || c.BcryptCost > bcrypt.MaxCost {
			return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.DefaultCost, bcrypt.MaxCost)
		}
	case HasherArgon2id:
	default:
		return fmt.Errorf("unsupported PASSWORD_HASHER %q", c.PasswordHasher)
	}

	switch c.StoreBackend {
	case BackendDynamoDB:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q", c.StoreBackend)
	}

	return nil
}

// HasBootstrapAdmin reports whether all bootstrap admin settings are present.
func (c *Config) HasBootstrapAdmin() bool {
	return c.AdminUsername != "" && c.AdminEmail != "" && c.AdminPassword != ""
}
