package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultJWTSecret = "supersecretjwtkey"

type Config struct {
	Port                    string   `yaml:"port"`
	Env                     string   `yaml:"env"`
	DBDriver                string   `yaml:"db_driver"`
	DatabaseURL             string   `yaml:"database_url"`
	MongoURI                string   `yaml:"mongo_uri"`
	MongoDatabase           string   `yaml:"mongo_database"`
	RedisAddr               string   `yaml:"redis_addr"`
	RedisPassword           string   `yaml:"redis_password"`
	RedisDB                 int      `yaml:"redis_db"`
	IdentityProvider        string   `yaml:"identity_provider"`
	JWTSecret               string   `yaml:"jwt_secret"`
	RealtimeSecret          string   `yaml:"realtime_secret"`
	FirebaseCredentialsPath string   `yaml:"firebase_credentials_path"`
	AWSRegion               string   `yaml:"aws_region"`
	S3Bucket                string   `yaml:"s3_bucket"`
	CORSOrigins             []string `yaml:"cors_origins"`
}

// Load reads .env, then the environment, then the YAML file named by CONFIG_FILE if any.
// Later sources win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		DBDriver:                getEnv("DB_DRIVER", "postgres"),
		DatabaseURL:             getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=friendsbook port=5432 sslmode=disable"),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "friendsbook"),
		RedisAddr:               getEnv("REDIS_ADDR", ""),
		RedisPassword:           getEnv("REDIS_PASSWORD", ""),
		RedisDB:                 getEnvInt("REDIS_DB", 0),
		IdentityProvider:        getEnv("IDENTITY_PROVIDER", "jwt"),
		JWTSecret:               getEnv("JWT_SECRET", defaultJWTSecret),
		RealtimeSecret:          getEnv("REALTIME_SECRET", ""),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		AWSRegion:               getEnv("AWS_REGION", ""),
		S3Bucket:                getEnv("S3_BUCKET", ""),
		CORSOrigins:             splitList(getEnv("CORS_ORIGINS", "*")),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if cfg.RealtimeSecret == "" {
		cfg.RealtimeSecret = cfg.JWTSecret
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// StorageEnabled reports whether presigned uploads can be served
func (c *Config) StorageEnabled() bool {
	return c.AWSRegion != "" && c.S3Bucket != ""
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.IdentityProvider {
	case "jwt":
	case "firebase":
		if c.FirebaseCredentialsPath == "" {
			return fmt.Errorf("IDENTITY_PROVIDER=firebase requires FIREBASE_CREDENTIALS_PATH")
		}
	default:
		return fmt.Errorf("unsupported IDENTITY_PROVIDER %q", c.IdentityProvider)
	}
	if c.Env == "production" && c.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
