package application

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// StorageConfig defines blob storage configuration.
type StorageConfig struct {
	Backend    string        `yaml:"backend"`
	Endpoint   string        `yaml:"endpoint"`
	Region     string        `yaml:"region"`
	AccessKey  string        `yaml:"access_key"`
	SecretKey  string        `yaml:"secret_key"`
	Bucket     string        `yaml:"bucket"`
	LinkExpiry time.Duration `yaml:"link_expiry"`
}

// LoadStorageConfig loads storage config from yaml or env. The "memory"
// backend exists for local runs without an object store.
func LoadStorageConfig() (StorageConfig, error) {
	cfg := StorageConfig{
		Backend:    getenvDefault("STORAGE_BACKEND", "s3"),
		Endpoint:   os.Getenv("S3_ENDPOINT"),
		Region:     getenvDefault("S3_REGION", getenvDefault("AWS_REGION", "us-east-1")),
		AccessKey:  getenvDefault("S3_ACCESS_KEY", os.Getenv("AWS_ACCESS_KEY_ID")),
		SecretKey:  getenvDefault("S3_SECRET_KEY", os.Getenv("AWS_SECRET_ACCESS_KEY")),
		Bucket:     os.Getenv("S3_BUCKET"),
		LinkExpiry: getenvDurationDefault("S3_LINK_EXPIRY", 15*time.Minute),
	}

	if path := os.Getenv("STORAGE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	switch cfg.Backend {
	case "s3":
		if cfg.Bucket == "" {
			return cfg, errors.New("storage: bucket required for s3 backend")
		}
	case "memory":
	default:
		return cfg, errors.New("storage: unknown backend " + cfg.Backend)
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvDurationDefault(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
