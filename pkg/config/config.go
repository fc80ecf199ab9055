package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// DefaultImageProject is the shared project public images are looked up in
const DefaultImageProject = "debian-cloud"

// Config holds the application configuration
type Config struct {
	GCE           GCEConfig
	Storage       StorageConfig
	DefaultValues DefaultValues `envconfig:"DEFAULT"`
}

// GCEConfig holds Compute Engine specific configuration
type GCEConfig struct {
	// Identity is either a project name or "<project-id>@<anything>", e.g. a service account email
	Identity          string        `envconfig:"IDENTITY" required:"true" validate:"required"`
	CredentialsFile   string        `envconfig:"CREDENTIALS_FILE"`
	AccessToken       string        `envconfig:"ACCESS_TOKEN"`
	Endpoint          string        `envconfig:"ENDPOINT" validate:"omitempty,url"`
	ImageProject      string        `envconfig:"IMAGE_PROJECT" default:"debian-cloud" validate:"required"`
	OperationInterval time.Duration `envconfig:"OPERATION_INTERVAL" default:"2s" validate:"gt=0"`
	OperationTimeout  time.Duration `envconfig:"OPERATION_TIMEOUT" default:"10m" validate:"gt=0"`
}

// StorageConfig selects where node records are kept
type StorageConfig struct {
	Backend  string `envconfig:"BACKEND" default:"file" validate:"oneof=file s3"`
	FilePath string `envconfig:"FILE_PATH"`
	S3       S3Config
}

// S3Config configures the S3 compatible record store, by default the GCS interoperability endpoint
type S3Config struct {
	Endpoint  string `envconfig:"ENDPOINT" default:"https://storage.googleapis.com" validate:"url"`
	Region    string `envconfig:"REGION" default:"auto"`
	Bucket    string `envconfig:"BUCKET"`
	Key       string `envconfig:"KEY" default:"gce-instance-manager/nodes.json"`
	AccessKey string `envconfig:"ACCESS_KEY"`
	SecretKey string `envconfig:"SECRET_KEY"`
}

// DefaultValues holds default configuration values
type DefaultValues struct {
	MachineType string        `envconfig:"MACHINE_TYPE" default:"e2-micro"`
	Zone        string        `envconfig:"ZONE" default:"us-central1-a"`
	Image       string        `envconfig:"IMAGE" default:"debian-12-bookworm-v20240110"`
	Network     string        `envconfig:"NETWORK" default:"default"`
	LoginUser   string        `envconfig:"LOGIN_USER" default:"admin"`
	Duration    time.Duration `envconfig:"DURATION" default:"1h"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and cross-field requirements
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Storage.Backend == "s3" {
		if c.Storage.S3.Bucket == "" {
			return errors.New("invalid config: STORAGE_S3_BUCKET is required for the s3 backend")
		}
		if c.Storage.S3.AccessKey == "" || c.Storage.S3.SecretKey == "" {
			return errors.New("invalid config: STORAGE_S3_ACCESS_KEY and STORAGE_S3_SECRET_KEY are required for the s3 backend")
		}
	}
	return nil
}

// ValidateKeyPath validates that a key file exists and is readable
func ValidateKeyPath(path string) error {
	if path == "" {
		return errors.New("key path is required")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.New("key file does not exist")
		}
		return err
	}

	if info.IsDir() {
		return errors.New("key path is a directory, not a file")
	}

	file, err := os.Open(path)
	if err != nil {
		return errors.New("cannot read key file")
	}
	file.Close()

	return nil
}

// ReadKeyFile returns the trimmed contents of a validated key file
func ReadKeyFile(path string) (string, error) {
	if err := ValidateKeyPath(path); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read key file: %w", err)
	}
	return string(data), nil
}
