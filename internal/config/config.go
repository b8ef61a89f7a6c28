package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds all server configuration, parsed from the environment.
// Tags:
//
//	env: Environment variable name
//	envDefault: Default value if not set
type Config struct {
	MongoURI string `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017/chatAppDB"`
	RedisURI string `env:"REDIS_URI"` // optional; enables per-IP connection rate limiting

	Port string `env:"CHAT_APP_SERVER_PORT" envDefault:"12345"`
	Host string `env:"CHAT_APP_SERVER_IP" envDefault:"0.0.0.0"`

	// Blob store (S3-compatible)
	BucketName      string `env:"CHAT_APP_BUCKET_NAME"`
	BucketRegion    string `env:"CHAT_APP_BUCKET_REGION" envDefault:"us-east-1"`
	BucketEndpoint  string `env:"CHAT_APP_BUCKET_ENDPOINT" envDefault:"s3.amazonaws.com"`
	AccessKey       string `env:"CHAT_APP_ACCESS_KEY"`
	SecretAccessKey string `env:"CHAT_APP_SECRET_ACCESS_KEY"`

	// Cloudinary fallback backend, used when all three are set
	CloudinaryName      string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET"`

	// Default asset URLs handed out when a profile or group has no image
	AssetURLPrefix string `env:"CHAT_APP_ASSET_URL_PREFIX" envDefault:"https://slays3.s3.us-east-1.amazonaws.com"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	Environment string `env:"ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// Addr is the listen address, e.g. "0.0.0.0:12345".
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// DefaultContactImage is the URL written back when a profile image is deleted.
func (c *Config) DefaultContactImage() string {
	return strings.TrimRight(c.AssetURLPrefix, "/") + "/contact.png"
}

// DefaultGroupImage is the URL a freshly created group starts with.
func (c *Config) DefaultGroupImage() string {
	return strings.TrimRight(c.AssetURLPrefix, "/") + "/networking.png"
}

// HasS3 reports whether S3 credentials and a bucket are configured.
func (c *Config) HasS3() bool {
	return c.BucketName != "" && c.AccessKey != "" && c.SecretAccessKey != ""
}

// HasCloudinary reports whether the Cloudinary backend is configured.
func (c *Config) HasCloudinary() bool {
	return c.CloudinaryName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}
