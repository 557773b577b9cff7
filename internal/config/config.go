package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	apperrors "upload-ai/internal/app/errors"
)

const (
	DefaultServiceURL     = "http://localhost:3333"
	DefaultRequestTimeout = 60 * time.Second
	DefaultHTTPHost       = "0.0.0.0"
	DefaultHTTPPort       = "8080"
	DefaultEnvironment    = "development"
	DefaultRetention      = time.Hour
)

// Environment variables overlaid on top of the YAML file.
const (
	EnvServiceURL       = "UPLOADAI_SERVICE_URL"
	EnvAPIToken         = "UPLOADAI_API_TOKEN"
	EnvRequestTimeout   = "UPLOADAI_REQUEST_TIMEOUT"
	EnvTranscodeTimeout = "UPLOADAI_TRANSCODE_TIMEOUT"
	EnvFFmpeg           = "UPLOADAI_FFMPEG"
	EnvFFprobe          = "UPLOADAI_FFPROBE"
	EnvHTTPHost         = "UPLOADAI_HTTP_HOST"
	EnvHTTPPort         = "UPLOADAI_HTTP_PORT"
	EnvEnvironment      = "UPLOADAI_ENV"
	EnvCORSOrigins      = "UPLOADAI_CORS_ORIGINS"
)

// Config is the full runtime configuration of uploadai.
type Config struct {
	Environment string        `yaml:"environment"`
	Retention   time.Duration `yaml:"retention"`
	Service     ServiceConfig `yaml:"service"`
	Engine      EngineConfig  `yaml:"engine"`
	HTTP        HTTPConfig    `yaml:"http"`
}

// ServiceConfig describes the remote transcription service.
type ServiceConfig struct {
	BaseURL  string            `yaml:"base_url"`
	Timeout  time.Duration     `yaml:"timeout"`
	APIToken string            `yaml:"api_token"`
	Headers  map[string]string `yaml:"headers"`
}

// EngineConfig points at the ffmpeg toolchain.
type EngineConfig struct {
	FFmpeg           string        `yaml:"ffmpeg"`
	FFprobe          string        `yaml:"ffprobe"`
	TranscodeTimeout time.Duration `yaml:"transcode_timeout"` // 0 = no limit
	TempDir          string        `yaml:"temp_dir"`
}

type HTTPConfig struct {
	Host        string   `yaml:"host"`
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// Addr returns host:port for the HTTP listener.
func (c HTTPConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// Development reports whether the development environment is selected.
func (c *Config) Development() bool {
	return c.Environment == DefaultEnvironment
}

// Default returns a Config populated with defaults only.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// Load reads the YAML file at path (optional, "" skips it), applies defaults,
// overlays environment variables and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		path = os.ExpandEnv(path)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidConfig, err)
	}
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Environment == "" {
		c.Environment = DefaultEnvironment
	}
	if c.Retention == 0 {
		c.Retention = DefaultRetention
	}
	if c.Service.BaseURL == "" {
		c.Service.BaseURL = DefaultServiceURL
	}
	if c.Service.Timeout == 0 {
		c.Service.Timeout = DefaultRequestTimeout
	}
	if c.Engine.FFmpeg == "" {
		c.Engine.FFmpeg = "ffmpeg"
	}
	if c.Engine.FFprobe == "" {
		c.Engine.FFprobe = "ffprobe"
	}
	if c.HTTP.Host == "" {
		c.HTTP.Host = DefaultHTTPHost
	}
	if c.HTTP.Port == "" {
		c.HTTP.Port = DefaultHTTPPort
	}
}

func (c *Config) applyEnv() error {
	overlay(&c.Service.BaseURL, EnvServiceURL)
	overlay(&c.Service.APIToken, EnvAPIToken)
	overlay(&c.Engine.FFmpeg, EnvFFmpeg)
	overlay(&c.Engine.FFprobe, EnvFFprobe)
	overlay(&c.HTTP.Host, EnvHTTPHost)
	overlay(&c.HTTP.Port, EnvHTTPPort)
	overlay(&c.Environment, EnvEnvironment)
	if origins := lo.Compact(lo.Map(strings.Split(os.Getenv(EnvCORSOrigins), ","), func(o string, _ int) string {
		return strings.TrimSpace(o)
	})); len(origins) > 0 {
		c.HTTP.CORSOrigins = origins
	}

	if err := overlayDuration(&c.Service.Timeout, EnvRequestTimeout); err != nil {
		return err
	}
	return overlayDuration(&c.Engine.TranscodeTimeout, EnvTranscodeTimeout)
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if err := ValidateURL(c.Service.BaseURL, "service"); err != nil {
		return err
	}
	if err := ValidateTimeout(c.Service.Timeout, "request"); err != nil {
		return err
	}
	if c.Engine.TranscodeTimeout != 0 {
		if err := ValidateTimeout(c.Engine.TranscodeTimeout, "transcode"); err != nil {
			return err
		}
	}
	if c.Retention < 0 {
		return fmt.Errorf("retention cannot be negative")
	}
	return ValidatePort(c.HTTP.Port, "http")
}

func overlay(dst *string, key string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*dst = value
	}
}

// overlayDuration accepts Go durations ("90s") or a plain number of seconds.
func overlayDuration(dst *time.Duration, key string) error {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		*dst = time.Duration(seconds) * time.Second
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = d
	return nil
}
