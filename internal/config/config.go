package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/benvon/dashcollect/internal/validation"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	LogFormat    string         `yaml:"log_format"`
	DebugMode    bool           `yaml:"debug"`
	OTELEnabled  bool           `yaml:"otel_enabled"`
	OTELEndpoint string         `yaml:"otel_endpoint"`
	Activity     ActivityConfig `yaml:"activity"`
	Host         HostConfig     `yaml:"host"`
}

// ActivityConfig configures the remote-activity collector.
type ActivityConfig struct {
	// ProjectsURL is the project list endpoint, e.g. https://basecamp.com/<account>/api/v1/projects.json.
	// Every other endpoint is derived from it.
	ProjectsURL     string        `yaml:"projects_url" validate:"required,url"`
	CredentialsFile string        `yaml:"credentials_file" validate:"required_without=AccessToken"`
	AccessToken     string        `yaml:"access_token"`
	UserAgent       string        `yaml:"user_agent" validate:"required"`
	OutputPath      string        `yaml:"output_path" validate:"required"`
	Window          time.Duration `yaml:"window" validate:"gt=0"`
	AssumeSorted    bool          `yaml:"assume_sorted"`
	TopicPageSize   int           `yaml:"topic_page_size" validate:"gte=1"`
	RateLimit       string        `yaml:"rate_limit" validate:"omitempty,limiter_rate"`
	RequestTimeout  time.Duration `yaml:"request_timeout" validate:"gt=0"`
}

// HostConfig configures the host-status collector.
type HostConfig struct {
	OutputDir      string        `yaml:"output_dir" validate:"required"`
	CPUInfoPath    string        `yaml:"cpuinfo_path" validate:"required"`
	MemInfoPath    string        `yaml:"meminfo_path" validate:"required"`
	OSReleasePath  string        `yaml:"os_release_path" validate:"required"`
	FreeCommand    []string      `yaml:"free_command" validate:"argv"`
	TopCommand     []string      `yaml:"top_command" validate:"argv"`
	WhoCommand     []string      `yaml:"who_command" validate:"argv"`
	CommandTimeout time.Duration `yaml:"command_timeout" validate:"gt=0"`
	// NumericMemoryTotals makes the quick memory summary add totals numerically
	// instead of concatenating the raw strings.
	NumericMemoryTotals bool `yaml:"numeric_memory_totals"`
}

// Default returns the configuration used when no file or environment overrides are present.
func Default() *Config {
	return &Config{
		LogFormat: "json",
		Activity: ActivityConfig{
			CredentialsFile: "sensitive.txt",
			UserAgent:       "dashcollect (ops@localhost)",
			OutputPath:      "basecamp_info.json",
			Window:          24 * time.Hour,
			AssumeSorted:    true,
			TopicPageSize:   50,
			RateLimit:       "50-S",
			RequestTimeout:  30 * time.Second,
		},
		Host: HostConfig{
			OutputDir:      ".",
			CPUInfoPath:    "/proc/cpuinfo",
			MemInfoPath:    "/proc/meminfo",
			OSReleasePath:  "/etc/os-release",
			FreeCommand:    []string{"free", "-t", "-m"},
			TopCommand:     []string{"top", "-b", "-n1"},
			WhoCommand:     []string{"w", "-h"},
			CommandTimeout: 10 * time.Second,
		},
	}
}

// Load loads configuration from defaults, an optional YAML file, then environment variables.
// Validation happens per section, see ValidateActivity and ValidateHost.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.LogFormat = getEnv("DASHCOLLECT_LOG_FORMAT", cfg.LogFormat)
	cfg.DebugMode = getEnvBool("DASHCOLLECT_DEBUG", cfg.DebugMode)
	cfg.OTELEnabled = getEnvBool("OTEL_ENABLED", cfg.OTELEnabled)
	cfg.OTELEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTELEndpoint)

	a := &cfg.Activity
	a.ProjectsURL = getEnv("DASHCOLLECT_PROJECTS_URL", a.ProjectsURL)
	a.CredentialsFile = getEnv("DASHCOLLECT_CREDENTIALS_FILE", a.CredentialsFile)
	a.AccessToken = getEnv("DASHCOLLECT_ACCESS_TOKEN", a.AccessToken)
	a.UserAgent = getEnv("DASHCOLLECT_USER_AGENT", a.UserAgent)
	a.OutputPath = getEnv("DASHCOLLECT_ACTIVITY_OUTPUT", a.OutputPath)
	a.Window = getEnvDuration("DASHCOLLECT_WINDOW", a.Window)
	a.AssumeSorted = getEnvBool("DASHCOLLECT_ASSUME_SORTED", a.AssumeSorted)
	a.TopicPageSize = getEnvInt("DASHCOLLECT_TOPIC_PAGE_SIZE", a.TopicPageSize)
	a.RateLimit = getEnv("DASHCOLLECT_RATE_LIMIT", a.RateLimit)
	a.RequestTimeout = getEnvDuration("DASHCOLLECT_REQUEST_TIMEOUT", a.RequestTimeout)

	h := &cfg.Host
	h.OutputDir = getEnv("DASHCOLLECT_HOST_OUTPUT_DIR", h.OutputDir)
	h.CommandTimeout = getEnvDuration("DASHCOLLECT_COMMAND_TIMEOUT", h.CommandTimeout)
	h.NumericMemoryTotals = getEnvBool("DASHCOLLECT_NUMERIC_MEMORY_TOTALS", h.NumericMemoryTotals)

	if err := validation.Validate.Var(cfg.LogFormat, "oneof=json console"); err != nil {
		return nil, fmt.Errorf("invalid log_format %q: must be json or console", cfg.LogFormat)
	}

	return cfg, nil
}

// ValidateActivity checks the settings the activity collector needs.
func (c *Config) ValidateActivity() error {
	return validation.Struct(c.Activity)
}

// ValidateHost checks the settings the host collector needs.
func (c *Config) ValidateHost() error {
	return validation.Struct(c.Host)
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	out := *c
	if out.Activity.AccessToken != "" {
		out.Activity.AccessToken = "[redacted]"
	}
	return &out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// Credentials are the basic-auth username and password for the remote API.
type Credentials struct {
	Username string
	Password string
}

// LoadCredentials reads a two-line credentials file: username, then password.
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	return ParseCredentials(string(data))
}

// ParseCredentials parses the credentials file contents.
func ParseCredentials(data string) (*Credentials, error) {
	lines := strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n")
	if len(lines) < 2 {
		return nil, errors.New("credentials file must contain a username line and a password line")
	}
	creds := &Credentials{
		Username: strings.TrimSpace(lines[0]),
		Password: strings.TrimSpace(lines[1]),
	}
	if creds.Username == "" || creds.Password == "" {
		return nil, errors.New("credentials file has an empty username or password")
	}
	return creds, nil
}
