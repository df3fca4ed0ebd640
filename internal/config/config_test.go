package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// Tests in this file mutate the environment with t.Setenv and therefore do not run in parallel.

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		envVars     map[string]string
		expectError bool
		validate    func(*testing.T, *Config)
	}{
		{
			name: "defaults",
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Activity.Window != 24*time.Hour {
					t.Errorf("Expected default Window 24h, got %v", cfg.Activity.Window)
				}
				if !cfg.Activity.AssumeSorted {
					t.Error("Expected AssumeSorted to default to true")
				}
				if cfg.Activity.OutputPath != "basecamp_info.json" {
					t.Errorf("Expected default OutputPath 'basecamp_info.json', got '%s'", cfg.Activity.OutputPath)
				}
				if cfg.Activity.CredentialsFile != "sensitive.txt" {
					t.Errorf("Expected default CredentialsFile 'sensitive.txt', got '%s'", cfg.Activity.CredentialsFile)
				}
				if strings.Join(cfg.Host.TopCommand, " ") != "top -b -n1" {
					t.Errorf("Expected default top command 'top -b -n1', got %v", cfg.Host.TopCommand)
				}
				if strings.Join(cfg.Host.WhoCommand, " ") != "w -h" {
					t.Errorf("Expected default w command 'w -h', got %v", cfg.Host.WhoCommand)
				}
				if cfg.Host.NumericMemoryTotals {
					t.Error("Expected NumericMemoryTotals to default to false")
				}
			},
		},
		{
			name: "yaml file",
			file: `
log_format: console
activity:
  projects_url: https://basecamp.com/999/api/v1/projects.json
  window: 12h
  assume_sorted: false
  rate_limit: 100-M
host:
  output_dir: /var/lib/dashboard
  top_command: [top, -b, -n, "1"]
  numeric_memory_totals: true
`,
			validate: func(t *testing.T, cfg *Config) {
				if cfg.LogFormat != "console" {
					t.Errorf("Expected LogFormat 'console', got '%s'", cfg.LogFormat)
				}
				if cfg.Activity.ProjectsURL != "https://basecamp.com/999/api/v1/projects.json" {
					t.Errorf("Unexpected ProjectsURL '%s'", cfg.Activity.ProjectsURL)
				}
				if cfg.Activity.Window != 12*time.Hour {
					t.Errorf("Expected Window 12h, got %v", cfg.Activity.Window)
				}
				if cfg.Activity.AssumeSorted {
					t.Error("Expected AssumeSorted false from file")
				}
				if cfg.Activity.RequestTimeout != 30*time.Second {
					t.Errorf("Expected unset RequestTimeout to keep default, got %v", cfg.Activity.RequestTimeout)
				}
				if len(cfg.Host.TopCommand) != 4 {
					t.Errorf("Expected 4-element top command, got %v", cfg.Host.TopCommand)
				}
				if !cfg.Host.NumericMemoryTotals {
					t.Error("Expected NumericMemoryTotals true from file")
				}
			},
		},
		{
			name: "env overrides file",
			file: "activity:\n  window: 12h\n",
			envVars: map[string]string{
				"DASHCOLLECT_WINDOW":          "6h",
				"DASHCOLLECT_ASSUME_SORTED":   "false",
				"DASHCOLLECT_HOST_OUTPUT_DIR": "/tmp/out",
				"DASHCOLLECT_DEBUG":           "yes",
				"OTEL_ENABLED":                "1",
				"OTEL_EXPORTER_OTLP_ENDPOINT": "localhost:4318",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Activity.Window != 6*time.Hour {
					t.Errorf("Expected Window 6h from env, got %v", cfg.Activity.Window)
				}
				if cfg.Activity.AssumeSorted {
					t.Error("Expected AssumeSorted false from env")
				}
				if cfg.Host.OutputDir != "/tmp/out" {
					t.Errorf("Expected OutputDir '/tmp/out', got '%s'", cfg.Host.OutputDir)
				}
				if !cfg.DebugMode || !cfg.OTELEnabled || cfg.OTELEndpoint != "localhost:4318" {
					t.Errorf("Unexpected ambient settings: %+v", cfg)
				}
			},
		},
		{
			name:    "invalid duration env falls back",
			envVars: map[string]string{"DASHCOLLECT_WINDOW": "soon"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Activity.Window != 24*time.Hour {
					t.Errorf("Expected default Window when env is invalid, got %v", cfg.Activity.Window)
				}
			},
		},
		{
			name:        "invalid log format",
			envVars:     map[string]string{"DASHCOLLECT_LOG_FORMAT": "xml"},
			expectError: true,
		},
		{
			name:        "malformed yaml",
			file:        "activity: [",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			path := ""
			if tt.file != "" {
				path = writeFile(t, "config.yaml", tt.file)
			}

			cfg, err := Load(path)

			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestValidateActivity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*ActivityConfig)
		wantErr bool
	}{
		{
			name: "valid",
			mutate: func(a *ActivityConfig) {
				a.ProjectsURL = "https://basecamp.com/1/api/v1/projects.json"
			},
		},
		{
			name:    "missing projects url",
			mutate:  func(a *ActivityConfig) {},
			wantErr: true,
		},
		{
			name: "token instead of credentials file",
			mutate: func(a *ActivityConfig) {
				a.ProjectsURL = "https://basecamp.com/1/api/v1/projects.json"
				a.CredentialsFile = ""
				a.AccessToken = "tok"
			},
		},
		{
			name: "neither credentials nor token",
			mutate: func(a *ActivityConfig) {
				a.ProjectsURL = "https://basecamp.com/1/api/v1/projects.json"
				a.CredentialsFile = ""
			},
			wantErr: true,
		},
		{
			name: "bad rate limit",
			mutate: func(a *ActivityConfig) {
				a.ProjectsURL = "https://basecamp.com/1/api/v1/projects.json"
				a.RateLimit = "lots"
			},
			wantErr: true,
		},
		{
			name: "zero window",
			mutate: func(a *ActivityConfig) {
				a.ProjectsURL = "https://basecamp.com/1/api/v1/projects.json"
				a.Window = 0
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.mutate(&cfg.Activity)
			err := cfg.ValidateActivity()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateActivity() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateHost(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if err := cfg.ValidateHost(); err != nil {
		t.Fatalf("Expected defaults to validate, got %v", err)
	}

	cfg.Host.FreeCommand = nil
	if err := cfg.ValidateHost(); err == nil {
		t.Error("Expected error for empty free command")
	}
}

func TestRedacted(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Activity.AccessToken = "secret-token"
	red := cfg.Redacted()
	if red.Activity.AccessToken != "[redacted]" {
		t.Errorf("Expected token to be redacted, got '%s'", red.Activity.AccessToken)
	}
	if cfg.Activity.AccessToken != "secret-token" {
		t.Error("Redacted must not modify the original config")
	}
}

func TestParseCredentials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		data     string
		wantUser string
		wantPass string
		wantErr  bool
	}{
		{name: "two lines", data: "alice\nhunter2\n", wantUser: "alice", wantPass: "hunter2"},
		{name: "whitespace trimmed", data: "  alice \r\n\thunter2  \r\n", wantUser: "alice", wantPass: "hunter2"},
		{name: "extra lines ignored", data: "alice\nhunter2\nnotes\n", wantUser: "alice", wantPass: "hunter2"},
		{name: "single line", data: "alice", wantErr: true},
		{name: "empty password", data: "alice\n\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			creds, err := ParseCredentials(tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCredentials() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if creds.Username != tt.wantUser || creds.Password != tt.wantPass {
				t.Errorf("Expected %s/%s, got %s/%s", tt.wantUser, tt.wantPass, creds.Username, creds.Password)
			}
		})
	}
}

func TestLoadCredentials(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "sensitive.txt", "bob\ns3cret\n")
	creds, err := LoadCredentials(path)
	if err != nil {
		t.Fatalf("LoadCredentials failed: %v", err)
	}
	if creds.Username != "bob" {
		t.Errorf("Expected username 'bob', got '%s'", creds.Username)
	}

	if _, err := LoadCredentials(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Expected error for missing credentials file")
	}
}
