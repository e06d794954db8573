package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	const doc = `
service:
  url: https://svc.example.com
  ua: custom-agent/2.0
app:
  url: https://app.example.com
session:
  dir: /var/lib/syllakit
token: tok-from-file
timeouts:
  fetch: 20s
  router: 5s
verbose: true
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if fc.Service.URL != "https://svc.example.com" || fc.Service.UA != "custom-agent/2.0" {
		t.Fatalf("service section = %+v", fc.Service)
	}
	if fc.Timeouts.Fetch != 20*time.Second || fc.Timeouts.Router != 5*time.Second {
		t.Fatalf("timeouts = %+v", fc.Timeouts)
	}
	if !fc.Verbose {
		t.Fatalf("verbose not read")
	}
}

func TestLoadConfigFile_MissingIsEmpty(t *testing.T) {
	fc, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file errored: %v", err)
	}
	if fc.Service.URL != "" {
		t.Fatalf("fc = %+v", fc)
	}

	if _, err := LoadConfigFile(""); err != nil {
		t.Fatalf("empty path errored: %v", err)
	}
}

func TestConfigPrecedence(t *testing.T) {
	// Explicit values hold against env, env holds against file.
	t.Setenv("SYLLAKIT_SERVICE_URL", "https://env.example.com")
	t.Setenv("SYLLAKIT_ACCESS_TOKEN", "tok-env")

	cfg := Config{ServiceBaseURL: "https://flag.example.com"}
	ApplyEnvToConfig(&cfg)
	if cfg.ServiceBaseURL != "https://flag.example.com" {
		t.Fatalf("env overrode explicit value: %q", cfg.ServiceBaseURL)
	}
	if cfg.AccessToken != "tok-env" {
		t.Fatalf("env token not applied: %q", cfg.AccessToken)
	}

	var fc FileConfig
	fc.App.URL = "https://file-app.example.com"
	fc.Token = "tok-file"
	ApplyFileConfig(&cfg, fc)
	if cfg.AccessToken != "tok-env" {
		t.Fatalf("file overrode env token: %q", cfg.AccessToken)
	}
	if cfg.AppBaseURL != "https://file-app.example.com" {
		t.Fatalf("file app url not applied: %q", cfg.AppBaseURL)
	}

	ApplyDefaults(&cfg)
	if cfg.UserAgent == "" || cfg.SessionDir == "" || cfg.DownloadDir == "" {
		t.Fatalf("defaults incomplete: %+v", cfg)
	}
}

func TestValidateConfig(t *testing.T) {
	if err := ValidateConfig(Config{}); err == nil {
		t.Fatalf("empty config validated")
	}
	if err := ValidateConfig(Config{ServiceBaseURL: "https://svc.example.com"}); err != nil {
		t.Fatalf("ValidateConfig: %v", err)
	}
}
