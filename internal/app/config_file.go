package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema. Nested
// sections map naturally to flags and env.
type FileConfig struct {
	Service struct {
		URL string `yaml:"url"`
		UA  string `yaml:"ua"`
	} `yaml:"service"`

	App struct {
		URL string `yaml:"url"`
	} `yaml:"app"`

	Session struct {
		Dir string `yaml:"dir"`
	} `yaml:"session"`

	Download struct {
		Dir string `yaml:"dir"`
	} `yaml:"download"`

	Token string `yaml:"token"`

	Timeouts struct {
		Fetch  time.Duration `yaml:"fetch"`
		Router time.Duration `yaml:"router"`
	} `yaml:"timeouts"`

	Verbose bool `yaml:"verbose"`
}

// LoadConfigFile reads a YAML config file. A missing path returns an empty
// config and no error so the file remains optional.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	if strings.TrimSpace(path) == "" {
		return fc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fc, nil
		}
		return fc, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config %s: %w", path, err)
	}
	return fc, nil
}

// ApplyFileConfig fills unset cfg fields from a file config. Flags and env
// take precedence over file values.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if cfg.ServiceBaseURL == "" {
		cfg.ServiceBaseURL = fc.Service.URL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = fc.Service.UA
	}
	if cfg.AppBaseURL == "" {
		cfg.AppBaseURL = fc.App.URL
	}
	if cfg.SessionDir == "" {
		cfg.SessionDir = fc.Session.Dir
	}
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = fc.Download.Dir
	}
	if cfg.AccessToken == "" {
		cfg.AccessToken = fc.Token
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = fc.Timeouts.Fetch
	}
	if cfg.RouterTimeout == 0 {
		cfg.RouterTimeout = fc.Timeouts.Router
	}
	if !cfg.Verbose {
		cfg.Verbose = fc.Verbose
	}
}

// ApplyDefaults fills the remaining blanks.
func ApplyDefaults(cfg *Config) {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "syllakit/1.0 (+https://github.com/coursepaw/syllakit)"
	}
	if cfg.SessionDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		cfg.SessionDir = filepath.Join(home, ".syllakit")
	}
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = "."
	}
}

// ValidateConfig rejects configurations that cannot run a workflow.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.ServiceBaseURL) == "" {
		return errors.New("service base url is required")
	}
	return nil
}
