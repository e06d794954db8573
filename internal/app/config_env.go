package app

import (
	"os"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.ServiceBaseURL == "" {
		cfg.ServiceBaseURL = os.Getenv("SYLLAKIT_SERVICE_URL")
	}
	if cfg.AppBaseURL == "" {
		cfg.AppBaseURL = os.Getenv("SYLLAKIT_APP_URL")
	}
	if cfg.SessionDir == "" {
		cfg.SessionDir = os.Getenv("SYLLAKIT_SESSION_DIR")
	}
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = os.Getenv("SYLLAKIT_DOWNLOAD_DIR")
	}
	if cfg.AccessToken == "" {
		cfg.AccessToken = os.Getenv("SYLLAKIT_ACCESS_TOKEN")
	}
	if cfg.FetchTimeout == 0 {
		if d, err := time.ParseDuration(os.Getenv("SYLLAKIT_FETCH_TIMEOUT")); err == nil {
			cfg.FetchTimeout = d
		}
	}
	if cfg.RouterTimeout == 0 {
		if d, err := time.ParseDuration(os.Getenv("SYLLAKIT_ROUTER_TIMEOUT")); err == nil {
			cfg.RouterTimeout = d
		}
	}
}
