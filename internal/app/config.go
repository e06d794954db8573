// Package app wires the execution contexts together: the background
// coordinator owning the message router, per-tab content contexts, and popup
// orchestrators with their popup-lifetime contexts.
package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// ServiceBaseURL is the companion backend hosting the extraction,
	// simplify, translate, calendar and PDF collaborators.
	ServiceBaseURL string
	// AppBaseURL is the companion web application used for deep links.
	AppBaseURL string
	UserAgent  string

	// SessionDir holds the persisted session database.
	SessionDir string
	// DownloadDir receives exported documents.
	DownloadDir string

	// AccessToken authenticates calendar writes when no interactive
	// identity facility is available.
	AccessToken string

	FetchTimeout  time.Duration
	RouterTimeout time.Duration

	Verbose bool
}
