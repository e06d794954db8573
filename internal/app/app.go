package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/coursepaw/syllakit/internal/page"
	"github.com/coursepaw/syllakit/internal/preview"
	"github.com/coursepaw/syllakit/internal/remote"
	"github.com/coursepaw/syllakit/internal/router"
	"github.com/coursepaw/syllakit/internal/selection"
	"github.com/coursepaw/syllakit/internal/session"
	"github.com/coursepaw/syllakit/internal/workflow"
)

// ErrNoSyllabus is returned by Run when detection finds nothing to work
// with. The CLI maps it to a distinct exit code.
var ErrNoSyllabus = errors.New("no syllabus content detected")

// App owns the long-lived pieces: the router (background coordinator), the
// session store and the collaborator client. Content contexts and popups
// come and go around it.
type App struct {
	cfg    Config
	store  *session.Store
	rtr    *router.Router
	client *remote.Client

	nextTab int
}

// New initializes the background coordinator.
func New(cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	store, err := session.Open(cfg.SessionDir)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	a := &App{
		cfg:   cfg,
		store: store,
		client: &remote.Client{
			BaseURL:   cfg.ServiceBaseURL,
			UserAgent: cfg.UserAgent,
		},
		nextTab: 1,
	}
	a.rtr = &router.Router{
		AppBaseURL: cfg.AppBaseURL,
		Timeout:    cfg.RouterTimeout,
		OpenTab: func(url string) error {
			log.Info().Str("url", url).Msg("open companion app")
			return nil
		},
	}
	return a, nil
}

// Close releases the session store.
func (a *App) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

// Router exposes the background router for endpoint registration.
func (a *App) Router() *router.Router { return a.rtr }

// Store exposes the session store.
func (a *App) Store() *session.Store { return a.store }

// LoadPage fetches and classifies a URL, attaching a content context for
// HTML pages. The returned tab id addresses the page through the router.
func (a *App) LoadPage(ctx context.Context, url string) (page.Info, *ContentContext, int, error) {
	fetcher := &page.Fetcher{UserAgent: a.cfg.UserAgent, Timeout: a.cfg.FetchTimeout}
	loaded, err := fetcher.Fetch(ctx, url)
	if err != nil {
		return page.Info{}, nil, 0, err
	}
	tabID := a.nextTab
	a.nextTab++
	var content *ContentContext
	if loaded.Doc != nil {
		content = NewContentContext(loaded.Doc, loaded.Info.URL, loaded.Info.Title, a.rtr)
		a.rtr.RegisterTab(tabID, content)
	}
	return loaded.Info, content, tabID, nil
}

// CloseTab detaches a content context, as when the tab navigates away.
func (a *App) CloseTab(tabID int, content *ContentContext) {
	a.rtr.DeregisterTab(tabID)
	if content != nil {
		content.Close()
	}
}

// OpenPopup creates the orchestrator for a page and registers the popup
// endpoint so selection events reach it. The returned cancel func models the
// popup closing: it cancels in-flight work and deregisters the endpoint.
func (a *App) OpenPopup(ctx context.Context, info page.Info, tabID int) (*workflow.Orchestrator, context.Context, context.CancelFunc) {
	popupCtx, cancel := context.WithCancel(ctx)
	orch := workflow.New(popupCtx, workflow.Deps{
		Bridge:  &routerBridge{r: a.rtr},
		Service: a.client,
		Store:   a.store,
		Tokens:  a.tokens(),
		Save:    a.saver(),
	}, info, tabID)

	a.rtr.RegisterPopup(router.HandlerFunc(func(_ context.Context, msg router.Message) (any, error) {
		ev, ok := msg.Payload.(selection.Event)
		if !ok {
			return nil, fmt.Errorf("selection relay: unexpected payload %T", msg.Payload)
		}
		orch.UseSelection(ev.Text)
		return nil, nil
	}))

	return orch, popupCtx, func() {
		a.rtr.DeregisterPopup()
		cancel()
	}
}

func (a *App) tokens() remote.TokenSource {
	token := a.cfg.AccessToken
	return remote.TokenFunc(func(context.Context) (string, error) {
		if token == "" {
			return "", errors.New("no access token configured; set SYLLAKIT_ACCESS_TOKEN")
		}
		return token, nil
	})
}

func (a *App) saver() workflow.Saver {
	dir := a.cfg.DownloadDir
	return func(filename string, content []byte) error {
		path := filepath.Join(dir, filepath.Base(filename))
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return fmt.Errorf("save artifact: %w", err)
		}
		log.Info().Str("path", path).Int("bytes", len(content)).Msg("saved artifact")
		return nil
	}
}

// RunOptions select which workflow steps Run performs after detection.
type RunOptions struct {
	URL          string
	Simplify     bool
	TranslateTo  string
	AddEvents    bool
	CalendarName string
	Download     bool
	ShowPreview  bool
	HTMLPreview  bool
}

// Run drives a full workflow against one URL: the CLI equivalent of opening
// the popup on a page and clicking through it.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	info, content, tabID, err := a.LoadPage(ctx, opts.URL)
	if err != nil {
		return fmt.Errorf("load page: %w", err)
	}
	defer a.CloseTab(tabID, content)
	log.Info().Str("url", info.URL).Str("kind", info.Kind.String()).Msg("page loaded")

	orch, popupCtx, closePopup := a.OpenPopup(ctx, info, tabID)
	defer closePopup()

	if err := orch.Detect(popupCtx); err != nil {
		if workflow.IsGuard(err) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrNoSyllabus, err)
	}

	if opts.Simplify || opts.TranslateTo != "" {
		if err := orch.Simplify(popupCtx); err != nil {
			return err
		}
	}
	if opts.TranslateTo != "" {
		if err := orch.Translate(popupCtx, opts.TranslateTo); err != nil {
			return err
		}
	}
	if opts.AddEvents {
		res, err := orch.AddToCalendar(popupCtx, opts.CalendarName)
		if err != nil {
			return err
		}
		log.Info().Int("added", res.EventsAdded).Int("failed", res.EventsFailed).
			Str("calendar", res.CalendarURL).Msg("calendar updated")
		orch.Acknowledge()
	}
	if opts.Download {
		if err := orch.DownloadPDF(popupCtx); err != nil {
			return err
		}
	}

	if opts.ShowPreview {
		if top := orch.Preview(); top != nil {
			content := top.Content
			if opts.HTMLPreview {
				if html, err := preview.Render(content); err == nil {
					content = html
				}
			}
			fmt.Fprintln(os.Stdout, strings.TrimSpace(content))
		}
	}
	return nil
}
