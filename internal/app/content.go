package app

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/net/html"

	"github.com/coursepaw/syllakit/internal/detect"
	"github.com/coursepaw/syllakit/internal/highlight"
	"github.com/coursepaw/syllakit/internal/page"
	"github.com/coursepaw/syllakit/internal/router"
	"github.com/coursepaw/syllakit/internal/selection"
)

// ExtractReply is the content context's answer to EXTRACT_PAGE: the snapshot
// plus, redundantly, the detector's verdict as a page-type hint.
type ExtractReply struct {
	Snapshot  *page.Snapshot
	Detection detect.Result
}

// ContentContext hosts the extraction engine, syllabus detector, highlight
// engine and selection watcher for one tab's document. It runs inside the
// content execution context and is reached only through the router.
type ContentContext struct {
	mu      sync.Mutex
	url     string
	title   string
	doc     *html.Node
	engine  *highlight.Engine
	watcher *selection.Watcher
}

// NewContentContext binds a parsed document. The selection watcher reports
// into the router; its events reach the popup when one is open.
func NewContentContext(doc *html.Node, url, title string, r *router.Router) *ContentContext {
	c := &ContentContext{
		url:    url,
		title:  title,
		doc:    doc,
		engine: highlight.New(doc),
	}
	c.watcher = &selection.Watcher{
		Emit: func(ev selection.Event) error {
			_, err := r.Dispatch(context.Background(), router.Message{
				Type:    router.TypeSelectionChanged,
				Payload: ev,
			})
			return err
		},
	}
	return c
}

// Handle implements router.Handler for the content-side message set.
func (c *ContentContext) Handle(ctx context.Context, msg router.Message) (any, error) {
	switch msg.Type {
	case router.TypeExtractPage:
		return c.extract()
	case router.TypeHighlightText:
		payload, ok := msg.Payload.(router.HighlightPayload)
		if !ok {
			return nil, fmt.Errorf("highlight: unexpected payload %T", msg.Payload)
		}
		return c.Highlight(payload.Text), nil
	case router.TypeClearHighlights:
		c.ClearHighlights()
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %q", router.ErrUnknownType, msg.Type)
	}
}

func (c *ContentContext) extract() (*ExtractReply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, err := page.Extract(c.doc, c.url)
	if err != nil {
		return nil, err
	}
	return &ExtractReply{Snapshot: snap, Detection: detect.Detect(snap.CleanedText)}, nil
}

// Highlight installs the marker style and wraps the given text's fragments.
func (c *ContentContext) Highlight(text string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine.Inject()
	return c.engine.Highlight(text)
}

// ClearHighlights tears down the current highlight set.
func (c *ContentContext) ClearHighlights() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine.Clear()
}

// SelectionChanged feeds a user selection change into the debounced watcher.
func (c *ContentContext) SelectionChanged(text string) {
	c.watcher.Changed(text, c.url, c.title)
}

// Close stops the selection watcher.
func (c *ContentContext) Close() {
	c.watcher.Close()
}

// Document exposes the live tree for inspection in tests and exports.
func (c *ContentContext) Document() *html.Node { return c.doc }
