// Package router relays typed messages between the three execution contexts:
// the long-lived background coordinator that owns the router, per-tab content
// contexts, and the transient popup. The router itself is stateless beyond
// its endpoint registry; every request is independent.
package router

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Type discriminates messages crossing context boundaries.
type Type string

const (
	TypeExtractPage      Type = "EXTRACT_PAGE"
	TypeHighlightText    Type = "HIGHLIGHT_TEXT"
	TypeClearHighlights  Type = "CLEAR_HIGHLIGHTS"
	TypeSelectionChanged Type = "SELECTION_CHANGED"
	TypeOpenApp          Type = "OPEN_APP"
)

// ErrUnknownType is returned for any message of unrecognized type, instead of
// dropping it silently.
var ErrUnknownType = errors.New("unknown message type")

// ErrNoTab is returned when a message targets a tab with no registered
// content context, for message types whose failures must surface.
var ErrNoTab = errors.New("content context unreachable")

// Message is one routed request. ID is a correlation id assigned on dispatch
// when absent.
type Message struct {
	ID      string
	Type    Type
	TabID   int
	Payload any
}

// HighlightPayload carries the text to re-locate and wrap.
type HighlightPayload struct {
	Text string
}

// OpenAppPayload names the companion-app resource to open.
type OpenAppPayload struct {
	SyllabusID string
	View       string
}

// Handler is an endpoint able to receive routed messages. Content contexts
// and the popup implement it.
type Handler interface {
	Handle(ctx context.Context, msg Message) (any, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg Message) (any, error)

func (f HandlerFunc) Handle(ctx context.Context, msg Message) (any, error) { return f(ctx, msg) }

// Router relays messages to registered endpoints. Zero value is usable.
type Router struct {
	// AppBaseURL is the companion web application base used by OPEN_APP.
	AppBaseURL string
	// OpenTab opens a URL in a new tab or window. Nil turns OPEN_APP into a
	// logged no-op.
	OpenTab func(url string) error
	// Timeout bounds a single request round trip. Zero means 10s.
	Timeout time.Duration

	mu    sync.RWMutex
	tabs  map[int]Handler
	popup Handler
}

// RegisterTab attaches the content context of a tab.
func (r *Router) RegisterTab(tabID int, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tabs == nil {
		r.tabs = make(map[int]Handler)
	}
	r.tabs[tabID] = h
}

// DeregisterTab detaches a tab, e.g. on navigation.
func (r *Router) DeregisterTab(tabID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tabs, tabID)
}

// RegisterPopup attaches the popup endpoint for selection relays.
func (r *Router) RegisterPopup(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.popup = h
}

// DeregisterPopup detaches the popup, typically when it closes.
func (r *Router) DeregisterPopup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.popup = nil
}

// Dispatch routes one message and returns its reply.
//
// EXTRACT_PAGE keeps the reply channel open until the content context
// responds or the deadline passes, and surfaces failures to the caller.
// HIGHLIGHT_TEXT and CLEAR_HIGHLIGHTS are forwarded best-effort: failures are
// logged, never returned. SELECTION_CHANGED is relayed to the popup when one
// is open and dropped otherwise. Unrecognized types return ErrUnknownType.
func (r *Router) Dispatch(ctx context.Context, msg Message) (any, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	switch msg.Type {
	case TypeExtractPage:
		return r.request(ctx, msg)

	case TypeHighlightText, TypeClearHighlights:
		res, err := r.request(ctx, msg)
		if err != nil {
			log.Warn().Err(err).Str("id", msg.ID).Str("type", string(msg.Type)).
				Int("tab", msg.TabID).Msg("content message failed")
			return nil, nil
		}
		return res, nil

	case TypeSelectionChanged:
		r.mu.RLock()
		popup := r.popup
		r.mu.RUnlock()
		if popup == nil {
			// Popup closed; nobody to tell.
			return nil, nil
		}
		return popup.Handle(ctx, msg)

	case TypeOpenApp:
		return nil, r.openApp(msg)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
	}
}

// request forwards a message to the target tab's content context, keeping the
// reply channel open until it answers or the deadline passes.
func (r *Router) request(ctx context.Context, msg Message) (any, error) {
	r.mu.RLock()
	h := r.tabs[msg.TabID]
	r.mu.RUnlock()
	if h == nil {
		return nil, fmt.Errorf("%w: tab %d", ErrNoTab, msg.TabID)
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type reply struct {
		res any
		err error
	}
	ch := make(chan reply, 1)
	go func() {
		res, err := h.Handle(ctx, msg)
		ch <- reply{res, err}
	}()
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("message %s to tab %d: %w", msg.Type, msg.TabID, ctx.Err())
	case rep := <-ch:
		return rep.res, rep.err
	}
}

func (r *Router) openApp(msg Message) error {
	payload, ok := msg.Payload.(OpenAppPayload)
	if !ok {
		return fmt.Errorf("open app: unexpected payload %T", msg.Payload)
	}
	target, err := AppURL(r.AppBaseURL, payload.SyllabusID, payload.View)
	if err != nil {
		return err
	}
	if r.OpenTab == nil {
		log.Info().Str("url", target).Msg("no tab opener configured")
		return nil
	}
	return r.OpenTab(target)
}

// AppURL builds the companion-app deep link for a syllabus.
func AppURL(base, syllabusID, view string) (string, error) {
	u, err := url.Parse(base)
	if err != nil || base == "" {
		return "", fmt.Errorf("app base url %q: %w", base, errAppBase(err))
	}
	u = u.JoinPath("syllabus", syllabusID)
	if view != "" {
		q := u.Query()
		q.Set("view", view)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func errAppBase(err error) error {
	if err != nil {
		return err
	}
	return errors.New("not configured")
}
