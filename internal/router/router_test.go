package router

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDispatch_UnknownType(t *testing.T) {
	r := &Router{}
	_, err := r.Dispatch(context.Background(), Message{Type: "BOGUS"})
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("err = %v, want ErrUnknownType", err)
	}
}

func TestDispatch_ExtractRoundTrip(t *testing.T) {
	r := &Router{}
	var gotID string
	r.RegisterTab(7, HandlerFunc(func(ctx context.Context, msg Message) (any, error) {
		gotID = msg.ID
		return "page text", nil
	}))

	res, err := r.Dispatch(context.Background(), Message{Type: TypeExtractPage, TabID: 7})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res != "page text" {
		t.Fatalf("res = %v", res)
	}
	if gotID == "" {
		t.Fatalf("no correlation id assigned")
	}
}

func TestDispatch_ExtractSurfacesErrors(t *testing.T) {
	r := &Router{}
	boom := errors.New("extraction failed")
	r.RegisterTab(1, HandlerFunc(func(ctx context.Context, msg Message) (any, error) {
		return nil, boom
	}))

	if _, err := r.Dispatch(context.Background(), Message{Type: TypeExtractPage, TabID: 1}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want handler error", err)
	}

	// No content context on the target tab at all.
	if _, err := r.Dispatch(context.Background(), Message{Type: TypeExtractPage, TabID: 99}); !errors.Is(err, ErrNoTab) {
		t.Fatalf("err = %v, want ErrNoTab", err)
	}
}

func TestDispatch_ExtractTimesOut(t *testing.T) {
	r := &Router{Timeout: 30 * time.Millisecond}
	r.RegisterTab(1, HandlerFunc(func(ctx context.Context, msg Message) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}))

	_, err := r.Dispatch(context.Background(), Message{Type: TypeExtractPage, TabID: 1})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestDispatch_HighlightFailureSwallowed(t *testing.T) {
	r := &Router{}
	r.RegisterTab(1, HandlerFunc(func(ctx context.Context, msg Message) (any, error) {
		return nil, errors.New("tab went away")
	}))

	res, err := r.Dispatch(context.Background(), Message{
		Type: TypeHighlightText, TabID: 1, Payload: HighlightPayload{Text: "x"},
	})
	if err != nil || res != nil {
		t.Fatalf("highlight failure leaked: res=%v err=%v", res, err)
	}

	// Same policy for an unregistered tab.
	if _, err := r.Dispatch(context.Background(), Message{Type: TypeClearHighlights, TabID: 99}); err != nil {
		t.Fatalf("clear on missing tab leaked: %v", err)
	}
}

func TestDispatch_SelectionRelay(t *testing.T) {
	r := &Router{}

	// No popup: dropped silently.
	if _, err := r.Dispatch(context.Background(), Message{Type: TypeSelectionChanged}); err != nil {
		t.Fatalf("drop without popup errored: %v", err)
	}

	delivered := false
	r.RegisterPopup(HandlerFunc(func(ctx context.Context, msg Message) (any, error) {
		delivered = true
		return nil, nil
	}))
	if _, err := r.Dispatch(context.Background(), Message{Type: TypeSelectionChanged}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !delivered {
		t.Fatalf("selection not delivered to popup")
	}

	r.DeregisterPopup()
	delivered = false
	if _, err := r.Dispatch(context.Background(), Message{Type: TypeSelectionChanged}); err != nil {
		t.Fatalf("drop after deregister errored: %v", err)
	}
	if delivered {
		t.Fatalf("delivered to deregistered popup")
	}
}

func TestDispatch_OpenApp(t *testing.T) {
	var opened string
	r := &Router{
		AppBaseURL: "https://app.example.com",
		OpenTab:    func(url string) error { opened = url; return nil },
	}

	_, err := r.Dispatch(context.Background(), Message{
		Type:    TypeOpenApp,
		Payload: OpenAppPayload{SyllabusID: "abc123", View: "calendar"},
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if opened != "https://app.example.com/syllabus/abc123?view=calendar" {
		t.Fatalf("opened = %q", opened)
	}
}

func TestAppURL(t *testing.T) {
	got, err := AppURL("https://app.example.com/base", "id1", "")
	if err != nil {
		t.Fatalf("AppURL: %v", err)
	}
	if got != "https://app.example.com/base/syllabus/id1" {
		t.Fatalf("got %q", got)
	}

	if _, err := AppURL("", "id1", ""); err == nil {
		t.Fatalf("expected error for empty base")
	}
}
