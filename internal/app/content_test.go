package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/html"

	"github.com/coursepaw/syllakit/internal/highlight"
	"github.com/coursepaw/syllakit/internal/router"
	"github.com/coursepaw/syllakit/internal/selection"
)

const coursePage = `<!doctype html>
<html>
  <head><title>CS 101 Syllabus</title></head>
  <body>
    <main>
      <h1>CS 101 Syllabus</h1>
      <p>This course outline covers the grading policy and the office hours of
      the teaching staff, along with weekly assignments and the final exam.</p>
    </main>
  </body>
</html>`

func newContentContext(t *testing.T, r *router.Router) *ContentContext {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(coursePage))
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	c := NewContentContext(doc, "https://example.edu/cs101", "CS 101 Syllabus", r)
	t.Cleanup(c.Close)
	return c
}

func TestContentContext_ExtractThroughRouter(t *testing.T) {
	r := &router.Router{}
	c := newContentContext(t, r)
	r.RegisterTab(1, c)

	bridge := &routerBridge{r: r}
	snap, err := bridge.ExtractPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("ExtractPage: %v", err)
	}
	if snap.Title != "CS 101 Syllabus" {
		t.Fatalf("title = %q", snap.Title)
	}
	if !strings.Contains(snap.CleanedText, "grading policy") {
		t.Fatalf("cleaned text = %q", snap.CleanedText)
	}

	// The reply carries the detector's verdict alongside the snapshot.
	res, err := r.Dispatch(context.Background(), router.Message{Type: router.TypeExtractPage, TabID: 1})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	reply := res.(*ExtractReply)
	if !reply.Detection.IsMatch {
		t.Fatalf("detection = %+v", reply.Detection)
	}
}

func TestContentContext_HighlightAndClear(t *testing.T) {
	r := &router.Router{}
	c := newContentContext(t, r)
	r.RegisterTab(1, c)
	bridge := &routerBridge{r: r}

	text := "This course outline covers the grading policy and the office hours of the teaching staff."
	if n := bridge.HighlightText(context.Background(), 1, text); n == 0 {
		t.Fatalf("expected highlighted fragments")
	}
	if findMarker(c.Document()) == nil {
		t.Fatalf("no marker element in document")
	}

	bridge.ClearHighlights(context.Background(), 1)
	if findMarker(c.Document()) != nil {
		t.Fatalf("marker survived clear")
	}

	// Highlighting a missing tab is best-effort and reports zero.
	if n := bridge.HighlightText(context.Background(), 99, text); n != 0 {
		t.Fatalf("missing tab highlighted %d fragments", n)
	}
}

func TestContentContext_SelectionReachesPopup(t *testing.T) {
	r := &router.Router{}
	c := newContentContext(t, r)
	c.watcher.Debounce = 10 * time.Millisecond
	r.RegisterTab(1, c)

	got := make(chan selection.Event, 1)
	r.RegisterPopup(router.HandlerFunc(func(ctx context.Context, msg router.Message) (any, error) {
		ev, _ := msg.Payload.(selection.Event)
		got <- ev
		return nil, nil
	}))

	c.SelectionChanged(strings.Repeat("selected syllabus text ", 6))
	select {
	case ev := <-got:
		if ev.URL != "https://example.edu/cs101" {
			t.Fatalf("event = %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("selection never reached the popup")
	}

	// With no popup registered the event is dropped, not an error.
	r.DeregisterPopup()
	c.SelectionChanged(strings.Repeat("more selected text ", 10))
	time.Sleep(50 * time.Millisecond)
}

func findMarker(n *html.Node) *html.Node {
	if n.Type == html.ElementNode {
		for _, attr := range n.Attr {
			if attr.Key == "class" && strings.Contains(attr.Val, highlight.MarkerClass) {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findMarker(c); found != nil {
			return found
		}
	}
	return nil
}
