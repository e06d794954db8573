package highlight

import (
	"fmt"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func parse(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse test document: %v", err)
	}
	return doc
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if cur.Type == html.TextNode {
			b.WriteString(cur.Data)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

const sentence = "This course introduces the fundamental concepts of computer programming and software design."

func TestHighlight_WrapsMatchingSentence(t *testing.T) {
	doc := parse(t, "<html><head></head><body><p>"+sentence+"</p></body></html>")
	e := New(doc)

	n := e.Highlight(sentence + " Extra words so the input clears the minimum length.")
	if n == 0 {
		t.Fatalf("expected at least one wrapped fragment")
	}
	if e.Count() != n {
		t.Fatalf("Count() = %d, Highlight returned %d", e.Count(), n)
	}
	if e.Primary() == nil {
		t.Fatalf("expected a primary fragment")
	}
	if got := textContent(doc); !strings.Contains(got, sentence) {
		t.Fatalf("wrapping altered text content: %q", got)
	}
}

func TestHighlight_ShortInputIsNoop(t *testing.T) {
	doc := parse(t, "<html><head></head><body><p>short</p></body></html>")
	e := New(doc)
	if n := e.Highlight("short"); n != 0 {
		t.Fatalf("short input wrapped %d fragments", n)
	}
	if e.Count() != 0 {
		t.Fatalf("markers present after no-op highlight")
	}
}

func TestHighlight_FragmentCap(t *testing.T) {
	var body, text strings.Builder
	for i := 0; i < 150; i++ {
		s := fmt.Sprintf("Sentence number %03d has enough characters to qualify as a phrase.", i)
		body.WriteString("<p>" + s + "</p>")
		text.WriteString(s + " ")
	}
	doc := parse(t, "<html><head></head><body>"+body.String()+"</body></html>")
	e := New(doc)

	if n := e.Highlight(text.String()); n != 100 {
		t.Fatalf("wrapped %d fragments, want 100", n)
	}
}

func TestHighlight_ReplacesPreviousSet(t *testing.T) {
	doc := parse(t, "<html><head></head><body><p>"+sentence+"</p></body></html>")
	e := New(doc)

	first := e.Highlight(sentence + " Plus padding text to clear the minimum input length.")
	second := e.Highlight(sentence + " Plus padding text to clear the minimum input length.")
	if first == 0 || second == 0 {
		t.Fatalf("expected wraps on both passes: %d, %d", first, second)
	}
	if e.Count() != second {
		t.Fatalf("stale markers survived re-highlight: count %d", e.Count())
	}
}

func TestClear_RestoresTextContent(t *testing.T) {
	doc := parse(t, "<html><head></head><body><p>before "+sentence+" after</p></body></html>")
	before := textContent(doc)

	e := New(doc)
	if n := e.Highlight(sentence + " Plus padding text to clear the minimum input length."); n == 0 {
		t.Fatalf("expected a wrap")
	}
	e.Clear()

	if got := textContent(doc); got != before {
		t.Fatalf("text content changed:\n before %q\n after  %q", before, got)
	}
	if e.Count() != 0 {
		t.Fatalf("markers remain after Clear")
	}
	if e.Primary() != nil {
		t.Fatalf("primary remains after Clear")
	}
	// Clearing again is harmless.
	e.Clear()
	if got := textContent(doc); got != before {
		t.Fatalf("second Clear changed text content")
	}
}

func TestInject_Idempotent(t *testing.T) {
	doc := parse(t, "<html><head></head><body></body></html>")
	e := New(doc)
	e.Inject()
	e.Inject()

	head := findTag(doc, "head")
	styles := 0
	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "style" {
			styles++
		}
	}
	if styles != 1 {
		t.Fatalf("style elements = %d, want 1", styles)
	}
}

func TestSplitPhrases(t *testing.T) {
	text := "Too short. " + sentence + " " +
		strings.Repeat("x", 200) + ". Tiny."
	phrases := splitPhrases(text)
	if len(phrases) != 2 {
		t.Fatalf("phrases = %q", phrases)
	}
	if phrases[0] != sentence[:len(sentence)-1] {
		t.Fatalf("first phrase = %q", phrases[0])
	}
	if len(phrases[1]) != maxPhraseChars {
		t.Fatalf("long phrase not capped: %d bytes", len(phrases[1]))
	}
}

func TestSearchKey_RuneSafe(t *testing.T) {
	phrase := strings.Repeat("é", 60)
	key := searchKey(phrase)
	if len(key) > searchKeyChars {
		t.Fatalf("key too long: %d bytes", len(key))
	}
	if !strings.HasPrefix(phrase, key) {
		t.Fatalf("key %q is not a prefix of the phrase", key)
	}
	for _, r := range key {
		if r == '�' {
			t.Fatalf("key contains a split rune")
		}
	}
}
