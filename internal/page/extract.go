package page

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// primarySelectors are tried in priority order. The first region whose text
// exceeds minPrimaryChars wins; the list starts with semantic containers and
// ends with course-page conventions seen in the wild.
var primarySelectors = []string{
	"main",
	"article",
	"[role=main]",
	"#main-content",
	"#content",
	".main-content",
	".content",
	".course-content",
	"#course-outline",
	".syllabus",
	"#syllabus",
}

// excludeSelectors is the noise removed from the detached body copy in the
// fallback path. Elements matching these never contribute page text.
var excludeSelectors = []string{
	"script", "style", "noscript",
	"nav", "footer", "header", "aside", "iframe",
	"form", "button", "select", "textarea",
	".nav", ".navbar", ".menu", ".sidebar",
	".footer", ".header", ".ads", ".advertisement",
	".cookie", ".cookie-banner", ".consent",
	".popup", ".modal",
}

// minPrimaryChars is the minimum text length for a primary-selector region to
// be accepted as the page's main content.
const minPrimaryChars = 100

// Extract produces a Snapshot from a parsed document. The primary-selector
// pass is read-only; the whole-body fallback operates on a detached clone of
// the body, so the input tree is never mutated either way.
func Extract(root *html.Node, url string) (*Snapshot, error) {
	if root == nil {
		return nil, fmt.Errorf("extract: nil document")
	}
	doc := goquery.NewDocumentFromNode(root)

	raw := primaryText(doc)
	if raw == "" {
		var err error
		raw, err = fallbackText(root)
		if err != nil {
			return nil, err
		}
	}

	cleaned := Normalize(raw)
	snap := &Snapshot{
		Title:       strings.TrimSpace(doc.Find("title").First().Text()),
		URL:         url,
		RawText:     raw,
		CleanedText: cleaned,
		CharCount:   len(cleaned),
		WordCount:   len(strings.Fields(cleaned)),
	}
	snap.Headings, snap.Lists, snap.Tables = outline(doc)
	return snap, nil
}

// primaryText returns the text of the first qualifying main-content region,
// or "" when no selector yields enough text.
func primaryText(doc *goquery.Document) string {
	for _, sel := range primarySelectors {
		region := doc.Find(sel).First()
		if region.Length() == 0 {
			continue
		}
		text := nodeText(region.Get(0))
		if len(strings.TrimSpace(text)) > minPrimaryChars {
			return text
		}
	}
	return ""
}

// fallbackText clones the body, strips the exclusion list from the clone, and
// collects what remains. The live tree is untouched.
func fallbackText(root *html.Node) (string, error) {
	body := findElement(root, "body")
	if body == nil {
		return "", fmt.Errorf("extract: document has no body")
	}
	clone := cloneTree(body)
	detached := goquery.NewDocumentFromNode(clone)
	for _, sel := range excludeSelectors {
		detached.Find(sel).Remove()
	}
	return nodeText(clone), nil
}

// nodeText walks a subtree collecting visible text with block separation, so
// headings and paragraphs do not run together on one line.
func nodeText(n *html.Node) string {
	var b strings.Builder
	collectText(&b, n)
	return b.String()
}

func collectText(b *strings.Builder, n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript":
			return
		case "br", "hr":
			b.WriteString("\n")
		case "p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "tr", "ul", "ol", "table", "div", "section":
			b.WriteString("\n")
		}
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "h1", "h2", "h3", "h4", "h5", "h6":
			b.WriteString("\n\n")
		case "li", "tr", "div", "section", "table", "ul", "ol":
			b.WriteString("\n")
		}
	}
}

// findElement returns the first element with the given tag in document order.
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// cloneTree deep-copies a subtree. The copy has no parent, so mutations on it
// cannot reach the live document.
func cloneTree(n *html.Node) *html.Node {
	clone := &html.Node{
		Type:     n.Type,
		DataAtom: n.DataAtom,
		Data:     n.Data,
		Attr:     append([]html.Attribute(nil), n.Attr...),
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		clone.AppendChild(cloneTree(c))
	}
	return clone
}
