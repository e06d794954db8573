// Package highlight re-locates previously extracted text inside a live
// document tree and wraps the matching text nodes in marker elements. Every
// wrap is reversible: Clear restores the document's text content exactly.
package highlight

import (
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// MarkerClass tags every wrapper element created by Highlight.
	MarkerClass = "syllakit-highlight"
	// PrimaryID tags the first wrapped fragment, the scroll target.
	PrimaryID = "syllakit-highlight-primary"
	// styleID guards Inject against double insertion.
	styleID = "syllakit-highlight-style"

	// minInputChars: inputs shorter than this are not highlighted at all.
	minInputChars = 50
	// minPhraseChars: phrases at or below this length are discarded.
	minPhraseChars = 30
	// maxPhraseChars: retained phrases are capped at this length.
	maxPhraseChars = 150
	// maxFragments bounds both the phrase list and the number of wraps so a
	// single synchronous pass cannot stall on a pathological document.
	maxFragments = 100
	// searchKeyChars: length of the prefix used to re-find a phrase.
	searchKeyChars = 60
)

const styleCSS = "." + MarkerClass + "{background-color:#fff3a3;border-radius:2px;}" +
	"#" + PrimaryID + "{scroll-margin-top:40vh;}"

// Engine owns the highlight set of one document. At most one live set exists
// per document: Highlight tears down any previous set before wrapping.
type Engine struct {
	doc     *html.Node
	primary *html.Node
}

// New returns an engine bound to a parsed document.
func New(doc *html.Node) *Engine {
	return &Engine{doc: doc}
}

// Inject installs the highlight stylesheet into the document head. Calling it
// again is a no-op once the marker style element exists.
func (e *Engine) Inject() {
	if e.doc == nil || findByID(e.doc, styleID) != nil {
		return
	}
	head := findTag(e.doc, "head")
	if head == nil {
		return
	}
	style := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Style,
		Data:     "style",
		Attr:     []html.Attribute{{Key: "id", Val: styleID}},
	}
	style.AppendChild(&html.Node{Type: html.TextNode, Data: styleCSS})
	head.AppendChild(style)
}

// Highlight splits text into candidate phrases and wraps, for each phrase,
// the first text node containing that phrase's search key. It returns the
// number of fragments actually wrapped.
//
// Each phrase wraps at most one node and the walk skips nodes already inside
// a marker, so a later phrase can never disturb an earlier wrap in the same
// pass; a phrase whose only occurrence is already wrapped is simply skipped.
// Re-walking from a pristine snapshot per phrase would cost phrases x nodes
// for no visible difference.
func (e *Engine) Highlight(text string) int {
	if e.doc == nil || len(text) < minInputChars {
		return 0
	}
	// Tear down any previous set so at most one exists.
	e.Clear()

	count := 0
	for _, phrase := range splitPhrases(text) {
		key := searchKey(phrase)
		if key == "" {
			continue
		}
		node := findTextNode(e.doc, key)
		if node == nil {
			continue
		}
		if !e.wrap(node, count == 0) {
			continue
		}
		count++
		if count >= maxFragments {
			break
		}
	}
	if e.primary != nil {
		// The popup surface scrolls the primary fragment into view; here we
		// only record and report it.
		log.Debug().Str("id", PrimaryID).Msg("primary highlight placed")
	}
	return count
}

// wrap replaces a text node with a marker element containing it. A mutation
// failure on one node is non-fatal: it is recovered and the phrase skipped.
func (e *Engine) wrap(node *html.Node, primary bool) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Debug().Interface("panic", r).Msg("highlight wrap failed; skipping fragment")
			ok = false
		}
	}()
	parent := node.Parent
	if parent == nil {
		return false
	}
	mark := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Mark,
		Data:     "mark",
		Attr:     []html.Attribute{{Key: "class", Val: MarkerClass}},
	}
	if primary {
		mark.Attr = append(mark.Attr, html.Attribute{Key: "id", Val: PrimaryID})
	}
	parent.InsertBefore(mark, node)
	parent.RemoveChild(node)
	mark.AppendChild(node)
	if primary {
		e.primary = mark
	}
	return true
}

// Clear unwraps every marker element in the document, splicing its children
// back in place and merging adjacent text nodes so the text content returns
// to its pre-highlight value. Safe to call with nothing highlighted.
func (e *Engine) Clear() {
	if e.doc == nil {
		return
	}
	for _, mark := range findMarkers(e.doc) {
		unwrap(mark)
	}
	e.primary = nil
}

// Primary returns the first-wrapped marker of the current set, or nil.
func (e *Engine) Primary() *html.Node { return e.primary }

// Count reports the size of the current highlight set.
func (e *Engine) Count() int { return len(findMarkers(e.doc)) }

func unwrap(mark *html.Node) {
	parent := mark.Parent
	if parent == nil {
		return
	}
	for mark.FirstChild != nil {
		child := mark.FirstChild
		mark.RemoveChild(child)
		parent.InsertBefore(child, mark)
	}
	parent.RemoveChild(mark)
	mergeTextNodes(parent)
}

// mergeTextNodes joins runs of adjacent text-node children into one node.
func mergeTextNodes(parent *html.Node) {
	c := parent.FirstChild
	for c != nil {
		next := c.NextSibling
		if c.Type == html.TextNode && next != nil && next.Type == html.TextNode {
			c.Data += next.Data
			parent.RemoveChild(next)
			continue
		}
		c = next
	}
}

// findTextNode walks the tree in document order and returns the first text
// node containing key whose parent is not already a marker.
func findTextNode(n *html.Node, key string) *html.Node {
	if n.Type == html.TextNode && strings.Contains(n.Data, key) && !isMarker(n.Parent) {
		return n
	}
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style":
			return nil
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findTextNode(c, key); found != nil {
			return found
		}
	}
	return nil
}

func isMarker(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, attr := range n.Attr {
		if attr.Key == "class" && strings.Contains(attr.Val, MarkerClass) {
			return true
		}
	}
	return false
}

func findMarkers(n *html.Node) []*html.Node {
	var marks []*html.Node
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if isMarker(cur) {
			marks = append(marks, cur)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return marks
}

func findTag(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findTag(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, attr := range n.Attr {
			if attr.Key == "id" && attr.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}
