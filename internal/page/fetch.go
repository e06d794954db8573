package page

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Fetcher retrieves one page on the user's behalf. There is deliberately no
// retry here: a failed load is surfaced and retried only by the user.
type Fetcher struct {
	HTTPClient *http.Client
	UserAgent  string
	// Timeout bounds the whole request. Zero means 15s.
	Timeout time.Duration
	// RedirectMaxHops caps redirect following. Zero means 5.
	RedirectMaxHops int
}

// Loaded is the outcome of fetching a page: its identity plus, for HTML
// pages, the parsed document tree.
type Loaded struct {
	Info Info
	Doc  *html.Node
}

// Fetch retrieves a URL and classifies it. Direct PDF URLs return an Info of
// KindPDFDirect with no document; HTML bodies are parsed and scanned for an
// embedded PDF viewer.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Loaded, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if scheme := strings.ToLower(u.Scheme); scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %q", u.Scheme)
	}

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	resp, err := f.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if isPDFContentType(contentType) || hasPDFPath(u) {
		return &Loaded{Info: Info{URL: rawURL, Title: pdfTitle(u), Kind: KindPDFDirect, PDFURL: rawURL}}, nil
	}
	if !isHTMLContentType(contentType) {
		return nil, fmt.Errorf("unsupported content type: %s", contentType)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Loaded{Info: Classify(doc, rawURL), Doc: doc}, nil
}

func (f *Fetcher) client() *http.Client {
	hops := f.RedirectMaxHops
	if hops <= 0 {
		hops = 5
	}
	redirect := func(req *http.Request, via []*http.Request) error {
		if len(via) >= hops {
			return errors.New("too many redirects")
		}
		return nil
	}
	if f.HTTPClient != nil {
		c := *f.HTTPClient
		c.CheckRedirect = redirect
		return &c
	}
	return &http.Client{CheckRedirect: redirect}
}

// Classify identifies a parsed page: the title from the document, and an
// embedded-PDF kind when the first embed or iframe points at a PDF.
func Classify(doc *html.Node, rawURL string) Info {
	info := Info{URL: rawURL, Kind: KindHTML}
	if t := findElement(doc, "title"); t != nil && t.FirstChild != nil {
		info.Title = strings.TrimSpace(t.FirstChild.Data)
	}
	if src := findEmbeddedPDF(doc); src != "" {
		info.Kind = KindPDFEmbedded
		info.PDFURL = src
	}
	return info
}

func findEmbeddedPDF(n *html.Node) string {
	if n.Type == html.ElementNode && (n.Data == "embed" || n.Data == "iframe") {
		for _, attr := range n.Attr {
			if attr.Key == "src" && strings.Contains(strings.ToLower(attr.Val), ".pdf") {
				return attr.Val
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if src := findEmbeddedPDF(c); src != "" {
			return src
		}
	}
	return ""
}

func isPDFContentType(ct string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(ct)), "application/pdf")
}

func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return ct == "" || strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

func hasPDFPath(u *url.URL) bool {
	return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
}

// pdfTitle derives a display title from the last path segment of a PDF URL.
func pdfTitle(u *url.URL) string {
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) == 0 || segs[len(segs)-1] == "" {
		return u.Host
	}
	return strings.TrimSuffix(segs[len(segs)-1], ".pdf")
}
