// Package remote holds clients for the external collaborators: the
// extraction, simplify, translate, calendar and PDF services of the
// companion backend. Only the wire boundary lives here; all policy stays in
// the workflow package.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TokenSource supplies the access credential for calendar writes. It stands
// in for the host environment's identity facility.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// Client talks to the companion backend's extension API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
}

// ImportResult is the extraction service's answer to either import variant.
type ImportResult struct {
	Success        bool             `json:"success"`
	SyllabusID     string           `json:"syllabus_id"`
	ImportID       string           `json:"import_id"`
	SyllabusData   map[string]any   `json:"syllabus_data"`
	CalendarEvents []map[string]any `json:"calendar_events"`
	Message        string           `json:"message"`
}

// ImportText submits extracted page text for structured extraction.
func (c *Client) ImportText(ctx context.Context, sourceURL, title, extractedText string) (*ImportResult, error) {
	body := map[string]any{
		"source_url":     sourceURL,
		"title":          title,
		"extracted_text": extractedText,
	}
	var out ImportResult
	if err := c.postJSON(ctx, "/api/extension/import-text", body, nil, &out); err != nil {
		return nil, fmt.Errorf("import text: %w", err)
	}
	return &out, nil
}

// ImportPDF submits a PDF URL for server-side download and extraction.
func (c *Client) ImportPDF(ctx context.Context, sourceURL, pdfURL, title string) (*ImportResult, error) {
	body := map[string]any{
		"source_url": sourceURL,
		"pdf_url":    pdfURL,
		"title":      title,
	}
	var out ImportResult
	if err := c.postJSON(ctx, "/api/extension/import-pdf-url", body, nil, &out); err != nil {
		return nil, fmt.Errorf("import pdf: %w", err)
	}
	return &out, nil
}

// ImportStatus re-reads a previous import, used when restoring a session
// whose popup died mid-detect.
func (c *Client) ImportStatus(ctx context.Context, importID string) (*ImportResult, error) {
	var out ImportResult
	if err := c.getJSON(ctx, "/api/extension/import-status/"+url.PathEscape(importID), &out); err != nil {
		return nil, fmt.Errorf("import status: %w", err)
	}
	return &out, nil
}

// SimplifyResult is the simplify service's answer.
type SimplifyResult struct {
	Success    bool   `json:"success"`
	Simplified string `json:"simplified"`
	Message    string `json:"message"`
}

// Simplify asks the collaborator for an accessible rendition of the
// structured syllabus data.
func (c *Client) Simplify(ctx context.Context, syllabusData map[string]any, title string) (*SimplifyResult, error) {
	body := map[string]any{
		"syllabus_data": syllabusData,
		"title":         title,
	}
	var out SimplifyResult
	if err := c.postJSON(ctx, "/api/extension/simplify", body, nil, &out); err != nil {
		return nil, fmt.Errorf("simplify: %w", err)
	}
	return &out, nil
}

// TranslateResult is the translate service's answer.
type TranslateResult struct {
	Success    bool   `json:"success"`
	Translated string `json:"translated"`
	Language   string `json:"language"`
	Message    string `json:"message"`
}

// Translate renders simplified content in the target language.
func (c *Client) Translate(ctx context.Context, simplifiedContent, targetLanguage string) (*TranslateResult, error) {
	body := map[string]any{
		"simplified_content": simplifiedContent,
		"target_language":    targetLanguage,
	}
	var out TranslateResult
	if err := c.postJSON(ctx, "/api/extension/translate", body, nil, &out); err != nil {
		return nil, fmt.Errorf("translate: %w", err)
	}
	return &out, nil
}

// CalendarResult reports what the calendar service managed to write.
type CalendarResult struct {
	Success      bool   `json:"success"`
	CalendarID   string `json:"calendar_id"`
	CalendarName string `json:"calendar_name"`
	CalendarURL  string `json:"calendar_url"`
	EventsAdded  int    `json:"events_added"`
	EventsFailed int    `json:"events_failed"`
	Message      string `json:"message"`
}

// AddToCalendar creates a calendar and inserts events, authenticating with
// the supplied access token.
func (c *Client) AddToCalendar(ctx context.Context, token, calendarName string, events []map[string]any) (*CalendarResult, error) {
	body := map[string]any{
		"calendar_name": calendarName,
		"events":        events,
	}
	headers := map[string]string{"Authorization": "Bearer " + token}
	var out CalendarResult
	if err := c.postJSON(ctx, "/api/extension/add-to-calendar", body, headers, &out); err != nil {
		return nil, fmt.Errorf("add to calendar: %w", err)
	}
	return &out, nil
}

// PDFDocument is a rendered document returned by the PDF service.
type PDFDocument struct {
	Filename string
	Content  []byte
}

// GeneratePDF posts markdown to the PDF collaborator and returns the binary
// document plus the filename it suggests.
func (c *Client) GeneratePDF(ctx context.Context, markdownContent, title string) (*PDFDocument, error) {
	body := map[string]any{
		"markdown_content": markdownContent,
		"title":            title,
	}
	resp, err := c.post(ctx, "/api/extension/generate-pdf", body, nil)
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("generate pdf: status %d", resp.StatusCode)
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("generate pdf: read body: %w", err)
	}
	return &PDFDocument{
		Filename: dispositionFilename(resp.Header.Get("Content-Disposition"), title),
		Content:  content,
	}, nil
}

// Languages fetches the collaborator's supported-language table.
func (c *Client) Languages(ctx context.Context) (map[string]string, error) {
	var out struct {
		Languages map[string]string `json:"languages"`
	}
	if err := c.getJSON(ctx, "/api/extension/languages", &out); err != nil {
		return nil, fmt.Errorf("languages: %w", err)
	}
	return out.Languages, nil
}

func (c *Client) post(ctx context.Context, path string, body any, headers map[string]string) (*http.Response, error) {
	if c.BaseURL == "" {
		return nil, fmt.Errorf("missing service base url")
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.BaseURL, "/")+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.httpClient().Do(req)
}

func (c *Client) postJSON(ctx context.Context, path string, body any, headers map[string]string, out any) error {
	resp, err := c.post(ctx, path, body, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON(resp, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	if c.BaseURL == "" {
		return fmt.Errorf("missing service base url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.BaseURL, "/")+path, nil)
	if err != nil {
		return err
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON(resp, out)
}

func decodeJSON(resp *http.Response, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

// dispositionFilename pulls the filename out of a Content-Disposition header,
// deriving one from the title when the header is missing or unparseable.
func dispositionFilename(header, title string) string {
	if header != "" {
		if _, params, err := mime.ParseMediaType(header); err == nil {
			if name := params["filename"]; name != "" {
				return name
			}
		}
	}
	safe := strings.NewReplacer(" ", "_", "/", "_").Replace(title)
	if safe == "" {
		safe = "syllabus"
	}
	return safe + ".pdf"
}
