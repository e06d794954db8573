package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coursepaw/syllakit/internal/lang"
	"github.com/coursepaw/syllakit/internal/page"
	"github.com/coursepaw/syllakit/internal/remote"
	"github.com/coursepaw/syllakit/internal/session"
)

// Bridge is the orchestrator's view of the content context, reached through
// the message router. Highlighting calls are best-effort by contract: they
// return whatever happened, never an error.
type Bridge interface {
	ExtractPage(ctx context.Context, tabID int) (*page.Snapshot, error)
	HighlightText(ctx context.Context, tabID int, text string) int
	ClearHighlights(ctx context.Context, tabID int)
	OpenApp(ctx context.Context, syllabusID, view string) error
}

// Service is the slice of the remote collaborator API the workflow uses.
// *remote.Client satisfies it.
type Service interface {
	ImportText(ctx context.Context, sourceURL, title, extractedText string) (*remote.ImportResult, error)
	ImportPDF(ctx context.Context, sourceURL, pdfURL, title string) (*remote.ImportResult, error)
	ImportStatus(ctx context.Context, importID string) (*remote.ImportResult, error)
	Simplify(ctx context.Context, syllabusData map[string]any, title string) (*remote.SimplifyResult, error)
	Translate(ctx context.Context, simplifiedContent, targetLanguage string) (*remote.TranslateResult, error)
	AddToCalendar(ctx context.Context, token, calendarName string, events []map[string]any) (*remote.CalendarResult, error)
	GeneratePDF(ctx context.Context, markdownContent, title string) (*remote.PDFDocument, error)
}

// Saver delivers a downloaded artifact to the user.
type Saver func(filename string, content []byte) error

// Deps are the orchestrator's collaborators.
type Deps struct {
	Bridge  Bridge
	Service Service
	Store   *session.Store
	Tokens  remote.TokenSource
	Save    Saver
}

// Orchestrator is the popup's session state machine. One instance exists per
// popup opening; its context is the popup lifetime, so closing the popup
// cancels whatever is in flight.
type Orchestrator struct {
	deps Deps

	mu       sync.Mutex
	state    State
	sess     *Session
	info     page.Info
	tabID    int
	baseLang string
	// currentOp is the single-slot in-flight token: while set, every other
	// action is rejected with ErrBusy before it can reach a collaborator.
	currentOp string
	// manualText, when set by a selection event, replaces automatic
	// extraction on the next detect.
	manualText string
	lastError  string
}

// New creates an orchestrator for one page and restores any live persisted
// session for it. Restore failures and expired records leave it Idle with no
// session, never in error.
func New(ctx context.Context, deps Deps, info page.Info, tabID int) *Orchestrator {
	o := &Orchestrator{deps: deps, state: StateIdle, info: info, tabID: tabID, baseLang: lang.DefaultBase}
	o.restore(ctx)
	return o
}

func (o *Orchestrator) restore(ctx context.Context) {
	if o.deps.Store == nil {
		return
	}
	key := session.PageKey(o.info.URL)
	var sess Session
	found, err := o.deps.Store.Load(key, &sess)
	if err != nil {
		log.Warn().Err(err).Str("page_key", key).Msg("session restore failed")
		return
	}
	if !found {
		return
	}
	o.sess = &sess
	if sess.ExtractedText != "" {
		o.baseLang = lang.DetectBase(sess.ExtractedText)
	}
	// A session that died between import and response can be completed from
	// the import status endpoint.
	if sess.SyllabusData == nil && sess.ImportID != "" && o.deps.Service != nil {
		if res, err := o.deps.Service.ImportStatus(ctx, sess.ImportID); err == nil && res.Success {
			o.sess.SyllabusData = res.SyllabusData
			o.sess.CalendarEvents = res.CalendarEvents
			o.persist()
		} else if err != nil {
			log.Warn().Err(err).Str("import_id", sess.ImportID).Msg("import status lookup failed")
		}
	}
	log.Info().Str("page_key", key).Msg("restored session")
}

// State returns the current workflow state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Session returns a copy of the current session, or nil before detection.
func (o *Orchestrator) Session() *Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sess == nil {
		return nil
	}
	copied := *o.sess
	copied.History = append([]HistoryEntry(nil), o.sess.History...)
	return &copied
}

// LastError returns the user-visible message of the most recent failure.
func (o *Orchestrator) LastError() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastError
}

// Preview returns the currently displayed preview entry, or nil.
func (o *Orchestrator) Preview() *HistoryEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	if top := o.sess.top(); top != nil {
		entry := *top
		return &entry
	}
	return nil
}

// Affordances derives which actions the popup may offer right now.
func (o *Orchestrator) Affordances() Affordances {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateIdle || o.currentOp != "" {
		return Affordances{}
	}
	a := Affordances{Detect: true}
	if o.sess != nil && o.sess.SyllabusData != nil {
		a.Simplify = true
		a.Download = o.sess.top() != nil
		a.AddToCalendar = len(o.sess.CalendarEvents) > 0
		a.Translate = o.sess.SimplifiedMarkdown != ""
		a.Reset = len(o.sess.History) > 1
		a.Clear = true
	}
	return a
}

// UseSelection records user-selected text as the extraction source for the
// next detect, the manual alternative to automatic extraction.
func (o *Orchestrator) UseSelection(text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.manualText = text
}

// Detect runs the detection step: gather page content (by page kind), send
// it to the extraction collaborator, store the results, request highlighting
// and persist the session. On success the workflow returns to Idle with the
// dependent actions enabled.
func (o *Orchestrator) Detect(ctx context.Context) error {
	start := StateDetecting
	if o.info.Kind == page.KindHTML {
		start = StateExtracting
	}
	if err := o.begin("detect", start); err != nil {
		return err
	}

	var extracted string
	if o.info.Kind == page.KindHTML {
		o.mu.Lock()
		manual := o.manualText
		o.mu.Unlock()
		if manual != "" {
			extracted = manual
		} else {
			snap, err := o.deps.Bridge.ExtractPage(ctx, o.tabID)
			if err != nil {
				return o.fail(fmt.Errorf("extract page: %w", err))
			}
			extracted = snap.CleanedText
			o.mu.Lock()
			if o.info.Title == "" {
				o.info.Title = snap.Title
			}
			o.mu.Unlock()
		}
		o.setState(StateDetecting)
	}

	var res *remote.ImportResult
	var err error
	if o.info.Kind == page.KindHTML {
		res, err = o.deps.Service.ImportText(ctx, o.info.URL, o.info.Title, extracted)
	} else {
		res, err = o.deps.Service.ImportPDF(ctx, o.info.URL, o.info.PDFURL, o.info.Title)
	}
	if err != nil {
		return o.fail(err)
	}
	if !res.Success {
		return o.fail(fmt.Errorf("extraction service: %s", fallbackMsg(res.Message)))
	}

	o.mu.Lock()
	o.sess = &Session{
		PageKey:        session.PageKey(o.info.URL),
		ExtractedText:  extracted,
		ImportID:       res.ImportID,
		SyllabusData:   res.SyllabusData,
		CalendarEvents: res.CalendarEvents,
	}
	o.sess.push(HistoryEntry{Type: PreviewOriginal, Content: originalPreview(o.sess, o.info)})
	o.baseLang = lang.DetectBase(extracted)
	o.manualText = ""
	o.mu.Unlock()

	if extracted != "" {
		count := o.deps.Bridge.HighlightText(ctx, o.tabID, extracted)
		log.Info().Int("fragments", count).Msg("highlighted extracted text")
	}
	return o.complete(StateIdle)
}

// Simplify asks the collaborator for the accessible rendition. Requires a
// completed detect.
func (o *Orchestrator) Simplify(ctx context.Context) error {
	o.mu.Lock()
	if o.sess == nil || o.sess.SyllabusData == nil {
		o.mu.Unlock()
		return ErrNotDetected
	}
	data := o.sess.SyllabusData
	title := o.title()
	o.mu.Unlock()

	if err := o.begin("simplify", StateSimplifying); err != nil {
		return err
	}
	res, err := o.deps.Service.Simplify(ctx, data, title)
	if err != nil {
		return o.fail(err)
	}
	if !res.Success {
		return o.fail(fmt.Errorf("simplify service: %s", fallbackMsg(res.Message)))
	}

	o.mu.Lock()
	o.sess.SimplifiedMarkdown = res.Simplified
	o.sess.push(HistoryEntry{Type: PreviewSimplified, Content: res.Simplified})
	o.mu.Unlock()
	return o.complete(StateIdle)
}

// Translate renders the simplified content in the target language and
// triggers delivery of the translated artifact. Selecting the page's base
// language reverts the preview to the simplified content without a remote
// call.
func (o *Orchestrator) Translate(ctx context.Context, code string) error {
	canonical, err := lang.Canonical(code)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrBadLanguage, code)
	}

	o.mu.Lock()
	if o.sess == nil || o.sess.SimplifiedMarkdown == "" {
		o.mu.Unlock()
		return ErrNotSimplified
	}
	if canonical == o.baseLang {
		o.revertToSimplifiedLocked()
		o.mu.Unlock()
		o.persistSnapshot()
		return nil
	}
	simplified := o.sess.SimplifiedMarkdown
	title := o.title()
	o.mu.Unlock()

	if err := o.begin("translate", StateTranslating); err != nil {
		return err
	}
	res, err := o.deps.Service.Translate(ctx, simplified, canonical)
	if err != nil {
		return o.fail(err)
	}
	if !res.Success {
		return o.fail(fmt.Errorf("translate service: %s", fallbackMsg(res.Message)))
	}

	o.mu.Lock()
	o.sess.TranslatedMarkdown = res.Translated
	o.sess.CurrentLanguage = canonical
	o.sess.push(HistoryEntry{Type: PreviewTranslated, Content: res.Translated, Language: canonical})
	o.mu.Unlock()

	// Deliver the translated artifact. Delivery is secondary to the
	// translation itself, so a failed download does not fail the step.
	if doc, err := o.deps.Service.GeneratePDF(ctx, res.Translated, title); err != nil {
		log.Warn().Err(err).Msg("translated artifact delivery failed")
	} else if err := o.save(doc); err != nil {
		log.Warn().Err(err).Msg("translated artifact save failed")
	}
	return o.complete(StateIdle)
}

// AddToCalendar obtains an access credential and submits the detected
// calendar events. Requires detected events.
func (o *Orchestrator) AddToCalendar(ctx context.Context, calendarName string) (*remote.CalendarResult, error) {
	o.mu.Lock()
	if o.sess == nil || len(o.sess.CalendarEvents) == 0 {
		o.mu.Unlock()
		return nil, ErrNoEvents
	}
	events := o.sess.CalendarEvents
	if calendarName == "" {
		calendarName = o.title()
	}
	o.mu.Unlock()

	if err := o.begin("add-to-calendar", StateAddingToCalendar); err != nil {
		return nil, err
	}
	token, err := o.deps.Tokens.Token(ctx)
	if err != nil {
		return nil, o.fail(fmt.Errorf("obtain access token: %w", err))
	}
	res, err := o.deps.Service.AddToCalendar(ctx, token, calendarName, events)
	if err != nil {
		return nil, o.fail(err)
	}
	if !res.Success {
		return nil, o.fail(fmt.Errorf("calendar service: %s", fallbackMsg(res.Message)))
	}
	return res, o.complete(StateSuccess)
}

// DownloadPDF delegates rendering of the current preview to the PDF
// collaborator and saves the returned document.
func (o *Orchestrator) DownloadPDF(ctx context.Context) error {
	o.mu.Lock()
	top := o.sess.top()
	if top == nil || strings.TrimSpace(top.Content) == "" {
		o.mu.Unlock()
		return ErrNoPreview
	}
	content := top.Content
	title := o.title()
	o.mu.Unlock()

	if err := o.begin("download-pdf", StateGeneratingPDF); err != nil {
		return err
	}
	doc, err := o.deps.Service.GeneratePDF(ctx, content, title)
	if err != nil {
		return o.fail(err)
	}
	if err := o.save(doc); err != nil {
		return o.fail(err)
	}
	return o.complete(StateIdle)
}

// Reset pops the top preview entry, restoring the one beneath it and
// clearing any artifact only valid for the popped entry. With one entry or
// none it is a no-op.
func (o *Orchestrator) Reset() error {
	o.mu.Lock()
	if o.sess == nil || len(o.sess.History) <= 1 {
		o.mu.Unlock()
		return nil
	}
	popped := o.sess.History[len(o.sess.History)-1]
	o.sess.History = o.sess.History[:len(o.sess.History)-1]
	switch popped.Type {
	case PreviewTranslated:
		// The artifact below may itself be a translation; only artifacts
		// valid solely for the popped entry are cleared.
		if top := o.sess.top(); top.Type == PreviewTranslated {
			o.sess.TranslatedMarkdown = top.Content
			o.sess.CurrentLanguage = top.Language
		} else {
			o.sess.TranslatedMarkdown = ""
			o.sess.CurrentLanguage = ""
		}
	case PreviewSimplified:
		o.sess.SimplifiedMarkdown = ""
		o.sess.TranslatedMarkdown = ""
		o.sess.CurrentLanguage = ""
	}
	o.sess.CurrentPreviewType = o.sess.top().Type
	o.mu.Unlock()
	o.persistSnapshot()
	return nil
}

// ClearDetection removes highlights, deletes the persisted session and
// returns the popup to its pre-detection state.
func (o *Orchestrator) ClearDetection(ctx context.Context) error {
	o.deps.Bridge.ClearHighlights(ctx, o.tabID)
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.deps.Store != nil {
		if err := o.deps.Store.Clear(session.PageKey(o.info.URL)); err != nil {
			return err
		}
	}
	o.sess = nil
	o.manualText = ""
	o.lastError = ""
	o.state = StateIdle
	return nil
}

// Retry leaves the error state. It re-enters Idle; the caller re-runs page
// info gathering and detection.
func (o *Orchestrator) Retry() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateError {
		o.state = StateIdle
		o.lastError = ""
	}
}

// Acknowledge returns from the success screen to Idle.
func (o *Orchestrator) Acknowledge() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateSuccess {
		o.state = StateIdle
	}
}

// OpenApp opens the detected syllabus in the companion application.
func (o *Orchestrator) OpenApp(ctx context.Context) error {
	o.mu.Lock()
	if o.sess == nil || o.sess.SyllabusData == nil {
		o.mu.Unlock()
		return ErrNotDetected
	}
	id := o.sess.ImportID
	view := string(o.sess.CurrentPreviewType)
	o.mu.Unlock()
	return o.deps.Bridge.OpenApp(ctx, id, view)
}

// begin claims the single in-flight slot and moves into the given working
// state. A second concurrent action is rejected before it can reach a
// collaborator.
func (o *Orchestrator) begin(op string, to State) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.currentOp != "" {
		return fmt.Errorf("%w (%s)", ErrBusy, o.currentOp)
	}
	if !canTransition(o.state, to) {
		return fmt.Errorf("%w: %s while %s", ErrBadTransition, op, o.state)
	}
	o.currentOp = op
	o.state = to
	o.lastError = ""
	return nil
}

func (o *Orchestrator) setState(to State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if canTransition(o.state, to) {
		o.state = to
	}
}

// fail records a user-visible failure, releases the in-flight slot and
// enters the error state.
func (o *Orchestrator) fail(err error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.currentOp = ""
	o.lastError = err.Error()
	o.state = StateError
	log.Warn().Err(err).Msg("workflow step failed")
	return err
}

// complete releases the in-flight slot, moves to the resting state and
// persists the session.
func (o *Orchestrator) complete(to State) error {
	o.mu.Lock()
	o.currentOp = ""
	if canTransition(o.state, to) {
		o.state = to
	}
	o.mu.Unlock()
	o.persistSnapshot()
	return nil
}

func (o *Orchestrator) persistSnapshot() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.persist()
}

// persist writes the session under its page key. Callers hold the lock.
func (o *Orchestrator) persist() {
	if o.deps.Store == nil || o.sess == nil {
		return
	}
	o.sess.State = o.state.String()
	o.sess.Timestamp = time.Now().UnixMilli()
	if err := o.deps.Store.Save(o.sess.PageKey, o.sess); err != nil {
		log.Warn().Err(err).Str("page_key", o.sess.PageKey).Msg("session persist failed")
	}
}

// revertToSimplifiedLocked pops translated entries so the simplified content
// is displayed again. Callers hold the lock.
func (o *Orchestrator) revertToSimplifiedLocked() {
	for len(o.sess.History) > 1 && o.sess.top().Type == PreviewTranslated {
		o.sess.History = o.sess.History[:len(o.sess.History)-1]
	}
	o.sess.TranslatedMarkdown = ""
	o.sess.CurrentLanguage = ""
	o.sess.CurrentPreviewType = o.sess.top().Type
}

func (o *Orchestrator) save(doc *remote.PDFDocument) error {
	if o.deps.Save == nil {
		return fmt.Errorf("no artifact saver configured")
	}
	return o.deps.Save(doc.Filename, doc.Content)
}

// title picks the best available display title. Callers hold the lock.
func (o *Orchestrator) title() string {
	if o.sess != nil {
		if t := syllabusTitle(o.sess.SyllabusData); t != "" {
			return t
		}
	}
	if o.info.Title != "" {
		return o.info.Title
	}
	return "Syllabus"
}

// syllabusTitle digs the course title out of the extraction service's
// structured data, tolerating its section-of-candidates shape.
func syllabusTitle(data map[string]any) string {
	sections, ok := data["extracted_sections"].(map[string]any)
	if !ok {
		return ""
	}
	candidates, ok := sections["title"].([]any)
	if !ok || len(candidates) == 0 {
		return ""
	}
	first, ok := candidates[0].(map[string]any)
	if !ok {
		return ""
	}
	text, _ := first["text"].(string)
	return strings.TrimSpace(text)
}

// originalPreview is what the history stack's original entry shows: the
// extracted page text for HTML pages, or a short import notice for PDFs
// whose text lives server-side.
func originalPreview(sess *Session, info page.Info) string {
	if sess.ExtractedText != "" {
		return sess.ExtractedText
	}
	return fmt.Sprintf("# %s\n\nImported from %s", info.Title, info.URL)
}

func fallbackMsg(msg string) string {
	if strings.TrimSpace(msg) == "" {
		return "request failed"
	}
	return msg
}
