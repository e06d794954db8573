// Package workflow drives the popup's multi-step session: detect, simplify,
// translate, add-to-calendar, export, reset, clear. All state lives in one
// Session owned by the Orchestrator and is mutated only through its named
// operations; UI affordances derive from state, never the other way around.
package workflow

import "fmt"

// State is the orchestrator's workflow state.
type State int

const (
	StateIdle State = iota
	StateDetecting
	StateExtracting
	StateSimplifying
	StateTranslating
	StateAddingToCalendar
	StateGeneratingPDF
	StateSuccess
	StateError
)

var stateNames = map[State]string{
	StateIdle:             "idle",
	StateDetecting:        "detecting",
	StateExtracting:       "extracting",
	StateSimplifying:      "simplifying",
	StateTranslating:      "translating",
	StateAddingToCalendar: "adding-to-calendar",
	StateGeneratingPDF:    "generating-pdf",
	StateSuccess:          "success",
	StateError:            "error",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// transitions is the single table of allowed state changes. Error is
// reachable from every in-flight state; the only way out of Error is a
// user-initiated retry back to Idle.
var transitions = map[State][]State{
	StateIdle:             {StateDetecting, StateExtracting, StateSimplifying, StateTranslating, StateAddingToCalendar, StateGeneratingPDF},
	StateExtracting:       {StateDetecting, StateError},
	StateDetecting:        {StateIdle, StateError},
	StateSimplifying:      {StateIdle, StateError},
	StateTranslating:      {StateIdle, StateError},
	StateAddingToCalendar: {StateSuccess, StateError},
	StateGeneratingPDF:    {StateIdle, StateError},
	StateSuccess:          {StateIdle},
	StateError:            {StateIdle},
}

func canTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PreviewKind names what the current preview shows.
type PreviewKind string

const (
	PreviewOriginal   PreviewKind = "original"
	PreviewSimplified PreviewKind = "simplified"
	PreviewTranslated PreviewKind = "translated"
)

// HistoryEntry is one preview state on the stack. The top of the stack is
// always what the popup currently displays.
type HistoryEntry struct {
	Type     PreviewKind `json:"type"`
	Content  string      `json:"content"`
	Language string      `json:"language,omitempty"`
}

// Session is the per-page workflow state, persisted between popup openings.
type Session struct {
	PageKey            string           `json:"page_key"`
	State              string           `json:"state"`
	ExtractedText      string           `json:"extracted_text"`
	ImportID           string           `json:"import_id"`
	SyllabusData       map[string]any   `json:"syllabus_data,omitempty"`
	CalendarEvents     []map[string]any `json:"calendar_events,omitempty"`
	SimplifiedMarkdown string           `json:"simplified_markdown,omitempty"`
	TranslatedMarkdown string           `json:"translated_markdown,omitempty"`
	CurrentLanguage    string           `json:"current_language,omitempty"`
	CurrentPreviewType PreviewKind      `json:"current_preview_type,omitempty"`
	History            []HistoryEntry   `json:"history_stack,omitempty"`
	Timestamp          int64            `json:"timestamp,omitempty"`
}

// top returns the current preview entry, or nil before any preview exists.
func (s *Session) top() *HistoryEntry {
	if s == nil || len(s.History) == 0 {
		return nil
	}
	return &s.History[len(s.History)-1]
}

func (s *Session) push(entry HistoryEntry) {
	s.History = append(s.History, entry)
	s.CurrentPreviewType = entry.Type
}

// Affordances lists which popup actions are currently available. They are a
// pure function of state and session contents.
type Affordances struct {
	Detect        bool
	Simplify      bool
	Translate     bool
	AddToCalendar bool
	Download      bool
	Reset         bool
	Clear         bool
}
