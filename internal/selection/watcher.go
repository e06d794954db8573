// Package selection watches user text selection in the content context and
// reports substantial selections as candidate syllabus text. This is the
// manual alternative to automatic extraction.
package selection

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// defaults per the selection contract: a change restarts a 300ms debounce,
// and only selections longer than 100 characters are reported.
const (
	DefaultDebounce = 300 * time.Millisecond
	DefaultMinChars = 100
)

// Event is one reported selection.
type Event struct {
	Text  string `json:"text"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Watcher debounces selection changes and emits qualifying selections. Emit
// failures mean no listener is currently present; they are swallowed.
type Watcher struct {
	Debounce time.Duration
	MinChars int
	Emit     func(Event) error

	mu     sync.Mutex
	timer  *time.Timer
	latest Event
	closed bool
}

// Changed records the current selection and restarts the debounce timer.
func (w *Watcher) Changed(text, url, title string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.latest = Event{Text: text, URL: url, Title: title}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce(), w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	ev := w.latest
	closed := w.closed
	w.mu.Unlock()
	if closed || len(ev.Text) <= w.minChars() {
		return
	}
	if w.Emit == nil {
		return
	}
	if err := w.Emit(ev); err != nil {
		// No popup listening right now; not an error.
		log.Debug().Err(err).Msg("selection event had no listener")
	}
}

// Close stops the watcher; a pending debounce will not fire.
func (w *Watcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) debounce() time.Duration {
	if w.Debounce > 0 {
		return w.Debounce
	}
	return DefaultDebounce
}

func (w *Watcher) minChars() int {
	if w.MinChars > 0 {
		return w.MinChars
	}
	return DefaultMinChars
}
