// Package lang holds the supported translation languages and detects the
// base language of extracted page text. Translating into the page's own base
// language is a revert, not a remote call, so the orchestrator needs a
// reliable notion of what that base is.
package lang

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
	"golang.org/x/text/language"
)

// supported is the translation-target table, code to display name.
var supported = map[string]string{
	"en":    "English",
	"fr":    "French",
	"es":    "Spanish",
	"zh":    "Chinese (Simplified)",
	"zh-TW": "Chinese (Traditional)",
	"ar":    "Arabic",
	"hi":    "Hindi",
	"pt":    "Portuguese",
	"ru":    "Russian",
	"ja":    "Japanese",
	"ko":    "Korean",
	"de":    "German",
	"it":    "Italian",
	"vi":    "Vietnamese",
	"tl":    "Tagalog",
	"fa":    "Persian (Farsi)",
	"uk":    "Ukrainian",
	"pl":    "Polish",
	"tr":    "Turkish",
}

// detectable maps lingua's verdicts back onto our codes. Traditional Chinese
// is not distinguished by detection; pages detect as "zh".
var detectable = map[lingua.Language]string{
	lingua.English:    "en",
	lingua.French:     "fr",
	lingua.Spanish:    "es",
	lingua.Chinese:    "zh",
	lingua.Arabic:     "ar",
	lingua.Hindi:      "hi",
	lingua.Portuguese: "pt",
	lingua.Russian:    "ru",
	lingua.Japanese:   "ja",
	lingua.Korean:     "ko",
	lingua.German:     "de",
	lingua.Italian:    "it",
	lingua.Vietnamese: "vi",
	lingua.Tagalog:    "tl",
	lingua.Persian:    "fa",
	lingua.Ukrainian:  "uk",
	lingua.Polish:     "pl",
	lingua.Turkish:    "tr",
}

// DefaultBase is used when detection is unsure.
const DefaultBase = "en"

// Supported returns the code-to-name table, with codes sorted for stable
// presentation.
func Supported() ([]string, map[string]string) {
	codes := make([]string, 0, len(supported))
	for code := range supported {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	table := make(map[string]string, len(supported))
	for code, name := range supported {
		table[code] = name
	}
	return codes, table
}

// Name returns the display name for a supported code, or "".
func Name(code string) string { return supported[code] }

// Canonical normalizes a user-supplied language code against the supported
// table, tolerating case and region variants ("FR", "zh-tw"). Unsupported
// codes return an error.
func Canonical(code string) (string, error) {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return "", fmt.Errorf("unsupported language %q", code)
	}
	full := tag.String()
	if _, ok := supported[full]; ok {
		return full, nil
	}
	base, _ := tag.Base()
	if _, ok := supported[base.String()]; ok {
		return base.String(), nil
	}
	return "", fmt.Errorf("unsupported language %q", code)
}

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// DetectBase guesses the base language of page text, falling back to English
// when the detector is unsure or the text is too thin to judge.
func DetectBase(text string) string {
	text = strings.TrimSpace(text)
	if len(text) < 20 {
		return DefaultBase
	}
	detectorOnce.Do(func() {
		langs := make([]lingua.Language, 0, len(detectable))
		for l := range detectable {
			langs = append(langs, l)
		}
		detector = lingua.NewLanguageDetectorBuilder().FromLanguages(langs...).Build()
	})
	if detected, ok := detector.DetectLanguageOf(text); ok {
		if code, known := detectable[detected]; known {
			return code
		}
	}
	return DefaultBase
}
