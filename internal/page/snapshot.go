// Package page extracts a cleaned text snapshot and a structured outline
// from an arbitrary HTML document. It prefers known main-content regions and
// falls back to a whole-body pass over a detached copy, so the live document
// tree is never mutated by extraction.
package page

// Heading is one document heading, levels 1 through 4.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Snapshot is the extracted content of one page. It is produced once per
// extraction and not modified afterwards.
type Snapshot struct {
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	RawText     string     `json:"raw_text"`
	CleanedText string     `json:"cleaned_text"`
	Headings    []Heading  `json:"headings"`
	Lists       [][]string `json:"lists"`
	Tables      [][][]string `json:"tables"`
	CharCount   int        `json:"char_count"`
	WordCount   int        `json:"word_count"`
}

// Kind classifies what sort of resource a page URL points at. PDF pages are
// imported by reference instead of being extracted in the content context.
type Kind int

const (
	KindHTML Kind = iota
	KindPDFDirect
	KindPDFEmbedded
)

func (k Kind) String() string {
	switch k {
	case KindPDFDirect:
		return "pdf"
	case KindPDFEmbedded:
		return "embedded-pdf"
	default:
		return "html"
	}
}

// Info identifies a page before any extraction has happened.
type Info struct {
	URL    string `json:"url"`
	Title  string `json:"title"`
	Kind   Kind   `json:"kind"`
	PDFURL string `json:"pdf_url,omitempty"`
}
