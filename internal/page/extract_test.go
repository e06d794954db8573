package page

import (
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

func TestExtract_PrefersMainContent(t *testing.T) {
	doc := parse(t, `<!doctype html>
	<html>
	  <head><title>CS 101 Syllabus</title></head>
	  <body>
	    <nav>Course navigation links that should be ignored entirely</nav>
	    <main>
	      <h1>CS 101: Introduction to Computing</h1>
	      <p>This course introduces the foundations of computer science, including
	      programming, algorithms, and problem solving techniques for beginners.</p>
	    </main>
	    <footer>Department of Computer Science footer text</footer>
	  </body>
	</html>`)

	snap, err := Extract(doc, "https://example.edu/cs101")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if snap.Title != "CS 101 Syllabus" {
		t.Fatalf("title = %q", snap.Title)
	}
	if !strings.Contains(snap.CleanedText, "foundations of computer science") {
		t.Fatalf("expected main content, got %q", snap.CleanedText)
	}
	if strings.Contains(snap.CleanedText, "navigation links") {
		t.Fatalf("nav text leaked into cleaned text")
	}
	if snap.CharCount != len(snap.CleanedText) {
		t.Fatalf("char count %d != len %d", snap.CharCount, len(snap.CleanedText))
	}
	if snap.WordCount == 0 {
		t.Fatalf("expected nonzero word count")
	}
}

// Scenario: all primary selectors come up short, so extraction must fall back
// to the whole-body pass and still return non-empty cleaned text.
func TestExtract_FallbackWholeBody(t *testing.T) {
	doc := parse(t, `<!doctype html>
	<html>
	  <head><title>Short Main</title></head>
	  <body>
	    <main>tiny</main>
	    <nav class="navbar">Site navigation with many links everywhere</nav>
	    <div>
	      <p>The grading policy for this course assigns forty percent of the final
	      mark to assignments and sixty percent to the final exam, as discussed in
	      the first lecture of the term.</p>
	    </div>
	    <footer class="footer">Footer boilerplate</footer>
	    <script>console.log("ignore me")</script>
	  </body>
	</html>`)

	snap, err := Extract(doc, "https://example.edu/short")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if strings.TrimSpace(snap.CleanedText) == "" {
		t.Fatalf("fallback produced empty cleaned text")
	}
	if !strings.Contains(snap.CleanedText, "grading policy") {
		t.Fatalf("expected body content in fallback, got %q", snap.CleanedText)
	}
	if strings.Contains(snap.CleanedText, "Site navigation") {
		t.Fatalf("excluded nav leaked into fallback text")
	}
	if strings.Contains(snap.CleanedText, "ignore me") {
		t.Fatalf("script text leaked into fallback text")
	}
}

// The fallback operates on a detached clone: the live tree keeps its
// excluded elements.
func TestExtract_FallbackDoesNotMutateLiveTree(t *testing.T) {
	doc := parse(t, `<!doctype html>
	<html><head><title>t</title></head><body>
	  <nav>NAVMARKER</nav>
	  <p>Enough body text to be collected by the fallback path of the extraction
	  engine when no primary region qualifies for use.</p>
	</body></html>`)

	if _, err := Extract(doc, "u"); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if findElement(doc, "nav") == nil {
		t.Fatalf("live tree lost its nav element during fallback")
	}
}

func TestExtract_Outline(t *testing.T) {
	doc := parse(t, `<!doctype html>
	<html><head><title>Outline</title></head><body><main>
	  <h1>Course Title</h1>
	  <h2>Schedule</h2>
	  <h5>too deep</h5>
	  <ul><li>Week 1: Intro</li><li>Week 2: Functions</li><li>  </li></ul>
	  <table>
	    <tr><th>Assessment</th><th>Weight</th></tr>
	    <tr><td>Midterm</td><td>30%</td></tr>
	  </table>
	  <p>Body long enough to qualify as primary content for the extraction engine,
	  covering the course description and more.</p>
	</main></body></html>`)

	snap, err := Extract(doc, "u")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(snap.Headings) != 2 {
		t.Fatalf("headings = %+v", snap.Headings)
	}
	if snap.Headings[0].Level != 1 || snap.Headings[0].Text != "Course Title" {
		t.Fatalf("first heading = %+v", snap.Headings[0])
	}
	if snap.Headings[1].Level != 2 {
		t.Fatalf("second heading level = %d", snap.Headings[1].Level)
	}
	if len(snap.Lists) != 1 || len(snap.Lists[0]) != 2 {
		t.Fatalf("lists = %+v", snap.Lists)
	}
	if len(snap.Tables) != 1 || len(snap.Tables[0]) != 2 || snap.Tables[0][1][0] != "Midterm" {
		t.Fatalf("tables = %+v", snap.Tables)
	}
}

func TestExtract_NilDocument(t *testing.T) {
	if _, err := Extract(nil, "u"); err == nil {
		t.Fatalf("expected error for nil document")
	}
}
