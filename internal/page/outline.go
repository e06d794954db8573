package page

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// outline reads the structured skeleton of the live document: headings levels
// 1-4, list item texts, and table cell texts. It runs over the full tree, not
// the cleaned text, so structure survives even when the main-content pass
// picked a narrow region.
func outline(doc *goquery.Document) ([]Heading, [][]string, [][][]string) {
	var headings []Heading
	doc.Find("h1, h2, h3, h4").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		level := int(s.Get(0).Data[1] - '0')
		headings = append(headings, Heading{Level: level, Text: text})
	})

	var lists [][]string
	doc.Find("ul, ol").Each(func(_ int, list *goquery.Selection) {
		var items []string
		list.Find("li").Each(func(_ int, li *goquery.Selection) {
			if text := strings.TrimSpace(li.Text()); text != "" {
				items = append(items, text)
			}
		})
		if len(items) > 0 {
			lists = append(lists, items)
		}
	})

	var tables [][][]string
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		var rows [][]string
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			var cells []string
			tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, strings.TrimSpace(cell.Text()))
			})
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
		})
		if len(rows) > 0 {
			tables = append(tables, rows)
		}
	})

	return headings, lists, tables
}
