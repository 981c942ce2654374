package scraper

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/interview-iq/backend/internal/storage/models"
)

const (
	maxContentChars = 10000
	maxHeadings     = 20
)

// parsePage extracts structured data from an HTML document: title, meta
// description, H1-H3 headings, and the main textual content from the
// first matching of <main>, <article>, or <body>.
func parsePage(body io.Reader) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return Page{}, err
	}

	doc.Find("script, style, nav, footer, header, aside").Remove()

	page := Page{
		Title:    strings.TrimSpace(doc.Find("title").First().Text()),
		Headings: []models.Heading{},
	}

	if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		page.Description = strings.TrimSpace(desc)
	}

	for _, level := range []string{"h1", "h2", "h3"} {
		doc.Find(level).Each(func(_ int, s *goquery.Selection) {
			if len(page.Headings) >= maxHeadings {
				return
			}
			if text := strings.TrimSpace(s.Text()); text != "" {
				page.Headings = append(page.Headings, models.Heading{Level: level, Text: text})
			}
		})
	}

	content := doc.Find("main").First()
	if content.Length() == 0 {
		content = doc.Find("article").First()
	}
	if content.Length() == 0 {
		content = doc.Find("body").First()
	}
	page.Content = cleanContent(content.Text())

	return page, nil
}

// cleanContent trims each line, drops empty ones, and caps the result
// at a rune boundary so the summary stays valid UTF-8.
func cleanContent(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	content := strings.Join(lines, "\n")
	if len(content) > maxContentChars {
		cut := maxContentChars
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut]
	}
	return content
}
