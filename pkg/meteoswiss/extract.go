package meteoswiss

import (
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// Elements that never carry page content and only pollute the markdown.
const strippedSelectors = "script, style, noscript, nav, header, footer, aside, form, iframe"

// contentSelectors are tried in order to locate the main content of a page.
var contentSelectors = []string{"main", "article", "#content"}

func newConverter() *md.Converter {
	return md.NewConverter("", true, nil)
}

// extractPage pulls the title and main content of an HTML document and
// renders the content as markdown.
func extractPage(html string) (title, markdown string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", fmt.Errorf("parsing HTML: %w", err)
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())

	content := doc.Find("body")
	for _, selector := range contentSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			content = sel.First()
			break
		}
	}
	content.Find(strippedSelectors).Remove()

	markdown = strings.TrimSpace(newConverter().Convert(content))
	if markdown == "" {
		return title, "", fmt.Errorf("no readable content found")
	}
	return title, markdown, nil
}

// extractReportSection renders the region's section of the weather-report
// page as markdown. Pages mark the section with a data-region attribute; if
// the marker is missing the whole report body is used.
func extractReportSection(html, region string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	doc.Find(strippedSelectors).Remove()

	section := doc.Find(fmt.Sprintf("[data-region=%q]", region))
	if section.Length() == 0 {
		section = doc.Find("#weather-report-" + region)
	}
	if section.Length() == 0 {
		for _, selector := range contentSelectors {
			if sel := doc.Find(selector); sel.Length() > 0 {
				section = sel.First()
				break
			}
		}
	}
	if section.Length() == 0 {
		section = doc.Find("body")
	}

	markdown := strings.TrimSpace(newConverter().Convert(section))
	if markdown == "" {
		return "", fmt.Errorf("no report content found for region %q", region)
	}
	return markdown, nil
}
