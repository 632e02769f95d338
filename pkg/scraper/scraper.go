// Package scraper provides the browser session and HTML helpers used to drive the registry website
package scraper

import (
	"log"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/myusername/stis-uploader/pkg/parser"
)

var (
	formHrefRegex = regexp.MustCompile(`(?i)zapis`)
	formLinkTexts = []string{"vlozitzapis", "upravitzapis"}
)

// MessageSelectors match the elements the registry uses for form errors.
// Informational notices (.hlaska, .alert-info) are left out.
const MessageSelectors = ".error, .errors li, .chyba, .alert-danger, .ui-state-error"

// ExtractFormLinks returns the hrefs of links that open the match report form.
// Links labelled "vložit zápis" or "upravit zápis" come before links that only
// have "zapis" in their address.
func ExtractFormLinks(htmlContent string) []string {
	var labelled, byHref []string

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		log.Printf("Error parsing HTML content: %v", err)
		return nil
	}

	doc.Find("a").Each(func(i int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return
		}

		text := parser.Normalize(s.Text())
		for _, t := range formLinkTexts {
			if strings.Contains(text, t) {
				labelled = append(labelled, href)
				return
			}
		}
		if formHrefRegex.MatchString(href) {
			byHref = append(byHref, href)
		}
	})

	links := append(labelled, byHref...)
	log.Printf("Extracted %d form links", len(links))
	return links
}

// ExtractMessages returns the trimmed texts of the error elements on the page
func ExtractMessages(htmlContent string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		log.Printf("Error parsing HTML content: %v", err)
		return nil
	}
	var msgs []string
	doc.Find(MessageSelectors).Each(func(i int, s *goquery.Selection) {
		if text := strings.Join(strings.Fields(s.Text()), " "); text != "" {
			msgs = append(msgs, text)
		}
	})
	return msgs
}

// PageTitle returns the <title> of a document
func PageTitle(htmlContent string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// ResolveRelativeURL resolves a link found on baseURL to an absolute URL
func ResolveRelativeURL(baseURL, relativeURL string) string {
	ref, err := url.Parse(strings.TrimSpace(relativeURL))
	if err != nil {
		return relativeURL
	}
	if ref.IsAbs() {
		return ref.String()
	}

	// Fix protocol in base URL if needed
	switch {
	case strings.HasPrefix(baseURL, "https://"), strings.HasPrefix(baseURL, "http://"):
	case strings.HasPrefix(baseURL, "https:/"):
		baseURL = "https://" + strings.TrimPrefix(baseURL, "https:/")
	case strings.HasPrefix(baseURL, "http:/"):
		baseURL = "http://" + strings.TrimPrefix(baseURL, "http:/")
	default:
		baseURL = "https://" + baseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return relativeURL
	}
	return base.ResolveReference(ref).String()
}
