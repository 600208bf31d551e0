// Package extract pulls outbound hyperlinks from HTML documents.
package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// schemes we refuse to crawl
var badScheme = map[string]struct{}{
	"mailto":     {},
	"javascript": {},
	"tel":        {},
	"data":       {},
}

// Options tunes link selection.
type Options struct {
	// ResolveRelative resolves relative hrefs against the page URL. When false
	// only hrefs that already start with "http" are returned, verbatim.
	ResolveRelative bool
}

// Extractor implements crawler.LinkExtractor with goquery.
type Extractor struct {
	opts Options
}

// New builds an Extractor.
func New(opts Options) *Extractor {
	return &Extractor{opts: opts}
}

// Extract returns the hyperlink targets of every a[href] element in body, in
// document order with duplicates removed.
func (e *Extractor) Extract(baseURL string, body string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var base *url.URL
	if e.opts.ResolveRelative {
		base, err = url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base url %q: %w", baseURL, err)
		}
	}

	seen := make(map[string]struct{})
	links := make([]string, 0)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		var link string
		if base != nil {
			link = resolve(base, href)
		} else if strings.HasPrefix(href, "http") {
			link = href
		}
		if link == "" {
			return
		}
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	})
	return links, nil
}

// resolve converts href into an absolute http(s) URL, or "" if it should be
// ignored.
func resolve(base *url.URL, href string) string {
	if strings.HasPrefix(href, "#") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.Scheme != "" {
		scheme := strings.ToLower(ref.Scheme)
		if _, bad := badScheme[scheme]; bad {
			return ""
		}
		if scheme != "http" && scheme != "https" {
			return ""
		}
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	abs.Fragment = ""
	return abs.String()
}
