package main

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/go-shiori/dom"
	readability "codeberg.org/readeck/go-readability"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const extractorName = "go-readability+geekref"

// bodyFormat selects how the article body is rendered.
type bodyFormat string

const (
	formatText     bodyFormat = "text"
	formatMarkdown bodyFormat = "markdown"
)

// article is everything the extractor learned about a page.
type article struct {
	Title     string
	Authors   []string
	Published *time.Time
	Publisher string
	Body      string // rendered in the requested format
	Text      string // always plain text; keywords and summary come from it
	Keywords  []string
	Topics    []string
	Summary   string
}

type extractOpts struct {
	format        bodyFormat
	keywordCount  int
	summaryLength int
}

var (
	titleSplitRe = regexp.MustCompile(`\s+[|\x{2013}\x{2014}]\s+|\s+-\s+`)
	bylineRe     = regexp.MustCompile(`(?i)^\s*(?:written\s+)?by\s+`)
	authorSepRe  = regexp.MustCompile(`\s*(?:,|;|&|\band\b)\s*`)
)

// extractArticle pulls the readable content and metadata out of htmlBytes.
// It never fails: readability errors fall back to the text of the whole
// document and absent fields stay empty.
func extractArticle(htmlBytes []byte, pageURL *url.URL, opts extractOpts, log *zap.Logger) article {
	doc, err := html.Parse(bytes.NewReader(htmlBytes))
	if err != nil {
		log.Warn("html parse failed", zap.Error(err))
		doc = &html.Node{Type: html.DocumentNode}
	}
	meta := readMeta(doc)

	var ra readability.Article
	parsed, err := readability.FromReader(bytes.NewReader(htmlBytes), pageURL)
	if err != nil {
		log.Warn("readability extraction failed, using whole document", zap.Error(err))
	} else {
		ra = parsed
	}

	a := article{
		Title:     firstNonEmpty(ra.Title, meta.first("og:title", "twitter:title"), documentTitle(doc)),
		Authors:   collectAuthors(ra.Byline, meta),
		Published: publishedTime(ra.PublishedTime, meta),
		Publisher: firstNonEmpty(ra.SiteName, meta.first("og:site_name", "application-name", "publisher")),
		Topics:    collectTopics(meta),
	}
	if a.Title == "" {
		a.Title = "Untitled"
	}

	a.Text = nodeText(doc)
	if strings.TrimSpace(ra.Content) != "" {
		if text, err := htmlToText(ra.Content); err == nil && text != "" {
			a.Text = text
		}
	}
	a.Body = a.Text
	if opts.format == formatMarkdown {
		source := ra.Content
		if strings.TrimSpace(source) == "" {
			source = string(htmlBytes)
		}
		md, err := htmlToMarkdown(source)
		if err != nil {
			log.Warn("markdown conversion failed, using plain text", zap.Error(err))
		} else if md != "" {
			a.Body = md
		}
	}

	a.Keywords = extractKeywords(a.Text, opts.keywordCount)
	a.Summary = summarize(a.Title, a.Text, opts.summaryLength)

	log.Debug("extracted article",
		zap.String("title", a.Title),
		zap.Strings("authors", a.Authors),
		zap.Int("paragraphs", len(splitParagraphs(a.Text))),
		zap.Strings("keywords", a.Keywords),
	)
	return a
}

// metaTags maps lowercased meta name/property/itemprop to content values in
// document order.
type metaTags map[string][]string

func readMeta(doc *html.Node) metaTags {
	tags := make(metaTags)
	for _, n := range dom.QuerySelectorAll(doc, "meta") {
		content := strings.TrimSpace(dom.GetAttribute(n, "content"))
		if content == "" {
			continue
		}
		for _, attr := range []string{"name", "property", "itemprop"} {
			if key := strings.ToLower(strings.TrimSpace(dom.GetAttribute(n, attr))); key != "" {
				tags[key] = append(tags[key], content)
			}
		}
	}
	return tags
}

func (m metaTags) first(keys ...string) string {
	for _, k := range keys {
		if v := m[k]; len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

func (m metaTags) all(keys ...string) []string {
	var out []string
	for _, k := range keys {
		out = append(out, m[k]...)
	}
	return out
}

// documentTitle falls back to <title> (minus a trailing site name) and then
// the first <h1>.
func documentTitle(doc *html.Node) string {
	if n := dom.QuerySelector(doc, "title"); n != nil {
		if t := cleanTitle(dom.TextContent(n)); t != "" {
			return t
		}
	}
	if n := dom.QuerySelector(doc, "h1"); n != nil {
		return strings.Join(strings.Fields(dom.TextContent(n)), " ")
	}
	return ""
}

// cleanTitle removes common site name suffixes like "Article - Site Name".
func cleanTitle(title string) string {
	title = strings.Join(strings.Fields(title), " ")
	return strings.TrimSpace(titleSplitRe.Split(title, 2)[0])
}

func collectAuthors(byline string, meta metaTags) []string {
	candidates := []string{byline}
	candidates = append(candidates, meta.all("author", "article:author", "dc.creator", "parsely-author", "sailthru.author")...)

	var authors []string
	seen := make(map[string]bool)
	for _, c := range candidates {
		if strings.HasPrefix(c, "http://") || strings.HasPrefix(c, "https://") {
			continue
		}
		c = bylineRe.ReplaceAllString(c, "")
		for _, name := range authorSepRe.Split(c, -1) {
			name = strings.Join(strings.Fields(name), " ")
			key := strings.ToLower(name)
			if name == "" || seen[key] {
				continue
			}
			seen[key] = true
			authors = append(authors, name)
		}
	}
	return authors
}

func publishedTime(fromReadability *time.Time, meta metaTags) *time.Time {
	if fromReadability != nil && !fromReadability.IsZero() {
		return fromReadability
	}
	for _, v := range meta.all("article:published_time", "datepublished", "og:published_time",
		"publish-date", "pubdate", "dc.date", "dc.date.issued", "date") {
		if t, err := dateparse.ParseAny(v); err == nil {
			return &t
		}
	}
	return nil
}

func collectTopics(meta metaTags) []string {
	var topics []string
	seen := make(map[string]bool)
	for _, v := range meta.all("keywords", "news_keywords", "article:tag") {
		for _, t := range strings.Split(v, ",") {
			t = strings.TrimSpace(t)
			key := strings.ToLower(t)
			if t == "" || seen[key] {
				continue
			}
			seen[key] = true
			topics = append(topics, t)
		}
	}
	return topics
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
