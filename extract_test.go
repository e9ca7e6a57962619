package main

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const articleHTML = `<html><head>
	<title>Metadata Test - Test Site</title>
	<meta name="author" content="Jane Roe and John Doe">
	<meta property="article:author" content="https://example.com/authors/jane">
	<meta property="og:site_name" content="Test Site">
	<meta property="article:published_time" content="2024-03-05T10:00:00Z">
	<meta name="keywords" content="metadata, extraction, Testing">
	<meta property="article:tag" content="testing">
</head><body>
	<nav><a href="/">Home</a><a href="/about">About</a></nav>
	<article>
		<h1>Metadata Test</h1>
		<p>This article tests metadata extraction. It has enough content for
		readability to identify it as the main article. More text is needed
		to ensure the algorithm works correctly and finds this as main content.</p>
		<p>Second paragraph with additional content to boost the text density.
		The readability algorithm uses content length as one of its signals.
		Having substantial text helps it identify the main article region.</p>
		<p>Metadata extraction keeps the citation fields stable. Metadata matters
		because a reference manager depends on it for every single entry.</p>
	</article>
	<footer>Copyright 2024</footer>
</body></html>`

func defaultExtractOpts() extractOpts {
	return extractOpts{
		format:        formatText,
		keywordCount:  defaultKeywordCount,
		summaryLength: defaultSummaryLength,
	}
}

func TestExtractArticle_Metadata(t *testing.T) {
	u, _ := url.Parse("https://example.com/article")
	a := extractArticle([]byte(articleHTML), u, defaultExtractOpts(), zap.NewNop())

	assert.Contains(t, a.Title, "Metadata Test")
	assert.Subset(t, a.Authors, []string{"Jane Roe", "John Doe"})
	for _, name := range a.Authors {
		assert.False(t, strings.HasPrefix(name, "http"), "author %q", name)
	}
	assert.Equal(t, "Test Site", a.Publisher)
	require.NotNil(t, a.Published)
	assert.Equal(t, "2024-03-05", a.Published.UTC().Format(dateLayout))
	assert.Equal(t, []string{"metadata", "extraction", "Testing"}, a.Topics)
}

func TestExtractArticle_BodyAndNLP(t *testing.T) {
	u, _ := url.Parse("https://example.com/article")
	a := extractArticle([]byte(articleHTML), u, defaultExtractOpts(), zap.NewNop())

	assert.Contains(t, a.Body, "This article tests metadata extraction.")
	assert.NotContains(t, a.Body, "<p>")
	assert.Equal(t, a.Text, a.Body)
	assert.GreaterOrEqual(t, len(splitParagraphs(a.Body)), 3)

	assert.Contains(t, a.Keywords, "metadata")
	assert.LessOrEqual(t, len(a.Keywords), defaultKeywordCount)
	assert.NotEmpty(t, a.Summary)
	assert.LessOrEqual(t, len(splitSentences(a.Summary)), defaultSummaryLength)
}

func TestExtractArticle_Markdown(t *testing.T) {
	u, _ := url.Parse("https://example.com/article")
	opts := defaultExtractOpts()
	opts.format = formatMarkdown
	a := extractArticle([]byte(articleHTML), u, opts, zap.NewNop())

	assert.Contains(t, a.Body, "This article tests metadata extraction.")
	assert.NotContains(t, a.Text, "#")
	assert.NotEmpty(t, a.Keywords)
}

func TestExtractArticle_MissingFieldsDefault(t *testing.T) {
	u, _ := url.Parse("https://example.com/empty")
	a := extractArticle([]byte(`<html><head></head><body></body></html>`), u, defaultExtractOpts(), zap.NewNop())

	assert.Equal(t, "Untitled", a.Title)
	assert.Empty(t, a.Authors)
	assert.Nil(t, a.Published)
	assert.Empty(t, a.Publisher)
	assert.Empty(t, a.Keywords)
	assert.Empty(t, a.Topics)
	assert.Empty(t, a.Summary)
	assert.Empty(t, a.Body)
}

func TestExtractArticle_GarbageInput(t *testing.T) {
	u, _ := url.Parse("https://example.com/bin")
	a := extractArticle([]byte{0x00, 0xff, 0xfe, '<', '<'}, u, defaultExtractOpts(), zap.NewNop())
	assert.NotEmpty(t, a.Title)
}

func TestDocumentTitle_Fallbacks(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"title tag", `<html><head><title>Article Name | Site</title></head></html>`, "Article Name"},
		{"h1", `<html><body><h1>  Heading
			Title </h1></body></html>`, "Heading Title"},
		{"none", `<html><body><p>x</p></body></html>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseHTML(t, tt.html)
			assert.Equal(t, tt.want, documentTitle(doc))
		})
	}
}

func TestCollectAuthors(t *testing.T) {
	meta := metaTags{
		"author":     {"By Alice Smith, Bob Jones"},
		"dc.creator": {"bob jones", "Carol; Dan & Eve"},
	}
	got := collectAuthors("Written by Alice Smith", meta)
	assert.Equal(t, []string{"Alice Smith", "Bob Jones", "Carol", "Dan", "Eve"}, got)
}

func TestCollectAuthors_AndInsideName(t *testing.T) {
	got := collectAuthors("Sandy Anderson", metaTags{})
	assert.Equal(t, []string{"Sandy Anderson"}, got)
}

func TestPublishedTime_FromMeta(t *testing.T) {
	meta := metaTags{"date": {"not a date", "March 7, 2023"}}
	got := publishedTime(nil, meta)
	require.NotNil(t, got)
	assert.Equal(t, "2023-03-07", got.Format(dateLayout))
}
