package verify

import (
	"bytes"
	"cmp"
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/ppiankov/coastwatch/internal/model"
)

const (
	newsQueryLen      = 3
	defaultNewsSource = "Google News"
)

// NewsSearcher reads a Google News style RSS search feed.
type NewsSearcher struct {
	fetcher    *Fetcher
	searchURL  string
	maxResults int
	authority  *AuthorityClassifier
}

// NewNewsSearcher creates a searcher against searchURL. A nil authority
// classifier selects the built-in outlet lists.
func NewNewsSearcher(fetcher *Fetcher, searchURL string, maxResults int, authority *AuthorityClassifier) *NewsSearcher {
	if maxResults <= 0 {
		maxResults = 10
	}
	if authority == nil {
		authority = NewAuthorityClassifier(nil, nil)
	}
	return &NewsSearcher{fetcher: fetcher, searchURL: searchURL, maxResults: maxResults, authority: authority}
}

type rssFeed struct {
	Items []rssItem `xml:"channel>item"`
}

type rssItem struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	PubDate     string    `xml:"pubDate"`
	Description string    `xml:"description"`
	Source      rssSource `xml:"source"`
}

type rssSource struct {
	Name string `xml:",chardata"`
	URL  string `xml:"url,attr"`
}

// Search returns the five most relevant articles for the first three terms.
func (s *NewsSearcher) Search(ctx context.Context, terms []string) ([]model.NewsResult, error) {
	u, err := url.Parse(s.searchURL)
	if err != nil {
		return nil, fmt.Errorf("parse news url: %w", err)
	}
	params := u.Query()
	params.Set("q", strings.Join(terms[:min(len(terms), newsQueryLen)], " "))
	params.Set("hl", "en-IN")
	params.Set("gl", "IN")
	params.Set("ceid", "IN:en")
	u.RawQuery = params.Encode()

	body, err := s.fetcher.Fetch(ctx, u.String(), "application/rss+xml, application/xml;q=0.9, */*;q=0.8")
	if err != nil {
		return nil, fmt.Errorf("news search: %w", err)
	}

	items, err := parseRSS(body)
	if err != nil {
		return nil, err
	}

	results := make([]model.NewsResult, 0, min(len(items), s.maxResults))
	for _, it := range items[:min(len(items), s.maxResults)] {
		source := strings.TrimSpace(it.Source.Name)
		if source == "" {
			source = defaultNewsSource
		}
		link := strings.TrimSpace(it.Link)
		sourceURL := strings.TrimSpace(it.Source.URL)
		// Aggregator links redirect, so the outlet URL is rated when present.
		rated := sourceURL
		if rated == "" {
			rated = link
		}
		results = append(results, model.NewsResult{
			Title:         strings.TrimSpace(it.Title),
			URL:           link,
			PublishedDate: strings.TrimSpace(it.PubDate),
			Description:   it.Description,
			Source:        source,
			SourceURL:     sourceURL,
			Authority:     s.authority.Classify(rated),
			Relevance:     Relevance(it.Title+" "+it.Description, terms),
		})
	}

	slices.SortStableFunc(results, func(a, b model.NewsResult) int {
		return cmp.Compare(b.Relevance, a.Relevance)
	})
	return results[:min(len(results), topResults)], nil
}

// parseRSS decodes an RSS 2.0 document in any charset the feed declares.
func parseRSS(body []byte) ([]rssItem, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel
	dec.Strict = false

	var feed rssFeed
	if err := dec.Decode(&feed); err != nil {
		return nil, fmt.Errorf("decode rss: %w", err)
	}
	return feed.Items, nil
}
