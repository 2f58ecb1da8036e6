package verify

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/ppiankov/coastwatch/internal/model"
)

const (
	topResults     = 5
	redditQueryLen = 5
	selftextLimit  = 200
)

// RedditSearcher queries Reddit's public search.json endpoint.
type RedditSearcher struct {
	fetcher    *Fetcher
	searchURL  string
	maxResults int
}

// NewRedditSearcher creates a searcher against searchURL.
func NewRedditSearcher(fetcher *Fetcher, searchURL string, maxResults int) *RedditSearcher {
	if maxResults <= 0 {
		maxResults = 10
	}
	return &RedditSearcher{fetcher: fetcher, searchURL: searchURL, maxResults: maxResults}
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Score       float64 `json:"score"`
	NumComments float64 `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Subreddit   string  `json:"subreddit"`
	Author      string  `json:"author"`
	Selftext    string  `json:"selftext"`
}

// Search returns the five most relevant posts from the last day that match
// any of the first five terms.
func (s *RedditSearcher) Search(ctx context.Context, terms []string) ([]model.RedditResult, error) {
	u, err := url.Parse(s.searchURL)
	if err != nil {
		return nil, fmt.Errorf("parse reddit url: %w", err)
	}
	params := u.Query()
	params.Set("q", strings.Join(terms[:min(len(terms), redditQueryLen)], " OR "))
	params.Set("limit", strconv.Itoa(s.maxResults))
	params.Set("sort", "new")
	params.Set("type", "link")
	params.Set("t", "day")
	u.RawQuery = params.Encode()

	body, err := s.fetcher.Fetch(ctx, u.String(), "application/json")
	if err != nil {
		return nil, fmt.Errorf("reddit search: %w", err)
	}

	var listing redditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("decode reddit response: %w", err)
	}

	children := listing.Data.Children
	results := make([]model.RedditResult, 0, min(len(children), s.maxResults))
	for _, c := range children[:min(len(children), s.maxResults)] {
		p := c.Data
		results = append(results, model.RedditResult{
			Title:       p.Title,
			URL:         p.URL,
			Score:       int(p.Score),
			NumComments: int(p.NumComments),
			CreatedUTC:  p.CreatedUTC,
			Subreddit:   p.Subreddit,
			Author:      p.Author,
			Selftext:    truncateRunes(p.Selftext, selftextLimit),
			Relevance:   Relevance(p.Title+" "+p.Selftext, terms),
		})
	}

	slices.SortStableFunc(results, func(a, b model.RedditResult) int {
		if c := cmp.Compare(b.Relevance, a.Relevance); c != 0 {
			return c
		}
		return cmp.Compare(b.Score, a.Score)
	})
	return results[:min(len(results), topResults)], nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
