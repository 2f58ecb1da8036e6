package model

import "time"

// Seriousness levels assigned by hotspot verification.
const (
	SeriousnessCritical = "CRITICAL"
	SeriousnessHigh     = "HIGH"
	SeriousnessMedium   = "MEDIUM"
	SeriousnessLow      = "LOW"
	SeriousnessMinimal  = "MINIMAL"
	SeriousnessUnknown  = "unknown"
)

// Authority tiers for news outlets.
const (
	AuthorityOfficial    = "official"
	AuthorityEstablished = "established"
	AuthorityOther       = "other"
)

// Verification is the internet corroboration attached to a hotspot.
type Verification struct {
	VerifiedAt    time.Time           `json:"verification_timestamp"`
	Location      string              `json:"location"`
	HazardType    string              `json:"hazard_type"`
	SearchTerms   []string            `json:"search_terms_used"`
	RedditResults []RedditResult      `json:"reddit_results"`
	NewsResults   []NewsResult        `json:"news_results"`
	Summary       VerificationSummary `json:"verification_summary"`
	Seriousness   string              `json:"seriousness_assessment"`
}

// RedditResult is one Reddit discussion found during verification.
type RedditResult struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Subreddit   string  `json:"subreddit"`
	Author      string  `json:"author"`
	Selftext    string  `json:"selftext"`
	Relevance   float64 `json:"relevance_score"`
}

// NewsResult is one news article found during verification.
type NewsResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	PublishedDate string  `json:"published_date"`
	Description   string  `json:"description"`
	Source        string  `json:"source"`
	SourceURL     string  `json:"source_url,omitempty"`
	Authority     string  `json:"authority"`
	Relevance     float64 `json:"relevance_score"`
}

// VerificationSummary condenses the corroborating sources.
type VerificationSummary struct {
	TotalRedditPosts    int              `json:"total_reddit_posts"`
	TotalNewsArticles   int              `json:"total_news_articles"`
	HighRelevanceReddit int              `json:"high_relevance_reddit"`
	HighRelevanceNews   int              `json:"high_relevance_news"`
	OfficialArticles    int              `json:"official_articles"`
	RedditEngagement    RedditEngagement `json:"reddit_engagement"`
	KeywordsFound       []string         `json:"keywords_found"`
	SourcesFound        []string         `json:"sources_found"`
}

// RedditEngagement sums votes and comments over the Reddit results.
type RedditEngagement struct {
	TotalScore    int     `json:"total_score"`
	TotalComments int     `json:"total_comments"`
	AvgScore      float64 `json:"avg_score"`
}
