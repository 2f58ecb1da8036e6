package verify

import (
	"testing"

	"github.com/ppiankov/coastwatch/internal/model"
)

func TestAuthorityClassifier_Defaults(t *testing.T) {
	a := NewAuthorityClassifier(nil, nil)

	tests := []struct {
		url  string
		want string
	}{
		{"https://mausam.imd.gov.in/warnings", model.AuthorityOfficial},
		{"https://incois.gov.in", model.AuthorityOfficial},
		{"https://tnsdma.tn.gov.in/alerts", model.AuthorityOfficial},
		{"https://www.weather.gov/alerts", model.AuthorityOfficial},
		{"https://www.thehindu.com/news/cities/chennai/", model.AuthorityEstablished},
		{"thehindu.com", model.AuthorityEstablished},
		{"https://timesofindia.indiatimes.com:443/city", model.AuthorityEstablished},
		{"https://news.google.com/rss/articles/abc", model.AuthorityOther},
		{"https://notthehindu.com", model.AuthorityOther},
		{"", model.AuthorityOther},
		{"://bad", model.AuthorityOther},
	}
	for _, tt := range tests {
		if got := a.Classify(tt.url); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestAuthorityClassifier_CustomDomains(t *testing.T) {
	a := NewAuthorityClassifier([]string{"coast.example"}, []string{"WWW.Daily.Example"})

	if got := a.Classify("https://alerts.coast.example/x"); got != model.AuthorityOfficial {
		t.Errorf("custom official: got %q", got)
	}
	if got := a.Classify("https://daily.example/story"); got != model.AuthorityEstablished {
		t.Errorf("custom established: got %q", got)
	}
	// Custom lists replace the built-in ones.
	if got := a.Classify("https://thehindu.com"); got != model.AuthorityOther {
		t.Errorf("built-in list still applied: got %q", got)
	}
}

func TestSummarize_CountsOfficialArticles(t *testing.T) {
	news := []model.NewsResult{
		{Title: "IMD issues red alert", Source: "IMD", Authority: model.AuthorityOfficial},
		{Title: "Rain lashes city", Source: "The Hindu", Authority: model.AuthorityEstablished},
	}
	s := Summarize(nil, news)
	if s.OfficialArticles != 1 {
		t.Errorf("OfficialArticles = %d, want 1", s.OfficialArticles)
	}
}
