package verify

import (
	"net/url"
	"strings"

	"github.com/ppiankov/coastwatch/internal/model"
)

// Agencies that issue coastal warnings and the government domains above them.
var defaultOfficialDomains = []string{
	"imd.gov.in", "incois.gov.in", "ndma.gov.in", "pib.gov.in", "gov.in", "nic.in",
}

var defaultEstablishedDomains = []string{
	"thehindu.com", "indianexpress.com", "newindianexpress.com", "hindustantimes.com",
	"timesofindia.indiatimes.com", "ndtv.com", "deccanherald.com", "livemint.com",
	"thenewsminute.com", "reuters.com", "apnews.com", "bbc.com", "bbc.co.uk",
}

// AuthorityClassifier rates a news outlet by the domain it publishes from.
type AuthorityClassifier struct {
	official    map[string]bool
	established map[string]bool
}

// NewAuthorityClassifier creates a classifier. Empty lists select the
// built-in domains.
func NewAuthorityClassifier(official, established []string) *AuthorityClassifier {
	if len(official) == 0 {
		official = defaultOfficialDomains
	}
	if len(established) == 0 {
		established = defaultEstablishedDomains
	}
	return &AuthorityClassifier{
		official:    domainSet(official),
		established: domainSet(established),
	}
}

// Classify returns the authority tier of rawURL. Subdomains inherit the
// tier of their parent domain; ".gov" hosts are always official.
func (a *AuthorityClassifier) Classify(rawURL string) string {
	host := hostOf(rawURL)
	switch {
	case host == "":
		return model.AuthorityOther
	case matchesDomain(host, a.official), strings.HasSuffix(host, ".gov"):
		return model.AuthorityOfficial
	case matchesDomain(host, a.established):
		return model.AuthorityEstablished
	default:
		return model.AuthorityOther
	}
}

func hostOf(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func matchesDomain(host string, domains map[string]bool) bool {
	for d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func domainSet(domains []string) map[string]bool {
	set := make(map[string]bool, len(domains))
	for _, d := range domains {
		d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "www.")
		if d != "" {
			set[d] = true
		}
	}
	return set
}
