package constants

import "strings"

// nonCompetitorDomains lists domains that show up constantly in AI answers
// but are never industry competitors: social networks, marketplaces, review
// aggregators, reference sites, and infrastructure. A mention of the subject
// inside one of these URLs (e.g. a Facebook profile link) does not count as
// a citation, and none of these are ever promoted to competitor candidates.
var nonCompetitorDomains = map[string]bool{
	// Social networks
	"facebook.com":  true,
	"twitter.com":   true,
	"x.com":         true,
	"instagram.com": true,
	"linkedin.com":  true,
	"youtube.com":   true,
	"tiktok.com":    true,
	"pinterest.com": true,
	"reddit.com":    true,
	"threads.net":   true,

	// Marketplaces
	"amazon.com":  true,
	"ebay.com":    true,
	"etsy.com":    true,
	"walmart.com": true,
	"alibaba.com": true,

	// Review and listing aggregators
	"yelp.com":       true,
	"trustpilot.com": true,
	"g2.com":         true,
	"capterra.com":   true,
	"glassdoor.com":  true,
	"indeed.com":     true,
	"crunchbase.com": true,
	"clutch.co":      true,
	"bbb.org":        true,
	"yellowpages.com": true,

	// Reference and publishing
	"wikipedia.org": true,
	"medium.com":    true,
	"quora.com":     true,
	"github.com":    true,
	"substack.com":  true,

	// Search engines and big tech
	"google.com":    true,
	"bing.com":      true,
	"apple.com":     true,
	"microsoft.com": true,
	"mozilla.org":   true,
}

// nonCompetitorSuffixes are TLDs that never belong to commercial competitors.
var nonCompetitorSuffixes = []string{".gov", ".edu", ".mil"}

// IsNonCompetitorDomain reports whether the domain (or its registrable
// parent) belongs to the fixed denylist of non-competitor sites.
func IsNonCompetitorDomain(domain string) bool {
	domain = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(domain), "www."))
	if domain == "" {
		return false
	}

	for _, suffix := range nonCompetitorSuffixes {
		if strings.HasSuffix(domain, suffix) {
			return true
		}
	}

	if nonCompetitorDomains[domain] {
		return true
	}

	// Subdomains of denylisted domains (e.g. business.facebook.com)
	for parent := range nonCompetitorDomains {
		if strings.HasSuffix(domain, "."+parent) {
			return true
		}
	}

	return false
}
