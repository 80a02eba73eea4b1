package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/citelens/citelens-api/internal/constants"
	"github.com/citelens/citelens-api/internal/models"
)

// domainPattern matches bare or URL-embedded domains in answer text.
var domainPattern = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?([a-z0-9][a-z0-9-]{0,62}(?:\.[a-z0-9][a-z0-9-]{0,62})+)`)

// fileExtensions are domain-shaped tokens that are actually file names.
var fileExtensions = map[string]bool{
	"js": true, "ts": true, "css": true, "html": true, "json": true,
	"xml": true, "yml": true, "yaml": true, "md": true, "txt": true,
	"csv": true, "png": true, "jpg": true, "jpeg": true, "svg": true,
	"pdf": true, "zip": true,
}

// CitationExtractor decides whether a provider answer cites the subject and
// pulls out competitor domain mentions.
type CitationExtractor struct {
	contextRadius int
}

// NewCitationExtractor creates a citation extractor with the default
// context excerpt size.
func NewCitationExtractor() *CitationExtractor {
	return &CitationExtractor{contextRadius: constants.CitationContextRadius}
}

// Extract annotates the response in place: sets IsCited, CitationContext,
// and the denylist-filtered competitor mentions. Failed responses are left
// untouched; a tombstone is never cited.
func (e *CitationExtractor) Extract(resp *models.ProviderResponse, subjectDomain, brand string) {
	if resp.Failed() || resp.Text == "" {
		return
	}

	cited, excerpt := e.findCitation(resp.Text, subjectDomain, brand)
	resp.IsCited = cited
	resp.CitationContext = excerpt
	resp.Mentions = e.extractMentions(resp.Text, subjectDomain)
}

// findCitation looks for a non-incidental reference to the subject domain
// or brand. A match that sits inside a denylisted aggregator's URL (a
// social profile link, a directory listing) does not count.
func (e *CitationExtractor) findCitation(text, subjectDomain, brand string) (bool, string) {
	lower := strings.ToLower(text)

	for _, needle := range []string{strings.ToLower(subjectDomain), strings.ToLower(strings.TrimSpace(brand))} {
		if needle == "" {
			continue
		}
		from := 0
		for {
			idx := strings.Index(lower[from:], needle)
			if idx < 0 {
				break
			}
			pos := from + idx
			if !e.insideDenylistedURL(lower, pos) {
				return true, e.excerpt(text, pos, len(needle))
			}
			from = pos + len(needle)
		}
	}
	return false, ""
}

// insideDenylistedURL reports whether the match at pos is part of a URL
// token whose host is on the non-competitor denylist.
func (e *CitationExtractor) insideDenylistedURL(lower string, pos int) bool {
	start := pos
	for start > 0 && !isTokenBoundary(lower[start-1]) {
		start--
	}
	end := pos
	for end < len(lower) && !isTokenBoundary(lower[end]) {
		end++
	}
	token := lower[start:end]

	m := domainPattern.FindStringSubmatch(token)
	if m == nil {
		return false
	}
	return constants.IsNonCompetitorDomain(m[1])
}

// extractMentions pulls every non-subject, non-denylisted domain out of the
// answer with its surrounding context.
func (e *CitationExtractor) extractMentions(text, subjectDomain string) []models.CompetitorMention {
	var mentions []models.CompetitorMention
	seen := make(map[string]bool)

	for _, m := range domainPattern.FindAllStringSubmatchIndex(text, -1) {
		domain := strings.ToLower(text[m[2]:m[3]])
		domain = strings.TrimPrefix(domain, "www.")

		if !plausibleDomain(domain) {
			continue
		}
		if domain == subjectDomain || strings.HasSuffix(domain, "."+subjectDomain) {
			continue
		}
		if constants.IsNonCompetitorDomain(domain) {
			continue
		}
		if seen[domain] {
			continue
		}
		seen[domain] = true

		mentions = append(mentions, models.CompetitorMention{
			Domain:  domain,
			Context: e.excerpt(text, m[2], m[3]-m[2]),
		})
	}

	return mentions
}

// excerpt returns a bounded window of text around the match. The window is
// sized in bytes and clamped outward to rune boundaries so multi-byte text
// is never split.
func (e *CitationExtractor) excerpt(text string, pos, matchLen int) string {
	start := pos - e.contextRadius
	if start < 0 {
		start = 0
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	end := pos + matchLen + e.contextRadius
	if end > len(text) {
		end = len(text)
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}
	return strings.TrimSpace(text[start:end])
}

// plausibleDomain filters out domain-shaped noise: file names, version
// strings, single-letter TLDs.
func plausibleDomain(domain string) bool {
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}
	tld := labels[len(labels)-1]
	if len(tld) < 2 {
		return false
	}
	for _, r := range tld {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return !fileExtensions[tld]
}

func isTokenBoundary(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '(', ')', '[', ']', '<', '>', '"', '\'', ',', ';':
		return true
	}
	return false
}
