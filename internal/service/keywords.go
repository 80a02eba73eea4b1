package service

import (
	"regexp"
	"strings"
)

// stopWords are dropped before keyword comparison. Kept deliberately small:
// the goal is industry signal, not full-text search.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "your": true,
	"our": true, "are": true, "you": true, "all": true, "from": true,
	"that": true, "this": true, "has": true, "have": true, "can": true,
	"will": true, "more": true, "most": true, "best": true, "top": true,
	"get": true, "its": true, "was": true, "were": true, "not": true,
	"but": true, "out": true, "about": true, "into": true, "over": true,
	"than": true, "then": true, "them": true, "they": true, "their": true,
	"what": true, "when": true, "where": true, "how": true, "why": true,
	"who": true, "which": true, "also": true, "been": true, "being": true,
	"home": true, "page": true, "site": true, "website": true, "welcome": true,
	"learn": true, "click": true, "here": true, "contact": true, "us": true,
	"new": true, "one": true, "two": true, "use": true, "using": true,
	"services": true, "service": true, "company": true, "solutions": true,
}

// industryStems folds common abbreviations onto their full industry term
// so "enviro consulting" and "environmental services" share a keyword.
var industryStems = map[string]string{
	"enviro":     "environment",
	"environ":    "environment",
	"tech":       "technology",
	"eco":        "ecology",
	"med":        "medical",
	"pharma":     "pharmaceutical",
	"agri":       "agriculture",
	"fin":        "finance",
	"mfg":        "manufacturing",
	"constr":     "construction",
	"logistics":  "logistic",
	"consulting": "consultant",
	"recycling":  "recycle",
}

var wordPattern = regexp.MustCompile(`[a-zA-Z][a-zA-Z-]{2,}`)

// ExtractKeywords reduces free text to a normalized keyword set.
func ExtractKeywords(text string) map[string]bool {
	keywords := make(map[string]bool)
	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		word = strings.Trim(word, "-")
		if len(word) < 3 || stopWords[word] {
			continue
		}
		if stem, ok := industryStems[word]; ok {
			word = stem
		}
		keywords[word] = true
	}
	return keywords
}

// KeywordOverlap counts keywords present in both sets and returns the
// shared terms.
func KeywordOverlap(a, b map[string]bool) []string {
	if len(b) < len(a) {
		a, b = b, a
	}
	var shared []string
	for word := range a {
		if b[word] {
			shared = append(shared, word)
		}
	}
	return shared
}
