package prefilter

import (
	"bytes"
	"strings"

	"github.com/cloudflare/ahocorasick"
	"github.com/praetorian-inc/docsearch/pkg/types"
)

// Prefilter uses Aho-Corasick to skip rules whose keywords do not occur in
// a document. Keyword matching is case-insensitive.
type Prefilter struct {
	matcher      *ahocorasick.Matcher
	keywords     []string         // lowercased keyword at each matcher index
	keywordRules map[string][]int // keyword -> indexes of rules needing it
	rules        []*types.Rule
	alwaysCheck  []bool // rules without keywords
}

// New creates a prefilter from rules.
func New(rules []*types.Rule) *Prefilter {
	pf := &Prefilter{
		keywordRules: make(map[string][]int),
		rules:        rules,
		alwaysCheck:  make([]bool, len(rules)),
	}

	keywordSet := make(map[string]bool)
	for i, rule := range rules {
		indexed := 0
		for _, keyword := range rule.Keywords {
			keyword = strings.ToLower(keyword)
			if keyword == "" {
				continue
			}
			if !keywordSet[keyword] {
				keywordSet[keyword] = true
				pf.keywords = append(pf.keywords, keyword)
			}
			pf.keywordRules[keyword] = append(pf.keywordRules[keyword], i)
			indexed++
		}
		// Rules without usable keywords are always checked.
		pf.alwaysCheck[i] = indexed == 0
	}

	if len(pf.keywords) > 0 {
		pf.matcher = ahocorasick.NewStringMatcher(pf.keywords)
	}

	return pf
}

// Filter returns the rules that might match content: those with a keyword
// present and those with no keywords. Rules keep their input order.
func (pf *Prefilter) Filter(content []byte) []*types.Rule {
	selected := make([]bool, len(pf.rules))
	copy(selected, pf.alwaysCheck)

	if pf.matcher != nil {
		for _, hit := range pf.matcher.Match(bytes.ToLower(content)) {
			for _, idx := range pf.keywordRules[pf.keywords[hit]] {
				selected[idx] = true
			}
		}
	}

	result := make([]*types.Rule, 0, len(pf.rules))
	for i, ok := range selected {
		if ok {
			result = append(result, pf.rules[i])
		}
	}
	return result
}

// FilterLines is Filter over a document already split into lines.
func (pf *Prefilter) FilterLines(lines []string) []*types.Rule {
	return pf.Filter([]byte(strings.Join(lines, "\n")))
}
