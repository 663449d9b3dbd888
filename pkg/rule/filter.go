package rule

import (
	"fmt"
	"strings"

	"github.com/praetorian-inc/docsearch/pkg/regex"
	"github.com/praetorian-inc/docsearch/pkg/types"
)

// FilterConfig selects rules by ID pattern and category.
type FilterConfig struct {
	Include    []string // ID patterns; a rule must match one (empty = all)
	Exclude    []string // ID patterns; a matching rule is dropped
	Categories []string // a rule must carry one of these (case-insensitive)
}

// ParsePatterns splits a comma-separated list, trimming each entry and
// dropping empty ones.
func ParsePatterns(patterns string) []string {
	result := []string{}
	for _, p := range strings.Split(patterns, ",") {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

// Filter keeps the rules whose ID matches at least one include pattern
// (every rule, when there are none) and no exclude pattern, then applies
// the category filter. Patterns use RE2 syntax and match anywhere in the ID.
// Rule order is preserved.
func Filter(rules []*types.Rule, config FilterConfig) ([]*types.Rule, error) {
	include, err := compileIDPatterns(config.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := compileIDPatterns(config.Exclude)
	if err != nil {
		return nil, err
	}

	categories := make(map[string]bool, len(config.Categories))
	for _, c := range config.Categories {
		categories[strings.ToLower(c)] = true
	}

	result := make([]*types.Rule, 0, len(rules))
	for _, r := range rules {
		if len(include) > 0 && !include.match(r.ID) {
			continue
		}
		if exclude.match(r.ID) {
			continue
		}
		if len(categories) > 0 && !hasCategory(r, categories) {
			continue
		}
		result = append(result, r)
	}
	return result, nil
}

// idPatterns is a set of compiled rule ID patterns.
type idPatterns []regex.Regexp

func compileIDPatterns(patterns []string) (idPatterns, error) {
	engine := regex.NewCoregex()
	compiled := make(idPatterns, 0, len(patterns))
	for _, p := range patterns {
		re, err := engine.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func (ps idPatterns) match(id string) bool {
	for _, re := range ps {
		if re.MatchString(id) {
			return true
		}
	}
	return false
}

func hasCategory(r *types.Rule, want map[string]bool) bool {
	for _, c := range r.Categories {
		if want[strings.ToLower(c)] {
			return true
		}
	}
	return false
}
