package scanner

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/praetorian-inc/docsearch/pkg/classify"
	"github.com/praetorian-inc/docsearch/pkg/rule"
	"github.com/praetorian-inc/docsearch/pkg/store"
	"github.com/praetorian-inc/docsearch/pkg/types"
)

var (
	// cachedBuiltinRules holds builtin rules loaded once per process
	cachedBuiltinRules []*types.Rule
	cachedRulesErr     error
	cacheOnce          sync.Once
)

// loadBuiltinRulesCached loads builtin rules once and caches them
func loadBuiltinRulesCached() ([]*types.Rule, error) {
	cacheOnce.Do(func() {
		loader := rule.NewLoader()
		cachedBuiltinRules, cachedRulesErr = loader.LoadBuiltinRules()
	})
	return cachedBuiltinRules, cachedRulesErr
}

// Core wraps the classifier and store for classification requests
type Core struct {
	classifier *classify.Classifier
	store      store.Store
	rules      map[string]*types.Rule
	logger     DebugLogger
}

// NewCore creates a new Core with the given rules
// rulesJSON can be:
// - "" or "builtin" to load builtin rules (cached)
// - JSON string with custom rules array
func NewCore(rulesJSON string, logger DebugLogger) (*Core, error) {
	if logger == nil {
		logger = NoopLogger{}
	}

	logger.Log("NewCore starting...")

	var rules []*types.Rule
	if rulesJSON == "" || rulesJSON == "builtin" {
		logger.Log("Loading builtin rules (cached)...")
		var err error
		rules, err = loadBuiltinRulesCached()
		if err != nil {
			logger.Log("loadBuiltinRulesCached failed: %v", err)
			return nil, err
		}
		logger.Log("Loaded %d builtin rules", len(rules))
	} else {
		logger.Log("Parsing custom rules JSON...")
		if err := json.Unmarshal([]byte(rulesJSON), &rules); err != nil {
			logger.Log("JSON unmarshal failed: %v", err)
			return nil, fmt.Errorf("parsing rules: %w", err)
		}
		for _, r := range rules {
			if r.StructuralID == "" {
				r.StructuralID = r.ComputeStructuralID()
			}
		}
		logger.Log("Parsed %d custom rules", len(rules))
	}

	return NewCoreWithRules(rules, logger)
}

// NewCoreWithRules creates a Core for an already loaded rule set.
func NewCoreWithRules(rules []*types.Rule, logger DebugLogger) (*Core, error) {
	if logger == nil {
		logger = NoopLogger{}
	}

	logger.Log("Creating classifier with %d rules...", len(rules))
	c, err := classify.New(classify.Config{
		Rules:  rules,
		Logger: logger,
	})
	if err != nil {
		logger.Log("classify.New failed: %v", err)
		return nil, err
	}
	return NewCoreWithClassifier(c, logger)
}

// NewCoreWithClassifier creates a Core around a configured classifier.
func NewCoreWithClassifier(c *classify.Classifier, logger DebugLogger) (*Core, error) {
	if logger == nil {
		logger = NoopLogger{}
	}

	s := store.NewMemory()
	byID := make(map[string]*types.Rule)
	for _, r := range c.Rules() {
		byID[r.ID] = r
		if err := s.AddRule(r); err != nil {
			return nil, fmt.Errorf("storing rule %s: %w", r.ID, err)
		}
	}

	logger.Log("NewCore complete")
	return &Core{
		classifier: c,
		store:      s,
		rules:      byID,
		logger:     logger,
	}, nil
}

// Classify classifies a single document
func (c *Core) Classify(content, source string) (*ClassifyResult, error) {
	return c.classify(ContentItem{Source: source, Content: content})
}

// ClassifyBatch classifies multiple documents
func (c *Core) ClassifyBatch(items []ContentItem) (*BatchClassifyResult, error) {
	results := make([]ClassifyResult, 0, len(items))
	total := 0

	for _, item := range items {
		result, err := c.classify(item)
		if err != nil {
			return nil, fmt.Errorf("classifying %s: %w", item.Source, err)
		}
		results = append(results, *result)
		total += len(result.Scores)
	}

	return &BatchClassifyResult{
		Results: results,
		Total:   total,
	}, nil
}

func (c *Core) classify(item ContentItem) (*ClassifyResult, error) {
	prov := provenanceFor(item)
	doc, scores := c.classifier.ClassifyContent([]byte(item.Content), prov)

	if err := c.store.AddDocument(doc.ID, len(doc.Lines)); err != nil {
		return nil, err
	}
	if err := c.store.AddProvenance(doc.ID, prov); err != nil {
		return nil, err
	}
	for _, s := range scores {
		if err := c.store.AddScore(s); err != nil {
			return nil, err
		}
	}

	if scores == nil {
		scores = []*types.Score{}
	}
	return &ClassifyResult{
		Source:     item.Source,
		DocumentID: doc.ID,
		LineCount:  len(doc.Lines),
		Scores:     scores,
		Categories: c.categories(scores),
	}, nil
}

// categories collects the distinct categories of the matched rules.
func (c *Core) categories(scores []*types.Score) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range scores {
		r, ok := c.rules[s.RuleID]
		if !ok {
			continue
		}
		for _, cat := range r.Categories {
			if !seen[cat] {
				seen[cat] = true
				out = append(out, cat)
			}
		}
	}
	sort.Strings(out)
	return out
}

func provenanceFor(item ContentItem) types.Provenance {
	payload := make(map[string]interface{}, len(item.Metadata)+1)
	for k, v := range item.Metadata {
		payload[k] = v
	}
	payload["source"] = item.Source
	return types.ExtendedProvenance{Payload: payload}
}

// Rules returns the rules the core classifies with
func (c *Core) Rules() []*types.Rule {
	return c.classifier.Rules()
}

// Store returns the store holding every classified document
func (c *Core) Store() store.Store {
	return c.store
}

// Close releases scanner resources
func (c *Core) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// GetBuiltinRules returns the built-in rules (cached)
func GetBuiltinRules() ([]*types.Rule, error) {
	return loadBuiltinRulesCached()
}
