package rule

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/praetorian-inc/docsearch/pkg/types"
	"gopkg.in/yaml.v3"
)

// Loader handles loading rules from YAML files.
type Loader struct {
	fs fs.FS // holds rules/ and rulesets/ directories
}

// NewLoader creates a loader over the built-in rules.
func NewLoader() *Loader {
	return &Loader{
		fs: builtinFS,
	}
}

// NewLoaderWithFS creates a loader with a custom filesystem laid out like
// the built-in one.
func NewLoaderWithFS(fsys fs.FS) *Loader {
	return &Loader{
		fs: fsys,
	}
}

// LoadRule loads a single rule from YAML bytes.
// Returns error if YAML is invalid or multiple rules are present.
func (l *Loader) LoadRule(data []byte) (*types.Rule, error) {
	rules, err := l.LoadRules(data)
	if err != nil {
		return nil, err
	}
	if len(rules) > 1 {
		return nil, fmt.Errorf("expected single rule, found %d", len(rules))
	}
	return rules[0], nil
}

// LoadRules loads every rule in a rules document.
func (l *Loader) LoadRules(data []byte) ([]*types.Rule, error) {
	var yamlFile yamlRulesFile
	if err := yaml.Unmarshal(data, &yamlFile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(yamlFile.Rules) == 0 {
		return nil, fmt.Errorf("no rules found in YAML")
	}

	rules := make([]*types.Rule, 0, len(yamlFile.Rules))
	for _, yr := range yamlFile.Rules {
		rules = append(rules, convertYAMLRule(yr))
	}
	return rules, nil
}

// LoadRuleFile loads the rules of a YAML file.
func (l *Loader) LoadRuleFile(path string) ([]*types.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	rules, err := l.LoadRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

// LoadRulesPath loads rules from a YAML file or from every .yml/.yaml file
// below a directory.
func (l *Loader) LoadRulesPath(path string) ([]*types.Rule, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return l.LoadRuleFile(path)
	}

	var rules []*types.Rule
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(p) {
			return nil
		}
		loaded, err := l.LoadRuleFile(p)
		if err != nil {
			return err
		}
		rules = append(rules, loaded...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// LoadRuleset loads a ruleset from YAML bytes.
// Returns error if YAML is invalid or multiple rulesets are present.
func (l *Loader) LoadRuleset(data []byte) (*types.Ruleset, error) {
	var yamlFile yamlRulesetsFile
	if err := yaml.Unmarshal(data, &yamlFile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(yamlFile.Rulesets) == 0 {
		return nil, fmt.Errorf("no rulesets found in YAML")
	}
	if len(yamlFile.Rulesets) > 1 {
		return nil, fmt.Errorf("expected single ruleset, found %d", len(yamlFile.Rulesets))
	}

	return convertYAMLRuleset(yamlFile.Rulesets[0]), nil
}

// LoadBuiltinRules loads all rules under rules/ in the loader's filesystem.
func (l *Loader) LoadBuiltinRules() ([]*types.Rule, error) {
	var rules []*types.Rule

	err := fs.WalkDir(l.fs, "rules", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(path) {
			return nil
		}

		data, err := fs.ReadFile(l.fs, path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		var yamlFile yamlRulesFile
		if err := yaml.Unmarshal(data, &yamlFile); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		for _, yr := range yamlFile.Rules {
			rules = append(rules, convertYAMLRule(yr))
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return rules, nil
}

// LoadBuiltinRulesets loads all rulesets under rulesets/ in the loader's
// filesystem.
func (l *Loader) LoadBuiltinRulesets() ([]*types.Ruleset, error) {
	var rulesets []*types.Ruleset

	err := fs.WalkDir(l.fs, "rulesets", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(path) {
			return nil
		}

		data, err := fs.ReadFile(l.fs, path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		var yamlFile yamlRulesetsFile
		if err := yaml.Unmarshal(data, &yamlFile); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		for _, yrs := range yamlFile.Rulesets {
			rulesets = append(rulesets, convertYAMLRuleset(yrs))
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return rulesets, nil
}

// SelectRuleset returns the rules referenced by the ruleset, in ruleset
// order.
func SelectRuleset(rules []*types.Rule, rs *types.Ruleset) ([]*types.Rule, error) {
	byID := make(map[string]*types.Rule, len(rules))
	for _, r := range rules {
		byID[r.ID] = r
	}

	selected := make([]*types.Rule, 0, len(rs.RuleIDs))
	for _, id := range rs.RuleIDs {
		r, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("ruleset %s references unknown rule ID: %s", rs.ID, id)
		}
		selected = append(selected, r)
	}
	return selected, nil
}

func isYAML(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yml" || ext == ".yaml"
}

// convertYAMLRule converts yamlRule to types.Rule and computes StructuralID.
func convertYAMLRule(yr yamlRule) *types.Rule {
	r := &types.Rule{
		ID:               yr.ID,
		Name:             yr.Name,
		Pattern:          yr.Pattern,
		Description:      yr.Description,
		MinScore:         yr.MinScore,
		Keywords:         yr.Keywords,
		Examples:         yr.Examples,
		NegativeExamples: yr.NegativeExamples,
		References:       yr.References,
		Categories:       yr.Categories,
	}
	r.StructuralID = r.ComputeStructuralID()
	return r
}

func convertYAMLRuleset(yrs yamlRuleset) *types.Ruleset {
	return &types.Ruleset{
		ID:          yrs.ID,
		Name:        yrs.Name,
		Description: yrs.Description,
		RuleIDs:     yrs.RuleIDs,
	}
}
