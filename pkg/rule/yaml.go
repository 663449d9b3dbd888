package rule

// yamlRule is the on-disk form of a rule.
type yamlRule struct {
	Name             string   `yaml:"name"`
	ID               string   `yaml:"id"`
	Pattern          string   `yaml:"pattern"`
	Description      string   `yaml:"description,omitempty"`
	MinScore         int      `yaml:"min_score,omitempty"`
	Keywords         []string `yaml:"keywords,omitempty"`
	Examples         []string `yaml:"examples,omitempty"`
	NegativeExamples []string `yaml:"negative_examples,omitempty"`
	References       []string `yaml:"references,omitempty"`
	Categories       []string `yaml:"categories,omitempty"`
}

// yamlRulesFile is the top-level structure of a rules file.
type yamlRulesFile struct {
	Rules []yamlRule `yaml:"rules"`
}

type yamlRuleset struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	RuleIDs     []string `yaml:"include_rule_ids"`
}

// yamlRulesetsFile is the top-level structure of a rulesets file.
type yamlRulesetsFile struct {
	Rulesets []yamlRuleset `yaml:"rulesets"`
}
