package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/praetorian-inc/docsearch/pkg/types"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRulesList(t *testing.T) {
	isolate(t)

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	err := runRulesList(cmd, []string{})
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "Min Score")
	assert.Contains(t, output, "ds.finance.invoice")
}

func TestRunRulesListJSON(t *testing.T) {
	isolate(t)
	outputFormat = "json"

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	require.NoError(t, runRulesList(cmd, []string{}))

	var rules []*types.Rule
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rules))
	assert.NotEmpty(t, rules)
	for _, r := range rules {
		assert.NotEmpty(t, r.StructuralID, "rule %s", r.ID)
	}
}

func TestRunRulesList_Ruleset(t *testing.T) {
	isolate(t)
	writeFile(t, "docsearch.yaml", "ruleset: legal\n")
	outputFormat = "json"

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	require.NoError(t, runRulesList(cmd, []string{}))

	var rules []*types.Rule
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rules))
	var ids []string
	for _, r := range rules {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"ds.id.search_warrant", "ds.legal.nda", "ds.legal.signature_block"}, ids)
}

func TestRunRulesList_UnknownFormat(t *testing.T) {
	isolate(t)
	outputFormat = "xml"

	err := runRulesList(&cobra.Command{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestRunRulesCheck_Builtin(t *testing.T) {
	isolate(t)

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	require.NoError(t, runRulesCheck(cmd, nil))
	assert.Contains(t, buf.String(), "ok   ds.id.search_warrant")
	assert.Contains(t, buf.String(), "rules ok")
}

func TestRunRulesCheck_Failure(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "bad.yml"), `rules:
  - id: t.yes
    name: Yes
    pattern: '"^yes$"'
    examples:
      - |
        no
    negative_examples:
      - |
        yes
`)
	writeFile(t, filepath.Join(dir, "docsearch.yaml"), "rules: bad.yml\n")

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	err := runRulesCheck(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 rules failed")
	assert.Contains(t, buf.String(), "FAIL rule t.yes: example 0 scored 0, want >= 1")
	assert.Contains(t, buf.String(), "FAIL rule t.yes: negative example 0 scored 1, want < 1")
}
