package scanner

import (
	"testing"

	"github.com/praetorian-inc/docsearch/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const invoice = "INVOICE\nInvoice Number: 1042\nBill To: Acme Corp\nTotal: 30.00\n"

func TestNewCore_Builtin(t *testing.T) {
	for _, arg := range []string{"", "builtin"} {
		core, err := NewCore(arg, nil)
		require.NoError(t, err)
		assert.NotEmpty(t, core.Rules())
		core.Close()
	}
}

func TestNewCore_CustomJSON(t *testing.T) {
	rulesJSON := `[{"id":"t.greeting","name":"Greeting","pattern":"all { ` + "`^hello`i" + `, \"world\" }","min_score":1}]`

	core, err := NewCore(rulesJSON, nil)
	require.NoError(t, err)
	defer core.Close()

	rules := core.Rules()
	require.Len(t, rules, 1)
	assert.Equal(t, "t.greeting", rules[0].ID)
	assert.NotEmpty(t, rules[0].StructuralID)

	result, err := core.Classify("Hello there\nbrave new world\n", "inline:1")
	require.NoError(t, err)
	require.Len(t, result.Scores, 1)
	assert.Equal(t, 1, result.Scores[0].Count)
}

func TestNewCore_InvalidJSON(t *testing.T) {
	_, err := NewCore("{not json", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing rules")
}

func TestNewCore_BadPattern(t *testing.T) {
	_, err := NewCore(`[{"id":"t.bad","name":"Bad","pattern":"all {"}]`, nil)
	assert.Error(t, err)
}

func TestCore_Classify(t *testing.T) {
	core, err := NewCore("builtin", nil)
	require.NoError(t, err)
	defer core.Close()

	result, err := core.Classify(invoice, "upload:7")
	require.NoError(t, err)

	assert.Equal(t, "upload:7", result.Source)
	assert.Equal(t, types.ComputeDocumentID([]byte(invoice)), result.DocumentID)
	assert.Equal(t, 4, result.LineCount)

	var ruleIDs []string
	for _, s := range result.Scores {
		ruleIDs = append(ruleIDs, s.RuleID)
		assert.Equal(t, "upload:7", s.Source)
	}
	assert.Contains(t, ruleIDs, "ds.finance.invoice")
	assert.Contains(t, result.Categories, "finance")

	exists, err := core.Store().DocumentExists(result.DocumentID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCore_Classify_NoMatch(t *testing.T) {
	core, err := NewCore("builtin", nil)
	require.NoError(t, err)
	defer core.Close()

	result, err := core.Classify("nothing to see here", "inline")
	require.NoError(t, err)
	assert.NotNil(t, result.Scores)
	assert.Empty(t, result.Scores)
	assert.Empty(t, result.Categories)
}

func TestCore_ClassifyBatch(t *testing.T) {
	core, err := NewCore("builtin", nil)
	require.NoError(t, err)
	defer core.Close()

	batch, err := core.ClassifyBatch([]ContentItem{
		{Source: "a", Content: invoice, Metadata: map[string]string{"owner": "finance"}},
		{Source: "b", Content: "just a note"},
	})
	require.NoError(t, err)
	require.Len(t, batch.Results, 2)
	assert.Equal(t, "a", batch.Results[0].Source)
	assert.Equal(t, "b", batch.Results[1].Source)
	assert.Equal(t, len(batch.Results[0].Scores), batch.Total)

	provs, err := core.Store().GetProvenance(batch.Results[0].DocumentID)
	require.NoError(t, err)
	require.Len(t, provs, 1)
	assert.Equal(t, "a", provs[0].Path())
}

func TestGetBuiltinRules_Cached(t *testing.T) {
	first, err := GetBuiltinRules()
	require.NoError(t, err)
	second, err := GetBuiltinRules()
	require.NoError(t, err)
	require.NotEmpty(t, first)
	assert.Same(t, first[0], second[0])
}
