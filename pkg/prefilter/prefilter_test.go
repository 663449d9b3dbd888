package prefilter

import (
	"testing"

	"github.com/praetorian-inc/docsearch/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(rules []*types.Rule) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.ID)
	}
	return out
}

func testRules() []*types.Rule {
	return []*types.Rule{
		{ID: "warrant", Keywords: []string{"ACARA"}},
		{ID: "generic"},
		{ID: "invoice", Keywords: []string{"invoice", "bill to"}},
		{ID: "nda", Keywords: []string{"Confidential"}},
	}
}

func TestPrefilter_Filter(t *testing.T) {
	pf := New(testRules())

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"keyword match", "BERITA ACARA\nPENGGELEDAHAN", []string{"warrant", "generic"}},
		{"no keywords present", "nothing relevant", []string{"generic"}},
		{"empty content", "", []string{"generic"}},
		{"any of several keywords", "BILL TO: Acme", []string{"generic", "invoice"}},
		{"case-insensitive", "berita acara / CONFIDENTIAL", []string{"warrant", "generic", "nda"}},
		{"keyword repeated", "invoice invoice invoice", []string{"generic", "invoice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(pf.Filter([]byte(tt.content))))
		})
	}
}

func TestPrefilter_SharedKeyword(t *testing.T) {
	pf := New([]*types.Rule{
		{ID: "a", Keywords: []string{"signature"}},
		{ID: "b", Keywords: []string{"SIGNATURE", "date"}},
	})

	assert.Equal(t, []string{"a", "b"}, ids(pf.Filter([]byte("Signature: ___"))))
	assert.Equal(t, []string{"b"}, ids(pf.Filter([]byte("Date: today"))))
}

func TestPrefilter_NoRules(t *testing.T) {
	pf := New(nil)
	assert.Empty(t, pf.Filter([]byte("anything")))
}

func TestPrefilter_OnlyEmptyKeywords(t *testing.T) {
	pf := New([]*types.Rule{{ID: "a", Keywords: []string{""}}})
	require.NotNil(t, pf)
	assert.Equal(t, []string{"a"}, ids(pf.Filter([]byte("anything"))))
}

func TestPrefilter_FilterLines(t *testing.T) {
	pf := New(testRules())
	got := pf.FilterLines([]string{"Mutual", "confidential information"})
	assert.Equal(t, []string{"generic", "nda"}, ids(got))
}
