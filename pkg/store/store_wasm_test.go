//go:build wasm

package store

import (
	"testing"

	"github.com/praetorian-inc/docsearch/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WASMAlwaysMemory(t *testing.T) {
	for _, path := range []string{"", ":memory:", "results.db", "postgres://localhost/docsearch"} {
		s, err := New(Config{Path: path})
		require.NoError(t, err, path)
		_, ok := s.(*MemoryStore)
		assert.True(t, ok, "path %q should give a memory store", path)
		require.NoError(t, s.Close())
	}
}

func TestMemoryStore_WASMRoundTrip(t *testing.T) {
	s, err := New(Config{Path: "results.db"})
	require.NoError(t, err)
	defer s.Close()

	r := &types.Rule{ID: "test.memo", Name: "Memo", Pattern: `"^MEMO$"`}
	docID := types.ComputeDocumentID([]byte("MEMO\n"))

	require.NoError(t, s.AddRule(r))
	require.NoError(t, s.AddDocument(docID, 1))
	require.NoError(t, s.AddProvenance(docID, types.ExtendedProvenance{Payload: map[string]interface{}{"source": "upload:1"}}))
	require.NoError(t, s.AddScore(&types.Score{DocumentID: docID, RuleID: r.ID, Count: 1}))

	scores, err := s.GetScores(docID)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, "Memo", scores[0].RuleName)
	assert.Equal(t, "upload:1", scores[0].Source)
}
