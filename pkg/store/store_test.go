//go:build !wasm

package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/praetorian-inc/docsearch/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends returns every store implementation that can run in this
// environment. PostgreSQL joins when DOCSEARCH_TEST_POSTGRES_URL is set.
func backends(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	b := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemory() },
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLite(filepath.Join(t.TempDir(), "results.db"))
			require.NoError(t, err)
			return s
		},
		"sqlite-memory": func(t *testing.T) Store {
			s, err := NewSQLite(":memory:")
			require.NoError(t, err)
			return s
		},
	}
	if url := os.Getenv("DOCSEARCH_TEST_POSTGRES_URL"); url != "" {
		b["postgres"] = func(t *testing.T) Store {
			s, err := NewPostgres(url)
			require.NoError(t, err)
			return s
		}
	}
	return b
}

func forEachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer s.Close()
			fn(t, s)
		})
	}
}

func testRule(id string) *types.Rule {
	r := &types.Rule{ID: id, Name: "Rule " + id, Pattern: "`^x`"}
	r.StructuralID = r.ComputeStructuralID()
	return r
}

func TestNew_MemoryStore(t *testing.T) {
	s, err := New(Config{Path: ":memory:"})
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.(*MemoryStore)
	assert.True(t, ok, "expected MemoryStore")
}

func TestNew_SQLiteStore(t *testing.T) {
	s, err := New(Config{Path: filepath.Join(t.TempDir(), "results.db")})
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.(*SQLiteStore)
	assert.True(t, ok, "expected SQLiteStore")
}

func TestNew_EmptyPath(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")
}

func TestIsPostgresURL(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"postgres://localhost/docsearch", true},
		{"postgresql://user@db:5432/docsearch", true},
		{"results.db", false},
		{":memory:", false},
		{"/var/lib/postgres/results.db", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPostgresURL(tt.path))
		})
	}
}

func TestStore_Interface(t *testing.T) {
	var _ Store = (*MemoryStore)(nil)
	var _ Store = (*SQLiteStore)(nil)
	var _ Store = (*PostgresStore)(nil)
}

func TestStore_E2E(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		content := []byte("Search Warrant\nacara pemeriksaan\n")
		docID := types.ComputeDocumentID(content)
		rule := testRule("ds.test.warrant")

		require.NoError(t, s.AddRule(rule))
		require.NoError(t, s.AddDocument(docID, 2))
		require.NoError(t, s.AddProvenance(docID, types.FileProvenance{FilePath: "docs/warrant.txt"}))
		require.NoError(t, s.AddScore(&types.Score{
			DocumentID:   docID,
			RuleID:       rule.ID,
			StructuralID: rule.StructuralID,
			Count:        3,
		}))

		exists, err := s.DocumentExists(docID)
		require.NoError(t, err)
		assert.True(t, exists)

		scores, err := s.GetScores(docID)
		require.NoError(t, err)
		require.Len(t, scores, 1)
		got := scores[0]
		assert.Equal(t, docID, got.DocumentID)
		assert.Equal(t, rule.ID, got.RuleID)
		assert.Equal(t, rule.Name, got.RuleName)
		assert.Equal(t, rule.StructuralID, got.StructuralID)
		assert.Equal(t, 3, got.Count)
		assert.Equal(t, 2, got.LineCount)
		assert.Equal(t, "docs/warrant.txt", got.Source)
	})
}

func TestStore_DocumentExists_Unknown(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		exists, err := s.DocumentExists(types.ComputeDocumentID([]byte("never stored")))
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestStore_DuplicatesIgnored(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		docID := types.ComputeDocumentID([]byte("duplicate"))
		rule := testRule("ds.test.dup")

		require.NoError(t, s.AddRule(rule))
		require.NoError(t, s.AddRule(rule))
		require.NoError(t, s.AddDocument(docID, 1))
		require.NoError(t, s.AddDocument(docID, 1))

		first := &types.Score{DocumentID: docID, RuleID: rule.ID, StructuralID: rule.StructuralID, Count: 1}
		second := &types.Score{DocumentID: docID, RuleID: rule.ID, StructuralID: rule.StructuralID, Count: 9}
		require.NoError(t, s.AddScore(first))
		require.NoError(t, s.AddScore(second))

		prov := types.FileProvenance{FilePath: "a.txt"}
		require.NoError(t, s.AddProvenance(docID, prov))
		require.NoError(t, s.AddProvenance(docID, prov))

		scores, err := s.GetScores(docID)
		require.NoError(t, err)
		require.Len(t, scores, 1)
		assert.Equal(t, 1, scores[0].Count, "first score wins")

		provs, err := s.GetProvenance(docID)
		require.NoError(t, err)
		assert.Len(t, provs, 1)
	})
}

func TestStore_GetAllScores_Ordered(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		docA := types.ComputeDocumentID([]byte("alpha"))
		docB := types.ComputeDocumentID([]byte("beta"))
		ruleX := testRule("ds.test.x")
		ruleY := testRule("ds.test.y")

		for _, r := range []*types.Rule{ruleY, ruleX} {
			require.NoError(t, s.AddRule(r))
		}
		for _, d := range []types.DocumentID{docB, docA} {
			require.NoError(t, s.AddDocument(d, 1))
			for _, r := range []*types.Rule{ruleY, ruleX} {
				require.NoError(t, s.AddScore(&types.Score{DocumentID: d, RuleID: r.ID, StructuralID: r.StructuralID, Count: 1}))
			}
		}

		scores, err := s.GetAllScores()
		require.NoError(t, err)
		require.Len(t, scores, 4)

		for i := 1; i < len(scores); i++ {
			prev, cur := scores[i-1], scores[i]
			if prev.DocumentID == cur.DocumentID {
				assert.Less(t, prev.RuleID, cur.RuleID)
			} else {
				assert.Less(t, prev.DocumentID.Hex(), cur.DocumentID.Hex())
			}
		}
	})
}

func TestStore_Provenance_Kinds(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		docID := types.ComputeDocumentID([]byte("kinds"))
		require.NoError(t, s.AddDocument(docID, 1))

		provs := []types.Provenance{
			types.FileProvenance{FilePath: "c.txt"},
			types.ArchiveProvenance{ArchivePath: "b.zip", MemberPath: "inner/doc.txt"},
			types.ExtendedProvenance{Payload: map[string]interface{}{"source": "a-stdin"}},
		}
		for _, p := range provs {
			require.NoError(t, s.AddProvenance(docID, p))
		}

		got, err := s.GetProvenance(docID)
		require.NoError(t, err)
		require.Len(t, got, 3)

		assert.Equal(t, "extended", got[0].Kind())
		assert.Equal(t, "a-stdin", got[0].Path())
		assert.Equal(t, types.ArchiveProvenance{ArchivePath: "b.zip", MemberPath: "inner/doc.txt"}, got[1])
		assert.Equal(t, types.FileProvenance{FilePath: "c.txt"}, got[2])
	})
}

func TestStore_Source_FirstLocation(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		docID := types.ComputeDocumentID([]byte("two homes"))
		rule := testRule("ds.test.src")
		require.NoError(t, s.AddRule(rule))
		require.NoError(t, s.AddDocument(docID, 1))
		require.NoError(t, s.AddProvenance(docID, types.FileProvenance{FilePath: "z.txt"}))
		require.NoError(t, s.AddProvenance(docID, types.ArchiveProvenance{ArchivePath: "a.zip", MemberPath: "m.txt"}))
		require.NoError(t, s.AddScore(&types.Score{DocumentID: docID, RuleID: rule.ID, StructuralID: rule.StructuralID, Count: 1}))

		scores, err := s.GetScores(docID)
		require.NoError(t, err)
		require.Len(t, scores, 1)
		assert.Equal(t, "a.zip:m.txt", scores[0].Source)
	})
}

func TestStore_RuleName_FallsBackToID(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		docID := types.ComputeDocumentID([]byte("unnamed"))
		require.NoError(t, s.AddDocument(docID, 4))
		require.NoError(t, s.AddScore(&types.Score{DocumentID: docID, RuleID: "ds.test.unknown", StructuralID: "abc", Count: 2}))

		scores, err := s.GetScores(docID)
		require.NoError(t, err)
		require.Len(t, scores, 1)
		assert.Equal(t, "ds.test.unknown", scores[0].RuleName)
		assert.Equal(t, "", scores[0].Source)
	})
}

func TestSQLite_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	docID := types.ComputeDocumentID([]byte("persisted"))

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.AddDocument(docID, 7))
	require.NoError(t, s.Close())

	reopened, err := NewSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	exists, err := reopened.DocumentExists(docID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestProvenanceColumns_Unknown(t *testing.T) {
	_, _, err := provenanceColumns(nil)
	assert.Error(t, err)

	_, err = provenanceFromColumns("git", "x", "")
	assert.Error(t, err)
}
