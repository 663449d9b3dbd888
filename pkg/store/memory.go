package store

import (
	"sort"
	"sync"

	"github.com/praetorian-inc/docsearch/pkg/types"
)

// scoreKey identifies one score: a rule on a document.
type scoreKey struct {
	doc  string
	rule string
}

// MemoryStore implements Store using in-memory data structures.
// Nothing is persisted; it backs ":memory:" and tests.
type MemoryStore struct {
	mu         sync.RWMutex
	documents  map[string]int                // line count keyed by DocumentID.Hex()
	rules      map[string]*types.Rule        // keyed by rule ID
	scores     map[scoreKey]*types.Score     // first score wins
	provenance map[string][]types.Provenance // keyed by DocumentID.Hex()
}

// NewMemory creates a new in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		documents:  make(map[string]int),
		rules:      make(map[string]*types.Rule),
		scores:     make(map[scoreKey]*types.Score),
		provenance: make(map[string][]types.Provenance),
	}
}

// AddDocument stores a document record.
func (m *MemoryStore) AddDocument(id types.DocumentID, lineCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := id.Hex()
	if _, exists := m.documents[key]; exists {
		return nil
	}
	m.documents[key] = lineCount
	return nil
}

// AddRule stores a rule.
func (m *MemoryStore) AddRule(r *types.Rule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.rules[r.ID]; !exists {
		m.rules[r.ID] = r
	}
	return nil
}

// AddScore stores a score.
func (m *MemoryStore) AddScore(s *types.Score) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := scoreKey{doc: s.DocumentID.Hex(), rule: s.RuleID}
	if _, exists := m.scores[key]; exists {
		return nil
	}
	stored := *s
	m.scores[key] = &stored
	return nil
}

// AddProvenance associates provenance with a document.
func (m *MemoryStore) AddProvenance(docID types.DocumentID, prov types.Provenance) error {
	path, member, err := provenanceColumns(prov)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := docID.Hex()
	for _, existing := range m.provenance[key] {
		p, mem, _ := provenanceColumns(existing)
		if existing.Kind() == prov.Kind() && p == path && mem == member {
			return nil
		}
	}
	m.provenance[key] = append(m.provenance[key], prov)
	return nil
}

// GetScores retrieves the scores of a document.
func (m *MemoryStore) GetScores(docID types.DocumentID) ([]*types.Score, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc := docID.Hex()
	result := make([]*types.Score, 0)
	for key, s := range m.scores {
		if key.doc == doc {
			result = append(result, m.resolve(key, s))
		}
	}
	sortScores(result)
	return result, nil
}

// GetAllScores retrieves every score.
func (m *MemoryStore) GetAllScores() ([]*types.Score, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*types.Score, 0, len(m.scores))
	for key, s := range m.scores {
		result = append(result, m.resolve(key, s))
	}
	sortScores(result)
	return result, nil
}

// resolve fills in the fields a SQL store would join from other tables.
// Callers must hold m.mu.
func (m *MemoryStore) resolve(key scoreKey, s *types.Score) *types.Score {
	out := *s
	out.RuleName = s.RuleID
	if r, ok := m.rules[key.rule]; ok {
		out.RuleName = r.Name
	}
	out.LineCount = m.documents[key.doc]
	out.Source = ""
	if provs := m.sortedProvenance(key.doc); len(provs) > 0 {
		out.Source = provs[0].Path()
	}
	return &out
}

// GetProvenance retrieves every known location of a document.
func (m *MemoryStore) GetProvenance(docID types.DocumentID) ([]types.Provenance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.sortedProvenance(docID.Hex()), nil
}

func (m *MemoryStore) sortedProvenance(doc string) []types.Provenance {
	provs := append([]types.Provenance{}, m.provenance[doc]...)
	sort.SliceStable(provs, func(i, j int) bool {
		pi, mi, _ := provenanceColumns(provs[i])
		pj, mj, _ := provenanceColumns(provs[j])
		if pi != pj {
			return pi < pj
		}
		return mi < mj
	})
	return provs
}

// DocumentExists checks if a document has already been classified.
func (m *MemoryStore) DocumentExists(id types.DocumentID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.documents[id.Hex()]
	return exists, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}

func sortScores(scores []*types.Score) {
	sort.Slice(scores, func(i, j int) bool {
		a, b := scores[i].DocumentID.Hex(), scores[j].DocumentID.Hex()
		if a != b {
			return a < b
		}
		return scores[i].RuleID < scores[j].RuleID
	})
}
