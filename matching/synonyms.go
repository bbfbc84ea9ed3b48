package matching

import "github.com/remedesfr/remedes-api/textutil"

// SynonymIndex maps user vocabulary to canonical symptom names. Lookups go
// through match keys, so "migraine" and "Migraine " resolve identically.
// The index is built once at dataset load time and read-only afterwards.
type SynonymIndex struct {
	byKey map[string]string
}

// NewSynonymIndex builds an index from canonical symptom name to its
// synonym list. Every canonical name also resolves to itself. Blank
// synonyms are ignored.
func NewSynonymIndex(table map[string][]string) *SynonymIndex {
	idx := &SynonymIndex{byKey: make(map[string]string)}
	for canonical, synonyms := range table {
		key := textutil.ToMatchKey(canonical)
		if key == "" {
			continue
		}
		idx.byKey[key] = canonical
		for _, synonym := range synonyms {
			synKey := textutil.ToMatchKey(synonym)
			if synKey == "" {
				continue
			}
			idx.byKey[synKey] = canonical
		}
	}
	return idx
}

// Resolve returns the canonical symptom name for input, or "" and false
// when the term is unknown.
func (s *SynonymIndex) Resolve(input string) (string, bool) {
	if s == nil {
		return "", false
	}
	canonical, ok := s.byKey[textutil.ToMatchKey(input)]
	return canonical, ok
}

// ResolveAll maps each term to its canonical name, keeping unknown terms
// as typed so the matcher can still try them verbatim.
func (s *SynonymIndex) ResolveAll(terms []string) []string {
	resolved := make([]string, len(terms))
	for i, term := range terms {
		if canonical, ok := s.Resolve(term); ok {
			resolved[i] = canonical
		} else {
			resolved[i] = term
		}
	}
	return resolved
}

// Len returns the number of indexed terms.
func (s *SynonymIndex) Len() int {
	if s == nil {
		return 0
	}
	return len(s.byKey)
}
