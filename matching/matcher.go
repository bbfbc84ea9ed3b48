// Package matching implements the symptom-to-remedy matching and ranking
// engine. Symptom equality is defined entirely by textutil.ToMatchKey, so
// matching ignores case, accents, hyphen/underscore-vs-space and extra
// whitespace, but never resolves synonyms; callers resolve those upstream
// through a SynonymIndex before calling the engine.
package matching

import (
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/remedesfr/remedes-api/cache"
	"github.com/remedesfr/remedes-api/remediesparser/entities"
	"github.com/remedesfr/remedes-api/textutil"
)

// Engine ranks remedies against selected symptoms. It memoizes match-key
// computation in a bounded LRU cache and sorts name ties with French
// collation. The engine carries no dataset state of its own; remedies are
// passed per call.
type Engine struct {
	mu       sync.Mutex
	keys     *cache.Cache[string, string]
	collator *collate.Collator
}

// NewEngine creates an engine whose match-key cache holds at most cacheSize
// entries (non-positive values use the cache default).
func NewEngine(cacheSize int) *Engine {
	return &Engine{
		keys:     cache.New[string, string](cacheSize),
		collator: collate.New(language.French),
	}
}

func (e *Engine) matchKey(s string) string {
	return e.keys.Get(s, textutil.ToMatchKey)
}

// CacheSize returns the current number of memoized match keys.
func (e *Engine) CacheSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.keys.Size()
}

// FindMatchingRemedies returns every remedy addressing at least one of the
// selected symptoms, ranked by the number of selected symptoms it answers
// and alphabetically (French collation) on ties. Remedies without a symptom
// list can never match. Results never contain zero-score entries; an empty
// selection or dataset yields an empty slice. Inputs are not mutated.
func (e *Engine) FindMatchingRemedies(selected []string, remedies []entities.Remedy) []entities.MatchResult {
	if len(selected) == 0 || len(remedies) == 0 {
		return []entities.MatchResult{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	selectedKeys := make([]string, len(selected))
	for i, s := range selected {
		selectedKeys[i] = e.matchKey(s)
	}

	results := make([]entities.MatchResult, 0)
	for i := range remedies {
		remedy := remedies[i]
		if len(remedy.Symptoms) == 0 {
			continue
		}

		remedyKeys := make(map[string]struct{}, len(remedy.Symptoms))
		for _, symptom := range remedy.Symptoms {
			key := e.matchKey(symptom)
			if strings.TrimSpace(key) == "" {
				continue
			}
			remedyKeys[key] = struct{}{}
		}

		var matched []string
		for j, key := range selectedKeys {
			if _, ok := remedyKeys[key]; ok {
				matched = append(matched, selected[j])
			}
		}
		if len(matched) == 0 {
			continue
		}

		results = append(results, entities.MatchResult{
			Remedy:          remedy,
			MatchCount:      len(matched),
			MatchedSymptoms: matched,
		})
	}

	sort.Slice(results, func(a, b int) bool {
		if results[a].MatchCount != results[b].MatchCount {
			return results[a].MatchCount > results[b].MatchCount
		}
		return e.collator.CompareString(results[a].Remedy.Name, results[b].Remedy.Name) < 0
	})

	return results
}
