// Package history implements the bounded search history: a newest-first log
// of past symptom searches, deduplicated by symptom set, capped at ten
// entries and persisted after every mutation.
package history

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/remedesfr/remedes-api/logging"
	"github.com/remedesfr/remedes-api/storage"
	"github.com/remedesfr/remedes-api/textutil"
)

// Capacity is the maximum number of retained history entries.
const Capacity = 10

// Entry is one recorded search. Symptoms keep the order and spelling of
// the first submission of this symptom set; Timestamp reflects the most
// recent activity.
type Entry struct {
	ID          string   `json:"id"`
	Symptoms    []string `json:"symptoms"`
	Timestamp   int64    `json:"timestamp"`
	ResultCount int      `json:"resultCount"`
}

// Store holds history entries newest-first. Mutations persist the full
// list; persistence failures are logged and swallowed so in-memory state
// stays authoritative for the session.
type Store struct {
	mu      sync.Mutex
	entries []Entry
	store   storage.Store
	codec   *storage.Codec
	now     func() time.Time
	newID   func() string
}

// NewStore rehydrates history from storage. Entries failing the shape
// check (missing id, missing or non-array symptoms) are dropped; an
// unparseable payload yields an empty history.
func NewStore(store storage.Store, codec *storage.Codec) *Store {
	s := &Store{
		entries: []Entry{},
		store:   store,
		codec:   codec,
		now:     time.Now,
		newID:   uuid.NewString,
	}

	data, err := store.Read(storage.SlotHistory)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logging.Warn("Failed to read search history, starting empty", "error", err)
		}
		return s
	}

	var raw []json.RawMessage
	if err := codec.Open(data, &raw); err != nil {
		logging.Warn("Stored search history is invalid, starting empty", "error", err)
		return s
	}

	for _, item := range raw {
		var entry Entry
		if err := json.Unmarshal(item, &entry); err != nil {
			continue
		}
		if entry.ID == "" || entry.Symptoms == nil {
			continue
		}
		s.entries = append(s.entries, entry)
		if len(s.entries) == Capacity {
			break
		}
	}
	return s
}

// dedupKey builds the order- and accent-insensitive identity of a symptom
// set: the sorted, deduplicated match keys joined with a separator.
func dedupKey(symptoms []string) string {
	seen := make(map[string]struct{}, len(symptoms))
	keys := make([]string, 0, len(symptoms))
	for _, s := range symptoms {
		key := textutil.ToMatchKey(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return strings.Join(keys, "|")
}

// AddSearch records a search. Submitting a symptom set already present
// moves that entry to the front, replaces its result count and refreshes
// its timestamp while keeping the originally submitted symptom order and
// spelling. New entries get a fresh id and a defensive copy of symptoms.
// Overflow evicts from the tail until the list holds Capacity entries.
// An empty symptom list is a no-op.
func (s *Store) AddSearch(symptoms []string, resultCount int) {
	if len(symptoms) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := dedupKey(symptoms)
	for i := range s.entries {
		if dedupKey(s.entries[i].Symptoms) == key {
			entry := s.entries[i]
			entry.ResultCount = resultCount
			entry.Timestamp = s.now().UnixMilli()
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			s.entries = append([]Entry{entry}, s.entries...)
			s.persist()
			return
		}
	}

	entry := Entry{
		ID:          s.newID(),
		Symptoms:    append([]string{}, symptoms...),
		Timestamp:   s.now().UnixMilli(),
		ResultCount: resultCount,
	}
	s.entries = append([]Entry{entry}, s.entries...)
	if len(s.entries) > Capacity {
		s.entries = s.entries[:Capacity]
	}
	s.persist()
}

// RemoveSearch deletes the entry with the given id; unknown ids are a no-op.
func (s *Store) RemoveSearch(id string) {
	if id == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			s.persist()
			return
		}
	}
}

// ClearHistory empties the list and persists the empty state.
func (s *Store) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = []Entry{}
	s.persist()
}

// Entries returns a newest-first copy of the history.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the current entry count.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// persist writes the full list; caller holds the lock.
func (s *Store) persist() {
	payload, err := s.codec.Seal(s.entries)
	if err != nil {
		logging.Error("Failed to encode search history", "error", err)
		return
	}
	if err := s.store.Write(storage.SlotHistory, payload); err != nil {
		logging.Warn("Failed to persist search history", "error", err)
	}
}
