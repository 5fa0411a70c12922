package cardstore

import (
	"encoding/json"
	"log"
	"sort"
	"sync"

	"github.com/example/psychstudy/pkg/models"
)

// Storage keys, shared with the browser version of the flashcards page
const (
	StatsKey = "flashcard-stats"
	KnownKey = "flashcard-known"
)

// KeyValue is the persistence backend of a Store
type KeyValue interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Store owns one learner's review state and known set.
// Reads go through to the backend so progress written by another process is
// picked up; when the backend fails the last state seen in memory is used.
type Store struct {
	mu    sync.Mutex
	kv    KeyValue
	stats map[string]models.ReviewState
	known []string
}

// New creates a store on top of a key-value backend
func New(kv KeyValue) *Store {
	return &Store{
		kv:    kv,
		stats: make(map[string]models.ReviewState),
	}
}

// ReviewState returns the stored state for a card, and false if it was never rated
func (s *Store) ReviewState(cardID string) (models.ReviewState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.loadStats()[cardID]
	return state, ok
}

// AllReviewStates returns a copy of every stored review state
func (s *Store) AllReviewStates() map[string]models.ReviewState {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.loadStats()
	out := make(map[string]models.ReviewState, len(stats))
	for id, st := range stats {
		out[id] = st
	}
	return out
}

// SetReviewState overwrites the state of a card and persists it
func (s *Store) SetReviewState(cardID string, state models.ReviewState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.loadStats()
	stats[cardID] = state
	s.stats = stats
	s.save(StatsKey, stats)
}

// UpdateReviewState applies fn to the current state of a card under the store lock.
// fn receives a default state if the card was never rated. If fn fails nothing is written.
func (s *Store) UpdateReviewState(cardID string, fn func(models.ReviewState) (models.ReviewState, error)) (models.ReviewState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.loadStats()
	current, ok := stats[cardID]
	if !ok {
		current = models.NewReviewState()
	}

	next, err := fn(current)
	if err != nil {
		return current, err
	}

	stats[cardID] = next
	s.stats = stats
	s.save(StatsKey, stats)
	return next, nil
}

// IsKnown reports whether the learner marked the card as known
func (s *Store) IsKnown(cardID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.loadKnown() {
		if id == cardID {
			return true
		}
	}
	return false
}

// KnownIDs returns the known set in the order cards were marked
func (s *Store) KnownIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := s.loadKnown()
	out := make([]string, len(known))
	copy(out, known)
	return out
}

// KnownSet returns the known set as a lookup map
func (s *Store) KnownSet() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := make(map[string]bool)
	for _, id := range s.loadKnown() {
		set[id] = true
	}
	return set
}

// MarkKnown adds the card to the known set. It reports whether the card was newly added.
func (s *Store) MarkKnown(cardID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := s.loadKnown()
	for _, id := range known {
		if id == cardID {
			s.known = known
			return false
		}
	}

	known = append(known, cardID)
	s.known = known
	s.save(KnownKey, known)
	return true
}

// ClearKnown empties the known set. Callers confirm with the learner first.
func (s *Store) ClearKnown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.known = []string{}
	s.save(KnownKey, s.known)
}

// loadStats reads the review state map; callers hold s.mu
func (s *Store) loadStats() map[string]models.ReviewState {
	raw, ok, err := s.kv.Get(StatsKey)
	if err != nil {
		log.Printf("cardstore: failed to read %s, using session state: %v", StatsKey, err)
		return s.copyStats()
	}
	if !ok {
		return s.copyStats()
	}

	stats := make(map[string]models.ReviewState)
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		log.Printf("cardstore: discarding malformed %s: %v", StatsKey, err)
		stats = make(map[string]models.ReviewState)
	}
	if stats == nil {
		stats = make(map[string]models.ReviewState)
	}
	for id, st := range stats {
		stats[id] = sanitize(st)
	}
	s.stats = stats
	return s.copyStats()
}

// loadKnown reads the known set; callers hold s.mu
func (s *Store) loadKnown() []string {
	raw, ok, err := s.kv.Get(KnownKey)
	if err != nil {
		log.Printf("cardstore: failed to read %s, using session state: %v", KnownKey, err)
		return append([]string(nil), s.known...)
	}
	if !ok {
		return append([]string(nil), s.known...)
	}

	var known []string
	if err := json.Unmarshal([]byte(raw), &known); err != nil {
		log.Printf("cardstore: discarding malformed %s: %v", KnownKey, err)
		known = nil
	}
	s.known = known
	return append([]string(nil), known...)
}

func (s *Store) copyStats() map[string]models.ReviewState {
	out := make(map[string]models.ReviewState, len(s.stats))
	for id, st := range s.stats {
		out[id] = st
	}
	return out
}

// save persists a value; failures are logged and the in-memory copy stays authoritative
func (s *Store) save(key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("cardstore: failed to encode %s: %v", key, err)
		return
	}
	if err := s.kv.Set(key, string(data)); err != nil {
		log.Printf("cardstore: failed to persist %s, keeping session state: %v", key, err)
	}
}

// sanitize repairs out-of-range values in stored records
func sanitize(st models.ReviewState) models.ReviewState {
	if st.Ease < models.MinEase {
		st.Ease = models.MinEase
	}
	if st.Interval < 1 {
		st.Interval = 1
	}
	if st.Repetitions < 0 {
		st.Repetitions = 0
	}
	return st
}

// LessonStats summarizes a lesson filter for the start screen
type LessonStats struct {
	Total     int
	Known     int
	Remaining int
}

// Stats counts the cards matching filter and how many of them are known
func (s *Store) Stats(catalog []models.Card, filter models.LessonFilter) LessonStats {
	known := s.KnownSet()

	var st LessonStats
	for _, c := range catalog {
		if !filter.Matches(c) {
			continue
		}
		st.Total++
		if known[c.ID] {
			st.Known++
		}
	}
	st.Remaining = st.Total - st.Known
	return st
}

// LessonCount is a lesson number with the number of cards in it
type LessonCount struct {
	Lesson int
	Cards  int
}

// Lessons returns the distinct lessons of the catalog in ascending order
func Lessons(catalog []models.Card) []LessonCount {
	counts := make(map[int]int)
	for _, c := range catalog {
		counts[c.Lesson]++
	}

	lessons := make([]LessonCount, 0, len(counts))
	for lesson, n := range counts {
		lessons = append(lessons, LessonCount{Lesson: lesson, Cards: n})
	}
	sort.Slice(lessons, func(i, j int) bool {
		return lessons[i].Lesson < lessons[j].Lesson
	})
	return lessons
}
