package session

import (
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/example/psychstudy/internal/cardstore"
	"github.com/example/psychstudy/internal/spaced_repetition"
	"github.com/example/psychstudy/pkg/models"
	"github.com/google/uuid"
)

var (
	// ErrEmptyPool is returned when no card is left to study for a filter
	ErrEmptyPool = errors.New("no cards to study")
	// ErrSessionComplete is returned once the queue is exhausted
	ErrSessionComplete = errors.New("session complete")
)

// Scheduler builds study sessions and applies ratings to the card store
type Scheduler struct {
	store *cardstore.Store
	sm2   *spaced_repetition.SM2
	now   func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithSM2 replaces the default SM-2 settings
func WithSM2(sm *spaced_repetition.SM2) Option {
	return func(s *Scheduler) { s.sm2 = sm }
}

// WithClock sets the time source used for due timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithRand sets the random source used to shuffle sessions
func WithRand(rnd *rand.Rand) Option {
	return func(s *Scheduler) { s.rnd = rnd }
}

// NewScheduler creates a scheduler over a learner's card store
func NewScheduler(store *cardstore.Store, opts ...Option) *Scheduler {
	s := &Scheduler{
		store: store,
		sm2:   spaced_repetition.NewSM2(),
		now:   time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the card store the scheduler writes to
func (s *Scheduler) Store() *cardstore.Store {
	return s.store
}

// StartSession selects the cards matching filter that are not known and
// returns them shuffled. It returns ErrEmptyPool when nothing is left.
func (s *Scheduler) StartSession(catalog []models.Card, filter models.LessonFilter) (*Session, error) {
	known := s.store.KnownSet()

	pool := make([]models.Card, 0, len(catalog))
	for _, c := range catalog {
		if !filter.Matches(c) || known[c.ID] {
			continue
		}
		pool = append(pool, c)
	}

	if len(pool) == 0 {
		return nil, ErrEmptyPool
	}

	s.shuffle(pool)

	sess := &Session{
		ID:        uuid.NewString(),
		Filter:    filter,
		Mode:      TermFirst,
		scheduler: s,
		queue:     pool,
		answered:  make([]bool, len(pool)),
	}
	log.Printf("session %s: started with %d cards (lesson %s)", sess.ID, len(pool), filter)
	return sess, nil
}

// shuffle is a Fisher-Yates shuffle; every permutation is equally likely
func (s *Scheduler) shuffle(cards []models.Card) {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()

	s.rnd.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// RateCard applies a rating to a card's review state and persists the result.
// Invalid ratings are rejected before anything is changed.
func (s *Scheduler) RateCard(cardID string, rating spaced_repetition.Rating) (models.ReviewState, error) {
	now := s.now()
	return s.store.UpdateReviewState(cardID, func(state models.ReviewState) (models.ReviewState, error) {
		return s.sm2.Process(state, rating, now)
	})
}

// MarkKnown removes the card from future sessions. Its review state is left untouched.
// It reports whether the card was newly marked.
func (s *Scheduler) MarkKnown(cardID string) bool {
	return s.store.MarkKnown(cardID)
}

// ResetKnown brings every known card back into future sessions
func (s *Scheduler) ResetKnown() {
	s.store.ClearKnown()
	log.Println("known cards reset")
}

// DueCards returns the non-known cards matching filter whose review is due
func (s *Scheduler) DueCards(catalog []models.Card, filter models.LessonFilter) []models.Card {
	now := s.now()
	known := s.store.KnownSet()
	stats := s.store.AllReviewStates()

	var due []models.Card
	for _, c := range catalog {
		if !filter.Matches(c) || known[c.ID] {
			continue
		}
		if st, ok := stats[c.ID]; ok && st.IsDue(now) {
			due = append(due, c)
		}
	}
	return due
}

// MasteredCount returns how many cards in the catalog the schedule considers mastered
func (s *Scheduler) MasteredCount(catalog []models.Card) int {
	stats := s.store.AllReviewStates()
	n := 0
	for _, c := range catalog {
		if st, ok := stats[c.ID]; ok && s.sm2.IsMastered(st) {
			n++
		}
	}
	return n
}
