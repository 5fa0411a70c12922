package session

import (
	"errors"
	"math/rand"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/example/psychstudy/internal/cardstore"
	"github.com/example/psychstudy/internal/spaced_repetition"
	"github.com/example/psychstudy/pkg/models"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func newTestScheduler(t *testing.T, seed int64) *Scheduler {
	t.Helper()
	store := cardstore.New(cardstore.NewMemoryKV())
	return NewScheduler(store,
		WithClock(func() time.Time { return t0 }),
		WithRand(rand.New(rand.NewSource(seed))),
	)
}

func catalog() []models.Card {
	cards := []models.Card{
		{Lesson: 1, Front: "Classical conditioning", Back: "Learning by association"},
		{Lesson: 1, Front: "Operant conditioning", Back: "Learning by consequences"},
		{Lesson: 3, Front: "Amygdala", Back: "Emotion processing"},
		{Lesson: 3, Front: "Hippocampus", Back: "Memory formation"},
		{Lesson: 3, Front: "Cerebellum", Back: "Motor coordination"},
		{Lesson: 3, Front: "Thalamus", Back: "Sensory relay"},
		{Lesson: 4, Front: "Id", Back: "Primitive drives"},
	}
	for i := range cards {
		cards[i].ID = models.CardIDForIndex(i)
	}
	return cards
}

func ids(cards []models.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}

func TestStartSessionFiltersLessonAndKnown(t *testing.T) {
	s := newTestScheduler(t, 1)
	s.MarkKnown("card-3")
	s.MarkKnown("card-0")

	sess, err := s.StartSession(catalog(), models.ForLesson(3))
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	got := ids(sess.Cards())
	sort.Strings(got)
	want := []string{"card-2", "card-4", "card-5"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("session cards = %v, want %v", got, want)
	}
	for _, c := range sess.Cards() {
		if c.Lesson != 3 {
			t.Errorf("card %s from lesson %d in lesson 3 session", c.ID, c.Lesson)
		}
	}
}

func TestStartSessionAll(t *testing.T) {
	s := newTestScheduler(t, 2)
	s.MarkKnown("card-6")
	sess, err := s.StartSession(catalog(), models.AllLessons())
	if err != nil {
		t.Fatal(err)
	}
	if len(sess.Cards()) != 6 {
		t.Errorf("got %d cards, want 6", len(sess.Cards()))
	}
}

func TestStartSessionEmptyPool(t *testing.T) {
	s := newTestScheduler(t, 1)
	for _, id := range []string{"card-2", "card-3", "card-4", "card-5"} {
		s.MarkKnown(id)
	}

	sess, err := s.StartSession(catalog(), models.ForLesson(3))
	if !errors.Is(err, ErrEmptyPool) {
		t.Fatalf("err = %v, want ErrEmptyPool", err)
	}
	if sess != nil {
		t.Error("caller must not receive a session for an empty pool")
	}

	if _, err := s.StartSession(nil, models.AllLessons()); !errors.Is(err, ErrEmptyPool) {
		t.Errorf("empty catalog: err = %v, want ErrEmptyPool", err)
	}
	if _, err := s.StartSession(catalog(), models.ForLesson(99)); !errors.Is(err, ErrEmptyPool) {
		t.Errorf("unknown lesson: err = %v, want ErrEmptyPool", err)
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	s := newTestScheduler(t, 42)
	for i := 0; i < 20; i++ {
		sess, err := s.StartSession(catalog(), models.AllLessons())
		if err != nil {
			t.Fatal(err)
		}
		got := ids(sess.Cards())
		sort.Strings(got)
		want := ids(catalog())
		sort.Strings(want)
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Fatalf("shuffle changed the multiset: %v", got)
		}
	}
}

func TestShuffleUniform(t *testing.T) {
	s := newTestScheduler(t, 7)
	cards := catalog()[:3]
	const trials = 6000

	counts := make(map[string]int)
	for i := 0; i < trials; i++ {
		sess, err := s.StartSession(cards, models.AllLessons())
		if err != nil {
			t.Fatal(err)
		}
		counts[strings.Join(ids(sess.Cards()), ",")]++
	}

	if len(counts) != 6 {
		t.Fatalf("saw %d permutations, want 6: %v", len(counts), counts)
	}
	for perm, n := range counts {
		if n < 800 || n > 1200 {
			t.Errorf("permutation %s seen %d times out of %d", perm, n, trials)
		}
	}
}

func TestSessionsDoNotShareCatalog(t *testing.T) {
	s := newTestScheduler(t, 3)
	cat := catalog()
	before := ids(cat)
	if _, err := s.StartSession(cat, models.AllLessons()); err != nil {
		t.Fatal(err)
	}
	if strings.Join(ids(cat), ",") != strings.Join(before, ",") {
		t.Error("StartSession reordered the caller's catalog")
	}
}

func TestRateCardSequence(t *testing.T) {
	s := newTestScheduler(t, 1)

	want := []struct{ interval, reps int }{{1, 1}, {6, 2}, {16, 3}}
	for i, w := range want {
		st, err := s.RateCard("card-0", spaced_repetition.Perfect)
		if err != nil {
			t.Fatal(err)
		}
		if st.Interval != w.interval || st.Repetitions != w.reps {
			t.Errorf("review %d: interval=%d reps=%d, want %d and %d", i+1, st.Interval, st.Repetitions, w.interval, w.reps)
		}
	}

	st, ok := s.Store().ReviewState("card-0")
	if !ok || st.Interval != 16 {
		t.Errorf("stored state = %+v, %v", st, ok)
	}
	if want := t0.Add(16 * 24 * time.Hour).UnixMilli(); st.Due != want {
		t.Errorf("due = %d, want %d", st.Due, want)
	}

	st, _ = s.RateCard("card-0", spaced_repetition.Again)
	if st.Repetitions != 0 || st.Interval != 1 {
		t.Errorf("after failure: %+v", st)
	}
	if st.Ease <= models.MinEase {
		t.Errorf("failure should keep ease above the floor here, got %v", st.Ease)
	}
}

func TestRateCardInvalid(t *testing.T) {
	s := newTestScheduler(t, 1)
	if _, err := s.RateCard("card-0", 4); !errors.Is(err, spaced_repetition.ErrInvalidRating) {
		t.Fatalf("err = %v, want ErrInvalidRating", err)
	}
	if _, ok := s.Store().ReviewState("card-0"); ok {
		t.Error("invalid rating created a review state")
	}
}

func TestMarkKnownDoesNotTouchReviewState(t *testing.T) {
	s := newTestScheduler(t, 1)
	s.RateCard("card-2", spaced_repetition.Good)
	before, _ := s.Store().ReviewState("card-2")

	s.MarkKnown("card-2")
	s.MarkKnown("card-2")

	after, _ := s.Store().ReviewState("card-2")
	if before != after {
		t.Errorf("review state changed: %+v -> %+v", before, after)
	}
	if got := s.Store().KnownIDs(); len(got) != 1 {
		t.Errorf("known set = %v", got)
	}

	s.ResetKnown()
	if s.Store().IsKnown("card-2") {
		t.Error("ResetKnown left card-2 known")
	}
}

func TestSessionWalkthrough(t *testing.T) {
	s := newTestScheduler(t, 5)
	sess, err := s.StartSession(catalog(), models.ForLesson(1))
	if err != nil {
		t.Fatal(err)
	}

	if pos, total := sess.Progress(); pos != 1 || total != 2 {
		t.Errorf("Progress = %d/%d", pos, total)
	}

	first, _ := sess.CurrentCard()
	if err := sess.Rate(spaced_repetition.Good); err != nil {
		t.Fatal(err)
	}
	// Rating the same card twice counts it once
	if err := sess.Rate(spaced_repetition.Perfect); err != nil {
		t.Fatal(err)
	}

	second, err := sess.Advance()
	if err != nil {
		t.Fatal(err)
	}
	if second.ID == first.ID {
		t.Fatal("Advance returned the same card")
	}
	if err := sess.MarkKnown(); err != nil {
		t.Fatal(err)
	}

	if _, err := sess.Advance(); !errors.Is(err, ErrSessionComplete) {
		t.Fatalf("Advance at end: err = %v, want ErrSessionComplete", err)
	}
	if !sess.Done() {
		t.Error("Done() = false after last card")
	}
	if err := sess.Rate(spaced_repetition.Good); !errors.Is(err, ErrSessionComplete) {
		t.Errorf("Rate after end: err = %v", err)
	}
	if _, err := sess.Advance(); !errors.Is(err, ErrSessionComplete) {
		t.Errorf("second Advance at end: err = %v", err)
	}

	if got := sess.Summary(); got != (Summary{Reviewed: 2, MarkedKnown: 1}) {
		t.Errorf("Summary = %+v", got)
	}

	if !s.Store().IsKnown(second.ID) {
		t.Error("MarkKnown did not reach the store")
	}
	if _, err := s.StartSession(catalog(), models.ForLesson(1)); err != nil {
		t.Errorf("one card of lesson 1 should remain: %v", err)
	}
}

func TestSessionMarkKnownAlreadyKnown(t *testing.T) {
	s := newTestScheduler(t, 5)
	sess, _ := s.StartSession(catalog(), models.ForLesson(4))
	card, _ := sess.CurrentCard()

	// Another session marked it in the meantime
	s.MarkKnown(card.ID)
	sess.MarkKnown()

	if got := sess.Summary(); got != (Summary{Reviewed: 1, MarkedKnown: 0}) {
		t.Errorf("Summary = %+v", got)
	}
}

func TestSessionPrompt(t *testing.T) {
	s := newTestScheduler(t, 1)
	sess, _ := s.StartSession(catalog(), models.ForLesson(4))

	q, a, err := sess.Prompt()
	if err != nil || q != "Id" || a != "Primitive drives" {
		t.Errorf("term-first prompt = %q/%q, %v", q, a, err)
	}

	sess.Mode = DefinitionFirst
	q, a, _ = sess.Prompt()
	if q != "Primitive drives" || a != "Id" {
		t.Errorf("def-first prompt = %q/%q", q, a)
	}
}

func TestIndependentSessions(t *testing.T) {
	a := newTestScheduler(t, 1)
	b := newTestScheduler(t, 1)

	sa, _ := a.StartSession(catalog(), models.AllLessons())
	sb, _ := b.StartSession(catalog(), models.AllLessons())
	if sa.ID == sb.ID {
		t.Error("sessions share an ID")
	}

	sa.MarkKnown()
	cur, _ := sb.CurrentCard()
	if b.Store().IsKnown(cur.ID) {
		t.Error("known set leaked between learners")
	}
}

func TestDueCards(t *testing.T) {
	now := t0
	store := cardstore.New(cardstore.NewMemoryKV())
	s := NewScheduler(store, WithClock(func() time.Time { return now }))

	s.RateCard("card-0", spaced_repetition.Good)  // due in 1 day
	s.RateCard("card-2", spaced_repetition.Good)  // due in 1 day
	s.RateCard("card-3", spaced_repetition.Again) // due in 1 day, but known
	s.MarkKnown("card-3")

	if due := s.DueCards(catalog(), models.AllLessons()); len(due) != 0 {
		t.Errorf("nothing should be due yet, got %v", ids(due))
	}

	now = t0.Add(25 * time.Hour)
	due := ids(s.DueCards(catalog(), models.AllLessons()))
	if strings.Join(due, ",") != "card-0,card-2" {
		t.Errorf("due = %v", due)
	}
	due = ids(s.DueCards(catalog(), models.ForLesson(3)))
	if strings.Join(due, ",") != "card-2" {
		t.Errorf("due in lesson 3 = %v", due)
	}
}

func TestMasteredCount(t *testing.T) {
	s := newTestScheduler(t, 1)
	s.Store().SetReviewState("card-0", models.ReviewState{Ease: 2.5, Interval: 45, Repetitions: 6})
	s.Store().SetReviewState("card-1", models.ReviewState{Ease: 2.5, Interval: 6, Repetitions: 2})
	if got := s.MasteredCount(catalog()); got != 1 {
		t.Errorf("MasteredCount = %d, want 1", got)
	}
}
