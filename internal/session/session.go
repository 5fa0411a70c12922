package session

import (
	"errors"
	"log"

	"github.com/example/psychstudy/internal/spaced_repetition"
	"github.com/example/psychstudy/pkg/models"
)

// Mode selects which side of the card is shown first
type Mode string

const (
	// TermFirst shows the term and asks for the definition
	TermFirst Mode = "term-first"
	// DefinitionFirst shows the definition and asks for the term
	DefinitionFirst Mode = "def-first"
)

// Summary reports what happened in a session
type Summary struct {
	Reviewed    int
	MarkedKnown int
}

// Session is one pass through a shuffled study queue.
// A Session is not safe for concurrent use.
type Session struct {
	ID     string
	Filter models.LessonFilter
	Mode   Mode

	scheduler   *Scheduler
	queue       []models.Card
	idx         int
	answered    []bool
	reviewed    int
	markedKnown int
}

// CurrentCard returns the card at the front of the queue
func (s *Session) CurrentCard() (models.Card, error) {
	if s.idx >= len(s.queue) {
		return models.Card{}, ErrSessionComplete
	}
	return s.queue[s.idx], nil
}

// Prompt returns the question and answer sides of the current card for the session mode
func (s *Session) Prompt() (question, answer string, err error) {
	card, err := s.CurrentCard()
	if err != nil {
		return "", "", err
	}
	if s.Mode == DefinitionFirst {
		return card.Back, card.Front, nil
	}
	return card.Front, card.Back, nil
}

// Rate grades the current card. The queue does not move; call Advance.
func (s *Session) Rate(rating spaced_repetition.Rating) error {
	card, err := s.CurrentCard()
	if err != nil {
		return err
	}
	if _, err := s.scheduler.RateCard(card.ID, rating); err != nil {
		return err
	}
	s.markAnswered()
	return nil
}

// MarkKnown moves the current card to the known set
func (s *Session) MarkKnown() error {
	card, err := s.CurrentCard()
	if err != nil {
		return err
	}
	if s.scheduler.MarkKnown(card.ID) {
		s.markedKnown++
	}
	s.markAnswered()
	return nil
}

func (s *Session) markAnswered() {
	if !s.answered[s.idx] {
		s.answered[s.idx] = true
		s.reviewed++
	}
}

// Advance moves to the next card. It returns ErrSessionComplete after the last one.
func (s *Session) Advance() (models.Card, error) {
	if s.idx < len(s.queue) {
		s.idx++
	}
	card, err := s.CurrentCard()
	if errors.Is(err, ErrSessionComplete) {
		log.Printf("session %s: complete, reviewed %d, marked known %d", s.ID, s.reviewed, s.markedKnown)
	}
	return card, err
}

// Done reports whether the queue is exhausted
func (s *Session) Done() bool {
	return s.idx >= len(s.queue)
}

// Progress returns the 1-based position of the current card and the queue length
func (s *Session) Progress() (int, int) {
	pos := s.idx + 1
	if pos > len(s.queue) {
		pos = len(s.queue)
	}
	return pos, len(s.queue)
}

// Summary returns the session counters
func (s *Session) Summary() Summary {
	return Summary{Reviewed: s.reviewed, MarkedKnown: s.markedKnown}
}

// Cards returns a copy of the session queue in study order
func (s *Session) Cards() []models.Card {
	out := make([]models.Card, len(s.queue))
	copy(out, s.queue)
	return out
}
