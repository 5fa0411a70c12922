package spaced_repetition

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/example/psychstudy/pkg/models"
)

// ErrInvalidRating is returned for ratings outside Again..Perfect
var ErrInvalidRating = errors.New("invalid rating")

// Rating is the learner's grade of a single recall attempt
type Rating int

const (
	// Complete failure to recall
	Again Rating = 0
	// Recalled with significant difficulty
	Hard Rating = 1
	// Recalled with some effort
	Good Rating = 2
	// Perfect recall
	Perfect Rating = 3
)

// MaxRating is the highest grade; the ease formula is centered on it
const MaxRating = Perfect

// Valid reports whether r is one of the four grades
func (r Rating) Valid() bool {
	return r >= Again && r <= Perfect
}

func (r Rating) String() string {
	switch r {
	case Again:
		return "Again"
	case Hard:
		return "Hard"
	case Good:
		return "Good"
	case Perfect:
		return "Perfect"
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}

// SM2 implements the SuperMemo-2 algorithm for spaced repetition
type SM2 struct {
	// Lowest rating that counts as a successful recall
	PassThreshold Rating
	// Interval after the second consecutive successful review, in days
	SecondInterval int
	// Thresholds used to classify a card as mastered
	MasteredRepetitions int
	MasteredInterval    int
}

// NewSM2 creates a new SM2 instance with the default settings
func NewSM2() *SM2 {
	return &SM2{
		PassThreshold:       Hard, // Only Again resets progress
		SecondInterval:      6,
		MasteredRepetitions: 5,
		MasteredInterval:    30,
	}
}

// Process applies a rating to the card's review state and returns the updated state.
// The next interval is computed with the ease from before this rating.
func (sm *SM2) Process(state models.ReviewState, rating Rating, now time.Time) (models.ReviewState, error) {
	if !rating.Valid() {
		return state, fmt.Errorf("%w: %d", ErrInvalidRating, int(rating))
	}

	if rating < sm.PassThreshold {
		state.Repetitions = 0
		state.Interval = 1
	} else {
		switch state.Repetitions {
		case 0:
			state.Interval = 1
		case 1:
			state.Interval = sm.SecondInterval
		default:
			state.Interval = int(math.Round(float64(state.Interval) * state.Ease))
		}
		state.Repetitions++
	}

	if state.Interval < 1 {
		state.Interval = 1
	}

	state.Ease = NextEase(state.Ease, rating)

	// Interval is in days, due is an absolute Unix millisecond timestamp
	state.Due = now.Add(time.Duration(state.Interval) * 24 * time.Hour).UnixMilli()

	return state, nil
}

// NextEase returns the updated easiness factor for a rating.
// The factor never drops below models.MinEase.
func NextEase(ease float64, rating Rating) float64 {
	d := float64(MaxRating - rating)
	ease = ease + (0.1 - d*(0.08+d*0.02))
	if ease < models.MinEase {
		ease = models.MinEase
	}
	return ease
}

// IsMastered determines if a card is considered mastered by the schedule alone.
// It is a reporting aid; only the known set removes cards from sessions.
func (sm *SM2) IsMastered(state models.ReviewState) bool {
	return state.Repetitions >= sm.MasteredRepetitions &&
		state.Interval >= sm.MasteredInterval
}
