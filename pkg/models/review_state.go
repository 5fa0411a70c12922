package models

import "time"

const (
	// InitialEase is the ease factor of a card that was never rated
	InitialEase = 2.5
	// MinEase is the floor the ease factor never drops below
	MinEase = 1.3
	// InitialInterval is the first review interval in days
	InitialInterval = 1
)

// ReviewState tracks a learner's SM-2 progress with a specific card.
// The JSON field names match the progress saved by the browser version of the site.
type ReviewState struct {
	Ease        float64 `json:"ease"`          // SM-2 easiness factor
	Interval    int     `json:"interval"`      // Current interval in days
	Repetitions int     `json:"repetitions"`   // Consecutive successful reviews
	Due         int64   `json:"due,omitempty"` // Next review time, Unix milliseconds; 0 if never scheduled
}

// NewReviewState returns the state of a card that has never been rated
func NewReviewState() ReviewState {
	return ReviewState{
		Ease:        InitialEase,
		Interval:    InitialInterval,
		Repetitions: 0,
	}
}

// DueTime returns the due timestamp, and false if the card was never scheduled
func (s ReviewState) DueTime() (time.Time, bool) {
	if s.Due == 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(s.Due), true
}

// IsDue reports whether the card is eligible for review at the given time
func (s ReviewState) IsDue(now time.Time) bool {
	due, ok := s.DueTime()
	return ok && !due.After(now)
}
