package scheduler

import (
	"log"
	"time"

	"github.com/example/psychstudy/pkg/models"
	"github.com/go-co-op/gocron"
)

// Scheduler sends hourly reminders to learners with cards due for review
type Scheduler struct {
	scheduler *gocron.Scheduler
	learners  LearnerSource
	counter   DueCounter
	notifier  Notifier
	startHour int
	endHour   int
	now       func() time.Time
}

// Notifier interface for sending notifications
type Notifier interface {
	SendReminders(chatID int64, count int) error
}

// LearnerSource lists the learners who accept reminders
type LearnerSource interface {
	GetForNotification() ([]models.Learner, error)
}

// DueCounter counts the cards due for review for a learner
type DueCounter interface {
	DueCount(chatID int64) (int, error)
}

// New creates a new scheduler instance. Reminders are only sent between
// startHour and endHour inclusive.
func New(learners LearnerSource, counter DueCounter, notifier Notifier, startHour, endHour int) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		learners:  learners,
		counter:   counter,
		notifier:  notifier,
		startHour: startHour,
		endHour:   endHour,
		now:       time.Now,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(1).Hour().Do(s.checkAndSendReminders); err != nil {
		return err
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) checkAndSendReminders() {
	s.RunCheck()
}

// RunCheck sends a reminder to every learner with due cards and returns how many were sent
func (s *Scheduler) RunCheck() int {
	currentHour := s.now().Hour()
	if currentHour < s.startHour || currentHour > s.endHour {
		log.Printf("Current hour %d is outside notification hours (%d-%d), skipping reminders",
			currentHour, s.startHour, s.endHour)
		return 0
	}

	learners, err := s.learners.GetForNotification()
	if err != nil {
		log.Printf("Error getting learners for notification: %v", err)
		return 0
	}

	sent := 0
	for _, learner := range learners {
		count, err := s.counter.DueCount(learner.ChatID)
		if err != nil {
			log.Printf("Error counting due cards for chat %d: %v", learner.ChatID, err)
			continue
		}
		if count == 0 {
			continue
		}

		if err := s.notifier.SendReminders(learner.ChatID, count); err != nil {
			log.Printf("Error sending reminder to chat %d: %v", learner.ChatID, err)
			continue
		}
		sent++
	}
	return sent
}

// RunManualCheck forces a check for a specific learner, ignoring the notification window
func (s *Scheduler) RunManualCheck(chatID int64) error {
	count, err := s.counter.DueCount(chatID)
	if err != nil {
		return err
	}
	if count > 0 {
		return s.notifier.SendReminders(chatID, count)
	}
	return nil
}
