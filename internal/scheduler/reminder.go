package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"mindscribe/internal/model"
)

// GoalSource lists incomplete goals due on or before a day.
type GoalSource interface {
	ListDueBefore(day time.Time) ([]model.Goal, error)
}

// Publisher delivers reminder payloads to the reminder queue.
type Publisher interface {
	Publish(ctx context.Context, payload interface{}) error
}

// Reminder is a queued notification for a goal approaching its deadline.
type Reminder struct {
	GoalID   uint   `json:"goal_id"`
	UserID   uint   `json:"user_id"`
	TeamID   uint   `json:"team_id,omitempty"`
	Title    string `json:"title"`
	Deadline string `json:"deadline"`
}

// ReminderScheduler runs a cron job that publishes a reminder for every
// incomplete goal whose deadline falls inside the lookahead window.
type ReminderScheduler struct {
	cron      *cron.Cron
	goals     GoalSource
	publisher Publisher
	window    time.Duration
}

func NewReminderScheduler(goals GoalSource, publisher Publisher, windowHours int) *ReminderScheduler {
	if windowHours <= 0 {
		windowHours = 24
	}
	return &ReminderScheduler{
		cron:      cron.New(),
		goals:     goals,
		publisher: publisher,
		window:    time.Duration(windowHours) * time.Hour,
	}
}

func (s *ReminderScheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.scan); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// NextRun returns when the next reminder scan fires, or the zero time when
// the scheduler has no job registered.
func (s *ReminderScheduler) NextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *ReminderScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *ReminderScheduler) scan() {
	due, err := s.goals.ListDueBefore(time.Now().Add(s.window))
	if err != nil {
		log.Printf("reminder scan failed: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, g := range due {
		reminder := Reminder{
			GoalID:   g.ID,
			UserID:   g.UserID,
			TeamID:   g.TeamID,
			Title:    g.Title,
			Deadline: g.Deadline,
		}
		if err := s.publisher.Publish(ctx, reminder); err != nil {
			log.Printf("publish reminder for goal %d failed: %v", g.ID, err)
		}
	}
	if len(due) > 0 {
		log.Printf("published %d goal reminders", len(due))
	}
}
