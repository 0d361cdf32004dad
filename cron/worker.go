package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"courtbook/config"
	"courtbook/models"
)

const TypeReminderSend = "reminder:send"

// ReminderPayload is the queued reminder task body.
type ReminderPayload struct {
	BookingID string `json:"bookingId"`
	UserID    string `json:"userId"`
	Resource  string `json:"resource"`
	Date      string `json:"date"`
	Hour      int    `json:"hour"`
}

// Notifier delivers the reminder text to a user over the chat transport.
type Notifier interface {
	NotifyUser(ctx context.Context, userID, text string) error
}

// Scheduler enqueues booking reminders; it implements
// booking.ReminderScheduler over the asynq queue.
type Scheduler struct {
	client   *asynq.Client
	lead     time.Duration
	location *time.Location
}

// NewScheduler builds a reminder scheduler from configuration. lead is how
// long before the slot the reminder fires.
func NewScheduler(lead time.Duration, loc *time.Location) *Scheduler {
	return &Scheduler{
		client:   asynq.NewClient(redisOpts()),
		lead:     lead,
		location: loc,
	}
}

// Schedule enqueues one reminder to fire before the booked slot starts.
// Bookings already closer than the lead time get no reminder.
func (s *Scheduler) Schedule(ctx context.Context, record models.BookingRecord) error {
	fireAt := record.Start(s.location).Add(-s.lead)
	if !fireAt.After(time.Now()) {
		return nil
	}

	payload, err := json.Marshal(ReminderPayload{
		BookingID: record.ID,
		UserID:    record.UserID,
		Resource:  record.Resource,
		Date:      record.DateString(),
		Hour:      record.Hour,
	})
	if err != nil {
		return fmt.Errorf("marshal reminder payload: %w", err)
	}

	task := asynq.NewTask(TypeReminderSend, payload)
	if _, err := s.client.EnqueueContext(ctx, task, asynq.ProcessAt(fireAt)); err != nil {
		return fmt.Errorf("enqueue reminder: %w", err)
	}
	return nil
}

// InitReminderWorker runs the async worker in background.
func InitReminderWorker(notifier Notifier, registry *models.ResourceRegistry) {
	srv := asynq.NewServer(
		redisOpts(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeReminderSend, handleReminderTask(notifier, registry))

	// Start async worker with retry logic
	go func() {
		log.Println("[ReminderWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[ReminderWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[ReminderWorker] max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

func handleReminderTask(notifier Notifier, registry *models.ResourceRegistry) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[ReminderHandler] invalid payload: %v", err)
			return err
		}

		name := p.Resource
		if res, ok := registry.ByKey(p.Resource); ok {
			name = res.Name
		}
		text := fmt.Sprintf("⏰ Reminder: your %s slot starts at %d:00 on %s.", name, p.Hour, p.Date)

		if err := notifier.NotifyUser(ctx, p.UserID, text); err != nil {
			log.Printf("[ReminderHandler] failed to send reminder: %v", err)
			return err
		}
		return nil
	}
}

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderQueueDB,
	}
}
