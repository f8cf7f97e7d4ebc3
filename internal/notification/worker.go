package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog/log"

	"carboncue-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// SubscriptionStore is the part of the store the workers need.
type SubscriptionStore interface {
	ListPushSubscriptions(ctx context.Context, userID string) ([]model.PushSubscription, error)
	DeletePushSubscriptionByEndpoint(ctx context.Context, endpoint string) error
}

// Job asks the pool to tell a user they went over their daily budget.
type Job struct {
	UserID   string
	Day      time.Time
	TotalKg  float64
	BudgetKg float64
}

// Message is the JSON payload delivered to the browser.
type Message struct {
	Title    string  `json:"title"`
	Body     string  `json:"body"`
	Day      string  `json:"day"`
	TotalKg  float64 `json:"totalKg"`
	BudgetKg float64 `json:"budgetKg"`
}

// NewMessage renders the budget alert for a job.
func NewMessage(job Job) Message {
	return Message{
		Title:    "Daily carbon budget exceeded",
		Body:     fmt.Sprintf("You have logged %.2f kg CO2e today, above your %.2f kg budget.", job.TotalKg, job.BudgetKg),
		Day:      job.Day.UTC().Format(time.DateOnly),
		TotalKg:  job.TotalKg,
		BudgetKg: job.BudgetKg,
	}
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan Job
	store   SubscriptionStore
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, store SubscriptionStore, webpushOptions *webpush.Options) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Job, size*16), // Buffered channel
		store:   store,
		webpush: webpushOptions,
		sender:  &WebPushSender{}, // Use the real sender by default
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Debug().Int("worker", id).Msg("notification worker started")
	for {
		select {
		case job := <-wp.jobs:
			log.Debug().Int("worker", id).Str("user", job.UserID).Msg("processing budget alert")
			wp.sendNotificationsForUser(ctx, job)
		case <-ctx.Done():
			log.Debug().Int("worker", id).Msg("notification worker shutting down")
			return
		}
	}
}

// Dispatch queues a job without blocking. It reports false when the queue is
// full and the job was dropped.
func (wp *WorkerPool) Dispatch(job Job) bool {
	select {
	case wp.jobs <- job:
		return true
	default:
		log.Warn().Str("user", job.UserID).Msg("notification queue full, dropping budget alert")
		return false
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Job {
	return wp.jobs
}

// sendNotificationsForUser sends the alert to every subscription of the user.
func (wp *WorkerPool) sendNotificationsForUser(ctx context.Context, job Job) {
	subscriptions, err := wp.store.ListPushSubscriptions(ctx, job.UserID)
	if err != nil {
		log.Error().Err(err).Str("user", job.UserID).Msg("error fetching subscriptions")
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(NewMessage(job))
	if err != nil {
		log.Error().Err(err).Msg("error encoding notification payload")
		return
	}

	log.Info().Int("subscriptions", len(subscriptions)).Str("user", job.UserID).Msg("sending budget alerts")
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	// Manually construct the webpush.Subscription object
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Warn().Err(err).Str("endpoint", sub.Endpoint).Msg("error sending notification")
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		log.Info().Str("endpoint", sub.Endpoint).Msg("subscription expired, deleting")
		if err := wp.store.DeletePushSubscriptionByEndpoint(ctx, sub.Endpoint); err != nil {
			log.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("failed to delete expired subscription")
		}
	}
}
