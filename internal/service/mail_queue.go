package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"equiprent-backend/internal/logger"

	"github.com/segmentio/ksuid"
)

type mailJob struct {
	id      string
	to      string
	toName  string
	subject string
	body    string
	retries int
}

// MailQueue is a MailSender that hands messages to background workers and
// retries failed deliveries with quadratic backoff. Send only fails when the
// queue is full.
type MailQueue struct {
	sender     MailSender
	jobs       chan mailJob
	workers    int
	maxRetries int
	backoff    time.Duration

	wg sync.WaitGroup
}

func NewMailQueue(sender MailSender, workers, queueSize, maxRetries int) *MailQueue {
	if workers <= 0 {
		workers = 1
	}
	return &MailQueue{
		sender:     sender,
		jobs:       make(chan mailJob, queueSize),
		workers:    workers,
		maxRetries: maxRetries,
		backoff:    time.Second,
	}
}

// Start launches the workers. They exit when ctx is done; Wait blocks until then.
func (q *MailQueue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}
}

func (q *MailQueue) Wait() {
	q.wg.Wait()
}

func (q *MailQueue) Send(ctx context.Context, to, toName, subject, body string) error {
	job := mailJob{id: ksuid.New().String(), to: to, toName: toName, subject: subject, body: body}
	if !q.enqueue(job) {
		return fmt.Errorf("email queue is full")
	}
	return nil
}

func (q *MailQueue) enqueue(job mailJob) bool {
	select {
	case q.jobs <- job:
		return true
	default:
		return false
	}
}

func (q *MailQueue) worker(ctx context.Context, id int) {
	defer q.wg.Done()
	logger.Debug("Email worker started", "worker", id)
	for {
		select {
		case <-ctx.Done():
			logger.Debug("Email worker stopping", "worker", id)
			return
		case job := <-q.jobs:
			q.process(ctx, job)
		}
	}
}

func (q *MailQueue) process(ctx context.Context, job mailJob) {
	err := q.sender.Send(ctx, job.to, job.toName, job.subject, job.body)
	if err == nil {
		logger.Debug("Email sent", "id", job.id, "to", job.to)
		return
	}
	if job.retries >= q.maxRetries {
		logger.Error("Email dropped after retries", "id", job.id, "to", job.to, "retries", job.retries, "error", err)
		return
	}

	job.retries++
	delay := time.Duration(job.retries*job.retries) * q.backoff
	logger.Warn("Email failed, retrying", "id", job.id, "to", job.to, "attempt", job.retries, "delay", delay, "error", err)
	time.AfterFunc(delay, func() {
		if ctx.Err() != nil {
			return
		}
		if !q.enqueue(job) {
			logger.Error("Email dropped, queue full on retry", "id", job.id, "to", job.to)
		}
	})
}
