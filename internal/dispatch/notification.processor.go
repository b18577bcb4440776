package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nimasrn/repair-desk/internal/channels"
	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/internal/queue"
	"github.com/nimasrn/repair-desk/pkg/logger"
	"github.com/nimasrn/repair-desk/pkg/prom"
)

type DeliveryRepository interface {
	Create(ctx context.Context, d *model.Delivery) (*model.Delivery, error)
}

type SenderRegistry interface {
	Get(ch model.Channel) (channels.Sender, error)
}

// NotificationProcessor renders a queued job, sends it over its channel and
// records the attempt.
type NotificationProcessor struct {
	senders     SenderRegistry
	deliveries  DeliveryRepository
	idempotency *IdempotencyService
	log         *logger.ZapLogger
}

func NewNotificationProcessor(senders SenderRegistry, deliveries DeliveryRepository, idempotency *IdempotencyService) *NotificationProcessor {
	return &NotificationProcessor{
		senders:     senders,
		deliveries:  deliveries,
		idempotency: idempotency,
		log:         logger.Named("notification-processor"),
	}
}

func (p *NotificationProcessor) GetType() string {
	return "notification"
}

// Process returns nil to ack, queue.Permanent to dead-letter, any other error to retry.
func (p *NotificationProcessor) Process(ctx context.Context, msg *queue.Message) error {
	var job model.NotificationJob
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		p.log.Error("failed to decode job", "stream_id", msg.ID, "error", err)
		return queue.Permanent(fmt.Errorf("decode job: %w", err))
	}
	if job.ID == "" {
		return queue.Permanent(errors.New("job without id"))
	}

	procCtx, err := p.idempotency.AcquireProcessingLock(ctx, job.ID)
	switch {
	case err == nil:
	case errors.Is(err, ErrAlreadyProcessed):
		p.log.Info("job already processed, skipping", "job_id", job.ID)
		return nil
	case errors.Is(err, ErrMaxRetriesExceeded):
		p.record(ctx, &job, model.DeliveryFailed, nil, err)
		return queue.Permanent(err)
	default:
		// another consumer holds the lock or redis hiccuped
		return err
	}
	defer func() {
		_ = p.idempotency.ReleaseLock(ctx, procCtx)
	}()

	out, err := Render(&job)
	if err != nil {
		p.record(ctx, &job, model.DeliveryFailed, nil, err)
		_ = p.idempotency.MarkSuccess(ctx, procCtx)
		return queue.Permanent(fmt.Errorf("render %s/%s: %w", job.Channel, job.Template, err))
	}

	sender, err := p.senders.Get(job.Channel)
	if err != nil {
		p.record(ctx, &job, model.DeliveryFailed, nil, err)
		_ = p.idempotency.MarkSuccess(ctx, procCtx)
		return queue.Permanent(err)
	}

	start := time.Now()
	receipt, err := sender.Send(ctx, out)
	elapsed := time.Since(start).Seconds()

	switch {
	case err == nil:
		p.log.Info("notification sent", "job_id", job.ID, "channel", job.Channel, "template", job.Template, "provider_id", receipt.ProviderMessageID)
		prom.AddNotificationSent(string(job.Channel), string(model.DeliverySent), elapsed)
		p.record(ctx, &job, model.DeliverySent, receipt, nil)
		if markErr := p.idempotency.MarkSuccess(ctx, procCtx); markErr != nil {
			p.log.Error("failed to mark success", "job_id", job.ID, "error", markErr)
		}
		return nil

	case errors.Is(err, channels.ErrNoRecipient):
		p.log.Info("notification skipped, no address", "job_id", job.ID, "channel", job.Channel)
		prom.AddNotificationSent(string(job.Channel), string(model.DeliverySkipped), elapsed)
		p.record(ctx, &job, model.DeliverySkipped, nil, err)
		_ = p.idempotency.MarkSuccess(ctx, procCtx)
		return nil

	case channels.IsPermanent(err):
		p.log.Warn("notification rejected", "job_id", job.ID, "channel", job.Channel, "error", err)
		prom.AddNotificationSent(string(job.Channel), string(model.DeliveryFailed), elapsed)
		p.record(ctx, &job, model.DeliveryFailed, nil, err)
		_ = p.idempotency.MarkSuccess(ctx, procCtx)
		return queue.Permanent(err)

	default:
		prom.AddNotificationSent(string(job.Channel), string(model.DeliveryFailed), elapsed)
		p.record(ctx, &job, model.DeliveryFailed, nil, err)
		if markErr := p.idempotency.MarkFailure(ctx, procCtx, err); markErr != nil {
			p.log.Error("failed to mark failure", "job_id", job.ID, "error", markErr)
		}
		return err
	}
}

// record never fails the job; a lost delivery row is only logged.
func (p *NotificationProcessor) record(ctx context.Context, job *model.NotificationJob, status model.DeliveryStatus, receipt *channels.Receipt, cause error) {
	d := &model.Delivery{
		JobID:       job.ID,
		Channel:     job.Channel,
		Recipient:   recipientAddress(job),
		Status:      status,
		AttemptedAt: time.Now(),
	}
	if receipt != nil {
		d.ProviderMessageID = receipt.ProviderMessageID
	}
	if cause != nil {
		d.Error = cause.Error()
	}
	if _, err := p.deliveries.Create(ctx, d); err != nil {
		p.log.Error("failed to save delivery", "job_id", job.ID, "status", status, "error", err)
	}
}
