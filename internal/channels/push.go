package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/pkg/logger"
)

type PushSubscriptionStore interface {
	ListByUser(ctx context.Context, userID int64) ([]*model.PushSubscription, error)
	DeleteStale(ctx context.Context, endpoint string) error
}

type PushConfig struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subject         string // mailto: or https: contact
	TTL             int
	// HTTPClient is optional; webpush uses http.DefaultClient when nil.
	HTTPClient webpush.HTTPClient
}

// PushSender fans a message out to every browser subscription of a user.
type PushSender struct {
	config PushConfig
	store  PushSubscriptionStore
	log    *logger.ZapLogger
}

type pushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

func NewPushSender(config PushConfig, store PushSubscriptionStore) (*PushSender, error) {
	if config.VAPIDPublicKey == "" || config.VAPIDPrivateKey == "" {
		return nil, fmt.Errorf("%w: vapid keys are required", ErrNotConfigured)
	}
	if config.TTL <= 0 {
		config.TTL = 24 * 60 * 60
	}
	return &PushSender{config: config, store: store, log: logger.Named("push")}, nil
}

func (s *PushSender) Channel() model.Channel { return model.ChannelPush }

func (s *PushSender) PublicKey() string { return s.config.VAPIDPublicKey }

func (s *PushSender) Send(ctx context.Context, msg *Outbound) (*Receipt, error) {
	if msg.Recipient.UserID == nil {
		return nil, ErrNoRecipient
	}
	subs, err := s.store.ListByUser(ctx, *msg.Recipient.UserID)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return nil, ErrNoRecipient
	}

	payload, err := json.Marshal(pushPayload{Title: msg.Subject, Body: msg.Body, URL: msg.URL, Tag: msg.JobID})
	if err != nil {
		return nil, err
	}

	delivered := 0
	var lastErr error
	for _, sub := range subs {
		err := s.sendOne(ctx, payload, sub)
		switch {
		case err == nil:
			delivered++
		case IsPermanent(err):
			s.log.Info("removing stale push subscription", "user_id", sub.UserID, "endpoint", sub.Endpoint, "error", err)
			if delErr := s.store.DeleteStale(ctx, sub.Endpoint); delErr != nil {
				s.log.Warn("failed to delete stale subscription", "endpoint", sub.Endpoint, "error", delErr)
			}
		default:
			lastErr = err
		}
	}

	if delivered == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, permanent("all push subscriptions of user %d are gone", *msg.Recipient.UserID)
	}
	return &Receipt{Status: "SENT", Delivered: delivered, SentAt: time.Now()}, nil
}

func (s *PushSender) sendOne(ctx context.Context, payload []byte, sub *model.PushSubscription) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys:     webpush.Keys{P256dh: sub.P256dh, Auth: sub.Auth},
	}, &webpush.Options{
		HTTPClient:      s.config.HTTPClient,
		Subscriber:      s.config.Subject,
		VAPIDPublicKey:  s.config.VAPIDPublicKey,
		VAPIDPrivateKey: s.config.VAPIDPrivateKey,
		TTL:             s.config.TTL,
		Urgency:         webpush.UrgencyHigh,
	})
	if err != nil {
		return fmt.Errorf("web push: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return permanent("push endpoint answered %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("push endpoint answered %d", resp.StatusCode)
	}
	return nil
}
