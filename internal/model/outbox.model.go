package model

import (
	"time"
)

type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelPush     Channel = "push"
	ChannelEmail    Channel = "email"
)

type OutboxStatus string

const (
	OutboxPending   OutboxStatus = "pending"
	OutboxPublished OutboxStatus = "published"
)

type OutboxEntry struct {
	ID          int64        `json:"id"`
	JobID       string       `json:"job_id"`
	Channel     Channel      `json:"channel"`
	Payload     []byte       `json:"payload"`
	Status      OutboxStatus `json:"status"`
	Attempts    int          `json:"attempts"`
	LastError   string       `json:"last_error"`
	CreatedAt   time.Time    `json:"created_at"`
	PublishedAt *time.Time   `json:"published_at,omitempty"`
}

// Recipient is the addressee of an external notification.
type Recipient struct {
	UserID *int64 `json:"user_id,omitempty"`
	Name   string `json:"name,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Email  string `json:"email,omitempty"`
}

// NotificationJob is the payload carried from the outbox to the dispatcher.
type NotificationJob struct {
	ID        string            `json:"id"`
	Channel   Channel           `json:"channel"`
	Template  string            `json:"template"`
	Recipient Recipient         `json:"recipient"`
	Data      map[string]string `json:"data"`
	ServiceID *int64            `json:"service_id,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

type DeliveryStatus string

const (
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
	DeliverySkipped DeliveryStatus = "skipped"
)

type Delivery struct {
	ID                int64          `json:"id"`
	JobID             string         `json:"job_id"`
	Channel           Channel        `json:"channel"`
	Recipient         string         `json:"recipient"`
	Status            DeliveryStatus `json:"status"`
	ProviderMessageID string         `json:"provider_message_id"`
	Error             string         `json:"error"`
	AttemptedAt       time.Time      `json:"attempted_at"`
}
