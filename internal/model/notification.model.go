package model

import (
	"errors"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Notification is an in-app alert. A nil UserID addresses every admin.
type Notification struct {
	ID               int64     `json:"id"`
	UserID           *int64    `json:"user_id,omitempty"`
	Type             string    `json:"type"`
	Title            string    `json:"title"`
	Message          string    `json:"message"`
	RelatedServiceID *int64    `json:"related_service_id,omitempty"`
	IsRead           bool      `json:"is_read"`
	Priority         Priority  `json:"priority"`
	CreatedAt        time.Time `json:"created_at"`
}

type NotificationFilter struct {
	UserID       int64
	IncludeAdmin bool
	UnreadOnly   bool
	Limit        int
	Offset       int
}

type BroadcastRequest struct {
	UserIDs  []int64  `json:"user_ids"`
	Role     *Role    `json:"role"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Priority Priority `json:"priority"`
}

func (p BroadcastRequest) Validate() error {
	if p.Title == "" {
		return errors.New("title is required")
	}
	if p.Message == "" {
		return errors.New("message is required")
	}
	if p.Priority != "" && !p.Priority.Valid() {
		return errors.New("priority is invalid")
	}
	return nil
}
