package model

import (
	"errors"
	"time"
)

// ServiceStatus is the lifecycle state of a repair ticket.
type ServiceStatus string

const (
	StatusPending      ServiceStatus = "pending"
	StatusAssigned     ServiceStatus = "assigned"
	StatusScheduled    ServiceStatus = "scheduled"
	StatusInProgress   ServiceStatus = "in_progress"
	StatusWaitingParts ServiceStatus = "waiting_parts"
	StatusCompleted    ServiceStatus = "completed"
	StatusCancelled    ServiceStatus = "cancelled"
)

var AllStatuses = []ServiceStatus{
	StatusPending,
	StatusAssigned,
	StatusScheduled,
	StatusInProgress,
	StatusWaitingParts,
	StatusCompleted,
	StatusCancelled,
}

func (s ServiceStatus) Valid() bool {
	for _, st := range AllStatuses {
		if s == st {
			return true
		}
	}
	return false
}

func (s ServiceStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// BeforeWork reports whether no technician has started on the ticket yet.
func (s ServiceStatus) BeforeWork() bool {
	return s == StatusPending || s == StatusAssigned || s == StatusScheduled
}

type Service struct {
	ID                int64         `json:"id"`
	ClientID          int64         `json:"client_id"`
	ApplianceID       int64         `json:"appliance_id"`
	TechnicianID      *int64        `json:"technician_id,omitempty"`
	BusinessPartnerID *int64        `json:"business_partner_id,omitempty"`
	Status            ServiceStatus `json:"status"`
	Description       string        `json:"description"`
	ScheduledDate     *time.Time    `json:"scheduled_date,omitempty"`
	CompletedDate     *time.Time    `json:"completed_date,omitempty"`
	Cost              *float64      `json:"cost,omitempty"`
	WarrantyMonths    *int          `json:"warranty_months,omitempty"`
	TechnicianNotes   string        `json:"technician_notes"`
	UsedParts         string        `json:"used_parts"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`

	Client    *Client    `json:"client,omitempty"`
	Appliance *Appliance `json:"appliance,omitempty"`
}

type ServiceCreateRequest struct {
	ClientID      int64      `json:"client_id"`
	ApplianceID   int64      `json:"appliance_id"`
	TechnicianID  *int64     `json:"technician_id"`
	Description   string     `json:"description"`
	ScheduledDate *time.Time `json:"scheduled_date"`
}

func (p ServiceCreateRequest) Validate() error {
	if p.ClientID == 0 {
		return errors.New("client_id is required")
	}
	if p.ApplianceID == 0 {
		return errors.New("appliance_id is required")
	}
	if p.Description == "" {
		return errors.New("description is required")
	}
	return nil
}

// ServiceUpdateRequest is the admin edit of a ticket; nil fields are left untouched.
type ServiceUpdateRequest struct {
	Description     *string    `json:"description"`
	ScheduledDate   *time.Time `json:"scheduled_date"`
	Cost            *float64   `json:"cost"`
	WarrantyMonths  *int       `json:"warranty_months"`
	TechnicianNotes *string    `json:"technician_notes"`
	UsedParts       *string    `json:"used_parts"`
}

type StatusUpdateRequest struct {
	Status         ServiceStatus `json:"status"`
	Notes          *string       `json:"notes"`
	TechnicianID   *int64        `json:"technician_id"`
	Cost           *float64      `json:"cost"`
	WarrantyMonths *int          `json:"warranty_months"`
	UsedParts      *string       `json:"used_parts"`
}

func (p StatusUpdateRequest) Validate() error {
	if !p.Status.Valid() {
		return errors.New("status is invalid")
	}
	if p.Cost != nil && *p.Cost < 0 {
		return errors.New("cost must not be negative")
	}
	if p.WarrantyMonths != nil && *p.WarrantyMonths < 0 {
		return errors.New("warranty_months must not be negative")
	}
	return nil
}

type AssignRequest struct {
	TechnicianID  int64      `json:"technician_id"`
	ScheduledDate *time.Time `json:"scheduled_date"`
}

func (p AssignRequest) Validate() error {
	if p.TechnicianID == 0 {
		return errors.New("technician_id is required")
	}
	return nil
}

// ServiceFilter controls List queries.
type ServiceFilter struct {
	Statuses          []ServiceStatus
	TechnicianID      *int64
	ClientID          *int64
	ClientUserID      *int64
	BusinessPartnerID *int64
	From              *time.Time
	To                *time.Time
	Limit             int
	Offset            int
	Desc              bool
}

// IntegrityIssue is a row pointing at a missing parent.
type IntegrityIssue struct {
	Table    string `json:"table"`
	ID       int64  `json:"id"`
	Column   string `json:"column"`
	MissedID int64  `json:"missing_id"`
}

type IntegrityReport struct {
	CheckedAt          time.Time        `json:"checked_at"`
	OrphanedServices   []IntegrityIssue `json:"orphaned_services"`
	OrphanedAppliances []IntegrityIssue `json:"orphaned_appliances"`
}

func (r *IntegrityReport) OK() bool {
	return len(r.OrphanedServices) == 0 && len(r.OrphanedAppliances) == 0
}
