package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/repair-desk/internal/channels"
	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/internal/templates"
)

type event string

const (
	eventCreated      event = "created"
	eventAssigned     event = "assigned"
	eventScheduled    event = "scheduled"
	eventInProgress   event = "in_progress"
	eventWaitingParts event = "waiting_parts"
	eventCompleted    event = "completed"
	eventCancelled    event = "cancelled"
)

func statusEvent(s model.ServiceStatus) (event, bool) {
	switch s {
	case model.StatusAssigned:
		return eventAssigned, true
	case model.StatusScheduled:
		return eventScheduled, true
	case model.StatusInProgress:
		return eventInProgress, true
	case model.StatusWaitingParts:
		return eventWaitingParts, true
	case model.StatusCompleted:
		return eventCompleted, true
	case model.StatusCancelled:
		return eventCancelled, true
	}
	return "", false
}

// ticket bundles the rows a notification plan reads.
type ticket struct {
	service    *model.Service
	client     *model.Client
	appliance  *model.Appliance
	technician *model.User
	partner    *model.User
}

// Planner turns a ticket event into in-app notification rows and outbound
// jobs for the outbox.
type Planner struct {
	CompanyName  string
	CompanyPhone string
	Suppliers    channels.SupplierRouter

	now func() time.Time
}

func NewPlanner(companyName, companyPhone string, suppliers channels.SupplierRouter) *Planner {
	return &Planner{
		CompanyName:  companyName,
		CompanyPhone: companyPhone,
		Suppliers:    suppliers,
		now:          time.Now,
	}
}

type plan struct {
	notifications []*model.Notification
	jobs          []*model.NotificationJob
}

func (p *plan) notify(userID *int64, kind, title, message string, priority model.Priority, serviceID int64) {
	p.notifications = append(p.notifications, &model.Notification{
		UserID:           userID,
		Type:             kind,
		Title:            title,
		Message:          message,
		RelatedServiceID: int64Ptr(serviceID),
		Priority:         priority,
	})
}

func (p *plan) merge(o plan) {
	p.notifications = append(p.notifications, o.notifications...)
	p.jobs = append(p.jobs, o.jobs...)
}

func (p *plan) empty() bool {
	return len(p.notifications) == 0 && len(p.jobs) == 0
}

// outboxEntries serialises every job into a pending outbox row.
func (p *plan) outboxEntries() ([]*model.OutboxEntry, error) {
	entries := make([]*model.OutboxEntry, 0, len(p.jobs))
	for _, job := range p.jobs {
		payload, err := json.Marshal(job)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal job %s: %w", job.ID, err)
		}
		entries = append(entries, &model.OutboxEntry{
			JobID:   job.ID,
			Channel: job.Channel,
			Payload: payload,
			Status:  model.OutboxPending,
		})
	}
	return entries, nil
}

func (pl *Planner) job(ch model.Channel, template string, to model.Recipient, data map[string]string, serviceID *int64) *model.NotificationJob {
	return &model.NotificationJob{
		ID:        uuid.NewString(),
		Channel:   ch,
		Template:  template,
		Recipient: to,
		Data:      data,
		ServiceID: serviceID,
		CreatedAt: pl.now().UTC(),
	}
}

// Plan follows the channel table: customers hear about every step by SMS,
// technicians by push, suppliers by email and admins in-app.
func (pl *Planner) Plan(ev event, t *ticket) plan {
	var out plan
	data := pl.data(t)
	svcID := int64Ptr(t.service.ID)
	customer := customerRecipient(t.client)
	label := applianceLabel(t.appliance)

	sms := func(key string, to model.Recipient) {
		out.jobs = append(out.jobs, pl.job(model.ChannelSMS, key, to, data, svcID))
	}
	push := func(key string, to *model.User) {
		if to == nil {
			return
		}
		out.jobs = append(out.jobs, pl.job(model.ChannelPush, key, userRecipient(to), data, svcID))
	}

	switch ev {
	case eventCreated:
		sms(templates.KeyServiceCreated, customer)
		out.notify(nil, "service_created", "New service",
			fmt.Sprintf("Service #%d: %s for %s", t.service.ID, label, t.client.FullName),
			model.PriorityNormal, t.service.ID)

	case eventAssigned:
		sms(templates.KeyTechnicianAssigned, customer)
		if t.technician != nil {
			push(templates.KeyJobAssigned, t.technician)
			sms(templates.KeyJobAssigned, userRecipient(t.technician))
			out.notify(int64Ptr(t.technician.ID), "service_assigned", "New job assigned",
				fmt.Sprintf("Service #%d: %s at %s", t.service.ID, label, clientAddress(t.client)),
				model.PriorityNormal, t.service.ID)
		}

	case eventScheduled:
		sms(templates.KeyServiceScheduled, customer)
		out.jobs = append(out.jobs, pl.job(model.ChannelWhatsApp, templates.KeyServiceScheduled, customer, data, svcID))
		if t.technician != nil {
			push(templates.KeyServiceScheduled, t.technician)
			out.notify(int64Ptr(t.technician.ID), "service_scheduled", "Job scheduled",
				fmt.Sprintf("Service #%d on %s at %s", t.service.ID, data["date"], data["time"]),
				model.PriorityNormal, t.service.ID)
		}

	case eventInProgress:
		sms(templates.KeyTechnicianOnWay, customer)

	case eventWaitingParts:
		sms(templates.KeyWaitingParts, customer)
		manufacturer := data["manufacturer"]
		supplier := pl.Suppliers.Route(manufacturer)
		supplierData := withValue(data, "supplier_name", supplier.Name)
		out.jobs = append(out.jobs, pl.job(model.ChannelEmail, templates.KeyPartsRequest,
			model.Recipient{Name: supplier.Name, Email: supplier.Email}, supplierData, svcID))
		out.notify(nil, "waiting_parts", "Service waiting for parts",
			fmt.Sprintf("Service #%d (%s): parts requested from %s", t.service.ID, label, supplier.Name),
			model.PriorityHigh, t.service.ID)

	case eventCompleted:
		sms(templates.KeyServiceCompleted, customer)
		out.jobs = append(out.jobs, pl.job(model.ChannelEmail, templates.KeyServiceCompleted, customer, data, svcID))
		out.notify(nil, "service_completed", "Service completed",
			fmt.Sprintf("Service #%d for %s completed, cost %s EUR", t.service.ID, t.client.FullName, data["cost"]),
			model.PriorityNormal, t.service.ID)
		if t.partner != nil {
			out.notify(int64Ptr(t.partner.ID), "service_completed", "Service completed",
				fmt.Sprintf("Service #%d for %s is completed", t.service.ID, t.client.FullName),
				model.PriorityNormal, t.service.ID)
			out.jobs = append(out.jobs, pl.job(model.ChannelEmail, templates.KeyPartnerServiceCompleted,
				userRecipient(t.partner), data, svcID))
		}

	case eventCancelled:
		sms(templates.KeyServiceCancelled, customer)
		push(templates.KeyServiceCancelled, t.technician)
		out.notify(nil, "service_cancelled", "Service cancelled",
			fmt.Sprintf("Service #%d for %s was cancelled", t.service.ID, t.client.FullName),
			model.PriorityNormal, t.service.ID)
	}
	return out
}

func (pl *Planner) data(t *ticket) map[string]string {
	s := t.service
	d := map[string]string{
		"company_name":     pl.CompanyName,
		"company_phone":    pl.CompanyPhone,
		"service_id":       strconv.FormatInt(s.ID, 10),
		"appliance":        applianceLabel(t.appliance),
		"technician_notes": s.TechnicianNotes,
		"parts":            s.UsedParts,
		"warranty_months":  "0",
	}
	if d["parts"] == "" {
		d["parts"] = s.Description
	}
	if t.client != nil {
		d["customer_name"] = t.client.FullName
		d["customer_phone"] = t.client.Phone
		d["client_address"] = clientAddress(t.client)
	}
	if t.appliance != nil {
		d["model"] = t.appliance.Model
		d["serial_number"] = t.appliance.SerialNumber
		if t.appliance.Manufacturer != nil {
			d["manufacturer"] = t.appliance.Manufacturer.Name
		}
	}
	if t.technician != nil {
		d["technician_name"] = t.technician.FullName
	}
	if t.partner != nil {
		d["partner_name"] = t.partner.FullName
	}
	if s.ScheduledDate != nil {
		d["date"] = s.ScheduledDate.Format("02.01.2006")
		d["time"] = s.ScheduledDate.Format("15:04")
	}
	if s.CompletedDate != nil {
		d["completed_date"] = s.CompletedDate.Format("02.01.2006")
	}
	if s.Cost != nil {
		d["cost"] = strconv.FormatFloat(*s.Cost, 'f', 2, 64)
	}
	if s.WarrantyMonths != nil {
		d["warranty_months"] = strconv.Itoa(*s.WarrantyMonths)
	}
	return d
}

func withValue(data map[string]string, key, value string) map[string]string {
	out := make(map[string]string, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	out[key] = value
	return out
}

func customerRecipient(c *model.Client) model.Recipient {
	if c == nil {
		return model.Recipient{}
	}
	return model.Recipient{UserID: c.UserID, Name: c.FullName, Phone: c.Phone, Email: c.Email}
}

func userRecipient(u *model.User) model.Recipient {
	return model.Recipient{UserID: int64Ptr(u.ID), Name: u.FullName, Phone: u.Phone, Email: u.Email}
}

// applianceLabel reads like "Bosch washing machine".
func applianceLabel(a *model.Appliance) string {
	if a == nil {
		return "appliance"
	}
	var parts []string
	if a.Manufacturer != nil && a.Manufacturer.Name != "" {
		parts = append(parts, a.Manufacturer.Name)
	}
	if a.Category != nil && a.Category.Name != "" {
		parts = append(parts, strings.ToLower(a.Category.Name))
	} else if a.Model != "" {
		parts = append(parts, a.Model)
	}
	if len(parts) == 0 {
		return "appliance"
	}
	return strings.Join(parts, " ")
}

func clientAddress(c *model.Client) string {
	if c == nil {
		return ""
	}
	if c.City == "" {
		return c.Address
	}
	if c.Address == "" {
		return c.City
	}
	return c.Address + ", " + c.City
}
