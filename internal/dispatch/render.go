package dispatch

import (
	"fmt"

	"github.com/nimasrn/repair-desk/internal/channels"
	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/internal/templates"
	"github.com/nimasrn/repair-desk/pkg/logger"
)

// Render turns a job into the channel specific outbound message.
func Render(job *model.NotificationJob) (*channels.Outbound, error) {
	out := &channels.Outbound{
		JobID:     job.ID,
		Channel:   job.Channel,
		Recipient: job.Recipient,
	}

	switch job.Channel {
	case model.ChannelSMS:
		sms, err := templates.GenerateSMS(job.Template, job.Data)
		if err != nil {
			return nil, err
		}
		if sms.Truncated {
			logger.Warn("sms body truncated", "job_id", job.ID, "template", job.Template, "length", sms.Length, "limit", sms.Limit)
		}
		out.Body = sms.Body
	case model.ChannelWhatsApp:
		body, err := templates.GenerateWhatsApp(job.Template, job.Data)
		if err != nil {
			return nil, err
		}
		out.Body = body
	case model.ChannelEmail:
		email, err := templates.GenerateEmail(job.Template, job.Data)
		if err != nil {
			return nil, err
		}
		out.Subject, out.Body, out.HTML = email.Subject, email.Text, email.HTML
	case model.ChannelPush:
		push, err := templates.GeneratePush(job.Template, job.Data)
		if err != nil {
			return nil, err
		}
		out.Subject, out.Body, out.URL = push.Title, push.Body, push.URL
	default:
		return nil, fmt.Errorf("%w: %s", channels.ErrUnsupportedChannel, job.Channel)
	}
	return out, nil
}

// recipientAddress is what the delivery row shows as the addressee.
func recipientAddress(job *model.NotificationJob) string {
	switch job.Channel {
	case model.ChannelSMS, model.ChannelWhatsApp:
		return job.Recipient.Phone
	case model.ChannelEmail:
		return job.Recipient.Email
	case model.ChannelPush:
		if job.Recipient.UserID != nil {
			return fmt.Sprintf("user:%d", *job.Recipient.UserID)
		}
	}
	return job.Recipient.Name
}
