package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/valyala/fasthttp"
)

type WhatsAppConfig struct {
	APIURL        string // e.g. https://graph.facebook.com/v18.0
	PhoneNumberID string
	Token         string
	Timeout       time.Duration
	Dial          fasthttp.DialFunc
}

// WhatsAppSender posts text messages to the WhatsApp Business Cloud API.
// It never retries on its own; the queue owns retries.
type WhatsAppSender struct {
	config WhatsAppConfig
	client *fasthttp.Client
}

type whatsappText struct {
	MessagingProduct string `json:"messaging_product"`
	RecipientType    string `json:"recipient_type"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		PreviewURL bool   `json:"preview_url"`
		Body       string `json:"body"`
	} `json:"text"`
}

type whatsappResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

func NewWhatsAppSender(config WhatsAppConfig) (*WhatsAppSender, error) {
	if config.APIURL == "" || config.PhoneNumberID == "" || config.Token == "" {
		return nil, fmt.Errorf("%w: whatsapp api url, phone number id and token are required", ErrNotConfigured)
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &WhatsAppSender{
		config: config,
		client: &fasthttp.Client{
			ReadTimeout:  config.Timeout,
			WriteTimeout: config.Timeout,
			Dial:         config.Dial,
		},
	}, nil
}

func (s *WhatsAppSender) Channel() model.Channel { return model.ChannelWhatsApp }

func (s *WhatsAppSender) Send(ctx context.Context, msg *Outbound) (*Receipt, error) {
	to := WhatsAppNumber(msg.Recipient.Phone)
	if to == "" {
		return nil, ErrNoRecipient
	}

	payload := whatsappText{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
	}
	payload.Text.Body = msg.Body
	payload.Text.PreviewURL = strings.Contains(msg.Body, "http")
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(strings.TrimRight(s.config.APIURL, "/") + "/" + s.config.PhoneNumberID + "/messages")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.Token)
	req.SetBody(body)

	deadline := time.Now().Add(s.config.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := s.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("whatsapp request failed: %w", err)
	}

	var out whatsappResponse
	_ = json.Unmarshal(resp.Body(), &out)

	status := resp.StatusCode()
	if status >= 400 {
		reason := string(resp.Body())
		if out.Error != nil {
			reason = fmt.Sprintf("%s (code %d)", out.Error.Message, out.Error.Code)
		}
		if status < 500 && status != fasthttp.StatusTooManyRequests {
			return nil, permanent("whatsapp answered %d: %s", status, reason)
		}
		return nil, fmt.Errorf("whatsapp answered %d: %s", status, reason)
	}

	r := &Receipt{Status: "SENT", Delivered: 1, SentAt: time.Now()}
	if len(out.Messages) > 0 {
		r.ProviderMessageID = out.Messages[0].ID
	}
	return r, nil
}

// WhatsAppNumber strips everything but digits; the Cloud API wants the
// international number without the leading plus.
func WhatsAppNumber(phone string) string {
	phone = strings.TrimSpace(phone)
	if strings.HasPrefix(phone, "00") {
		phone = phone[2:]
	}
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
