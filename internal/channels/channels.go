package channels

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nimasrn/repair-desk/internal/model"
)

var (
	// ErrPermanent wraps failures that retrying cannot fix (4xx, bad recipient).
	ErrPermanent = errors.New("permanent delivery failure")
	// ErrNoRecipient means the recipient has no address on the channel.
	ErrNoRecipient        = errors.New("recipient has no address for channel")
	ErrUnsupportedChannel = errors.New("unsupported channel")
	ErrNotConfigured      = errors.New("channel is not configured")
)

// Outbound is a rendered message ready for a channel.
type Outbound struct {
	JobID     string
	Channel   model.Channel
	Recipient model.Recipient
	Subject   string
	Body      string
	HTML      string
	URL       string
}

type Receipt struct {
	ProviderMessageID string
	Status            string
	Delivered         int
	SentAt            time.Time
}

type Sender interface {
	Channel() model.Channel
	Send(ctx context.Context, msg *Outbound) (*Receipt, error)
}

func permanent(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPermanent, fmt.Sprintf(format, args...))
}

func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent)
}

// Registry resolves the sender for a channel.
type Registry struct {
	senders map[model.Channel]Sender
}

func NewRegistry(senders ...Sender) *Registry {
	r := &Registry{senders: make(map[model.Channel]Sender, len(senders))}
	for _, s := range senders {
		if s != nil {
			r.senders[s.Channel()] = s
		}
	}
	return r
}

func (r *Registry) Get(ch model.Channel) (Sender, error) {
	s, ok := r.senders[ch]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedChannel, ch)
	}
	return s, nil
}

func (r *Registry) Channels() []model.Channel {
	out := make([]model.Channel, 0, len(r.senders))
	for ch := range r.senders {
		out = append(out, ch)
	}
	return out
}
