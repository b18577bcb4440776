package dispatch

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/repair-desk/internal/channels"
	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/internal/queue"
	"github.com/nimasrn/repair-desk/internal/templates"
	"github.com/nimasrn/repair-desk/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	t.Helper()
	mr := miniredis.RunT(t)

	// unique connection name, adapters are cached by name
	adapter, err := redis.NewRedisAdapter(t.Name()+"-"+mr.Addr(), "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)
	return mr, adapter
}

type fakeSender struct {
	mu      sync.Mutex
	channel model.Channel
	sent    []*channels.Outbound
	err     error
}

func (f *fakeSender) Channel() model.Channel { return f.channel }

func (f *fakeSender) Send(ctx context.Context, msg *channels.Outbound) (*channels.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, msg)
	return &channels.Receipt{ProviderMessageID: "prov-" + msg.JobID, Status: "SENT", Delivered: 1, SentAt: time.Now()}, nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type memDeliveries struct {
	mu   sync.Mutex
	rows []*model.Delivery
}

func (m *memDeliveries) Create(ctx context.Context, d *model.Delivery) (*model.Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, d)
	return d, nil
}

func (m *memDeliveries) all() []*model.Delivery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.Delivery(nil), m.rows...)
}

func smsJob(id string) *model.NotificationJob {
	return &model.NotificationJob{
		ID:        id,
		Channel:   model.ChannelSMS,
		Template:  templates.KeyServiceCreated,
		Recipient: model.Recipient{Name: "Ana", Phone: "+38160111222"},
		Data: map[string]string{
			"customer_name": "Ana",
			"service_id":    "42",
			"appliance":     "Bosch washing machine",
			"company_name":  "Repair Desk",
			"company_phone": "+381111234",
		},
		CreatedAt: time.Now(),
	}
}

func jobMessage(t *testing.T, job *model.NotificationJob) *queue.Message {
	t.Helper()
	data, err := json.Marshal(job)
	require.NoError(t, err)
	return &queue.Message{ID: "1-0", Data: data, Metadata: map[string]string{}}
}

func channelsRegistry(senders ...channels.Sender) *channels.Registry {
	return channels.NewRegistry(senders...)
}
