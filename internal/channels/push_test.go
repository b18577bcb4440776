package channels

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePushEndpoint struct {
	mu       sync.Mutex
	statuses map[string]int
	calls    []string
}

func (f *fakePushEndpoint) Do(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	endpoint := req.URL.String()
	f.calls = append(f.calls, endpoint)
	status, ok := f.statuses[endpoint]
	if !ok {
		status = http.StatusCreated
	}
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(""))}, nil
}

type memSubscriptions struct {
	subs    []*model.PushSubscription
	deleted []string
}

func (m *memSubscriptions) ListByUser(ctx context.Context, userID int64) ([]*model.PushSubscription, error) {
	var out []*model.PushSubscription
	for _, s := range m.subs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSubscriptions) DeleteStale(ctx context.Context, endpoint string) error {
	m.deleted = append(m.deleted, endpoint)
	return nil
}

func browserSubscription(t *testing.T, userID int64, endpoint string) *model.PushSubscription {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	secret := make([]byte, 16)
	_, err = rand.Read(secret)
	require.NoError(t, err)
	return &model.PushSubscription{
		UserID:   userID,
		Endpoint: endpoint,
		P256dh:   base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		Auth:     base64.RawURLEncoding.EncodeToString(secret),
	}
}

func newPushSender(t *testing.T, endpoint *fakePushEndpoint, store PushSubscriptionStore) *PushSender {
	t.Helper()
	private, public, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)
	s, err := NewPushSender(PushConfig{
		VAPIDPublicKey:  public,
		VAPIDPrivateKey: private,
		Subject:         "mailto:desk@repair.test",
		HTTPClient:      endpoint,
	}, store)
	require.NoError(t, err)
	return s
}

func TestPushSender_SendToEverySubscription(t *testing.T) {
	userID := int64(7)
	store := &memSubscriptions{subs: []*model.PushSubscription{
		browserSubscription(t, userID, "https://push.test/a"),
		browserSubscription(t, userID, "https://push.test/b"),
		browserSubscription(t, 8, "https://push.test/other"),
	}}
	endpoint := &fakePushEndpoint{}

	s := newPushSender(t, endpoint, store)
	receipt, err := s.Send(context.Background(), &Outbound{
		JobID:     "job-1",
		Recipient: model.Recipient{UserID: &userID},
		Subject:   "New job",
		Body:      "Service #3 assigned to you",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, receipt.Delivered)
	assert.ElementsMatch(t, []string{"https://push.test/a", "https://push.test/b"}, endpoint.calls)
	assert.Empty(t, store.deleted)
}

func TestPushSender_GoneSubscriptionIsDeleted(t *testing.T) {
	userID := int64(7)
	store := &memSubscriptions{subs: []*model.PushSubscription{
		browserSubscription(t, userID, "https://push.test/live"),
		browserSubscription(t, userID, "https://push.test/gone"),
	}}
	endpoint := &fakePushEndpoint{statuses: map[string]int{"https://push.test/gone": http.StatusGone}}

	s := newPushSender(t, endpoint, store)
	receipt, err := s.Send(context.Background(), &Outbound{Recipient: model.Recipient{UserID: &userID}, Body: "x"})
	require.NoError(t, err)
	assert.Equal(t, 1, receipt.Delivered)
	assert.Equal(t, []string{"https://push.test/gone"}, store.deleted)
}

func TestPushSender_Failures(t *testing.T) {
	userID := int64(7)

	t.Run("no subscriptions", func(t *testing.T) {
		s := newPushSender(t, &fakePushEndpoint{}, &memSubscriptions{})
		_, err := s.Send(context.Background(), &Outbound{Recipient: model.Recipient{UserID: &userID}})
		assert.ErrorIs(t, err, ErrNoRecipient)
	})

	t.Run("server error is transient", func(t *testing.T) {
		store := &memSubscriptions{subs: []*model.PushSubscription{browserSubscription(t, userID, "https://push.test/a")}}
		endpoint := &fakePushEndpoint{statuses: map[string]int{"https://push.test/a": http.StatusServiceUnavailable}}
		_, err := newPushSender(t, endpoint, store).Send(context.Background(), &Outbound{Recipient: model.Recipient{UserID: &userID}})
		require.Error(t, err)
		assert.False(t, IsPermanent(err))
		assert.Empty(t, store.deleted)
	})

	t.Run("every subscription gone", func(t *testing.T) {
		store := &memSubscriptions{subs: []*model.PushSubscription{browserSubscription(t, userID, "https://push.test/a")}}
		endpoint := &fakePushEndpoint{statuses: map[string]int{"https://push.test/a": http.StatusNotFound}}
		_, err := newPushSender(t, endpoint, store).Send(context.Background(), &Outbound{Recipient: model.Recipient{UserID: &userID}})
		assert.True(t, IsPermanent(err))
	})
}

func TestRegistry(t *testing.T) {
	email := NewEmailSender(&mockSES{}, "desk@repair.test")
	r := NewRegistry(email, nil)

	s, err := r.Get(model.ChannelEmail)
	require.NoError(t, err)
	assert.Same(t, email, s)

	_, err = r.Get(model.ChannelWhatsApp)
	assert.ErrorIs(t, err, ErrUnsupportedChannel)
	assert.Equal(t, []model.Channel{model.ChannelEmail}, r.Channels())
}
