package helpers

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/repair-desk/internal/auth"
	"github.com/nimasrn/repair-desk/internal/channels"
	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/internal/repository"
	xhttp "github.com/nimasrn/repair-desk/pkg/http"
	"github.com/nimasrn/repair-desk/pkg/pg"
	"github.com/nimasrn/repair-desk/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

const TestPassword = "s3cret-password"

func SetupTestDB(t *testing.T) *pg.DB {
	return repository.OpenTestDB(t)
}

func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr := miniredis.RunT(t)

	adapter, err := redis.NewRedisAdapter(t.Name()+"-"+mr.Addr(), "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

func CreateTestUser(t *testing.T, db *pg.DB, username string, role model.Role) *model.User {
	hash, err := auth.HashPassword(TestPassword)
	require.NoError(t, err)
	u := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		Phone:        "+3933300000",
		PasswordHash: hash,
		Role:         role,
		FullName:     username,
		Active:       true,
	}
	if role.IsSupplier() {
		u.SupplierName = channels.ComplusSupplier
	}
	created, err := repository.NewUserRepository(db).Create(context.Background(), u)
	require.NoError(t, err)
	return created
}

func CreateTestReferences(t *testing.T, db *pg.DB, category, manufacturer string) (int64, int64) {
	refs := repository.NewReferenceRepository(db)
	c, err := refs.CreateCategory(context.Background(), category)
	require.NoError(t, err)
	m, err := refs.CreateManufacturer(context.Background(), manufacturer)
	require.NoError(t, err)
	return c.ID, m.ID
}

// Do runs one request through the handler and returns the finished context.
func Do(h fasthttp.RequestHandler, method, path, token string, body any) *xhttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if token != "" {
		ctx.Request.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		raw, _ := json.Marshal(body)
		ctx.Request.Header.SetContentType("application/json")
		ctx.Request.SetBody(raw)
	}
	h(ctx)
	return ctx
}

func DecodeBody(t *testing.T, ctx *xhttp.RequestCtx, dst any) {
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), dst), string(ctx.Response.Body()))
}

// FakeSender records outbound messages instead of calling a provider.
type FakeSender struct {
	mu      sync.Mutex
	channel model.Channel
	sent    []*channels.Outbound
	err     error
}

func NewFakeSender(channel model.Channel) *FakeSender {
	return &FakeSender{channel: channel}
}

func (f *FakeSender) Channel() model.Channel { return f.channel }

func (f *FakeSender) Send(ctx context.Context, msg *channels.Outbound) (*channels.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, msg)
	return &channels.Receipt{ProviderMessageID: "fake-" + msg.JobID, Status: "SENT", Delivered: 1, SentAt: time.Now()}, nil
}

func (f *FakeSender) FailWith(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *FakeSender) Sent() []*channels.Outbound {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*channels.Outbound(nil), f.sent...)
}

// SentTo returns the messages whose recipient has the given phone or email.
func (f *FakeSender) SentTo(address string) []*channels.Outbound {
	var out []*channels.Outbound
	for _, m := range f.Sent() {
		if m.Recipient.Phone == address || m.Recipient.Email == address {
			out = append(out, m)
		}
	}
	return out
}
