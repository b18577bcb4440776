package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef-test"

func TestTokenManager_IssueAndParse(t *testing.T) {
	m, err := NewTokenManager(testSecret, time.Hour)
	require.NoError(t, err)

	user := &model.User{ID: 42, Username: "ricambi", Role: model.RoleSupplierStaff, SupplierName: "Com Plus"}
	token, expiresAt, err := m.Issue(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	actor := claims.Actor()
	assert.Equal(t, int64(42), actor.UserID)
	assert.Equal(t, model.RoleSupplierStaff, actor.Role)
	assert.Equal(t, "Com Plus", actor.SupplierName)
	assert.True(t, actor.Role.IsSupplier())
}

func TestTokenManager_Rejects(t *testing.T) {
	m, err := NewTokenManager(testSecret, time.Hour)
	require.NoError(t, err)
	user := &model.User{ID: 1, Username: "admin", Role: model.RoleAdmin}

	t.Run("expired", func(t *testing.T) {
		past := time.Now().Add(-2 * time.Hour)
		m.now = func() time.Time { return past }
		token, _, err := m.Issue(user)
		require.NoError(t, err)
		m.now = time.Now

		_, err = m.Parse(token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewTokenManager("another-secret-of-16", time.Hour)
		require.NoError(t, err)
		token, _, err := other.Issue(user)
		require.NoError(t, err)

		_, err = m.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: 1, Role: model.RoleAdmin})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = m.Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewTokenManager_ShortSecret(t *testing.T) {
	_, err := NewTokenManager("short", time.Hour)
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	token, err := BearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)

	token, err = BearerToken("bearer   xyz ")
	require.NoError(t, err)
	assert.Equal(t, "xyz", token)

	for _, h := range []string{"", "Bearer", "Basic abc", "Bearer "} {
		_, err = BearerToken(h)
		assert.ErrorIs(t, err, ErrMissingToken, h)
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)
	assert.True(t, CheckPassword(hash, "s3cret-pass"))
	assert.False(t, CheckPassword(hash, "wrong"))
}
