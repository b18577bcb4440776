package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSchemasCompile(t *testing.T) {
	v := Default()
	require.NotNil(t, v)
	assert.Len(t, v.schemas, len(requestSchemas))
}

func TestValidate(t *testing.T) {
	v := Default()

	t.Run("valid status update", func(t *testing.T) {
		err := v.Validate(StatusUpdate, []byte(`{"status":"completed","cost":120.5,"warranty_months":12}`))
		assert.NoError(t, err)
	})

	t.Run("invalid status", func(t *testing.T) {
		err := v.Validate(StatusUpdate, []byte(`{"status":"done"}`))
		var verr *Error
		require.True(t, errors.As(err, &verr))
		require.Len(t, verr.Fields, 1)
		assert.Equal(t, "status", verr.Fields[0].Field)
	})

	t.Run("missing required fields are named", func(t *testing.T) {
		err := v.Validate(ServiceCreate, []byte(`{"client_id":1}`))
		var verr *Error
		require.True(t, errors.As(err, &verr))
		fields := []string{}
		for _, f := range verr.Fields {
			fields = append(fields, f.Field)
		}
		assert.ElementsMatch(t, []string{"appliance_id", "description"}, fields)
	})

	t.Run("nested required field", func(t *testing.T) {
		err := v.Validate(PushSubscribe, []byte(`{"endpoint":"https://fcm.googleapis.com/x","keys":{"p256dh":"k"}}`))
		var verr *Error
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "keys.auth", verr.Fields[0].Field)
	})

	t.Run("negative cost rejected", func(t *testing.T) {
		err := v.Validate(StatusUpdate, []byte(`{"status":"completed","cost":-1}`))
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		err := v.Validate(Login, []byte(`{"username":`))
		var verr *Error
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "(root)", verr.Fields[0].Field)
	})

	t.Run("supplier roles accepted", func(t *testing.T) {
		err := v.Validate(UserCreate, []byte(`{"username":"complus","password":"longenough","role":"supplier_admin","supplier_name":"Com Plus"}`))
		assert.NoError(t, err)
		err = v.Validate(UserCreate, []byte(`{"username":"x1y","password":"longenough","role":"root"}`))
		assert.Error(t, err)
	})

	t.Run("unknown schema", func(t *testing.T) {
		err := v.Validate("nope", []byte(`{}`))
		assert.ErrorIs(t, err, ErrUnknownSchema)
	})
}
