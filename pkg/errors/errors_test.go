package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "with status code",
			err:  New(TypeSource, ReasonRateLimited, 429, "too many requests"),
			want: "source error (rate_limited, status 429): too many requests",
		},
		{
			name: "without status code",
			err:  New(TypeAuth, ReasonLoginFailed, 0, "could not confirm login"),
			want: "auth error (login_failed): could not confirm login",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAs(t *testing.T) {
	base := New(TypeLookup, ReasonNotFound, 404, "no such user")
	wrapped := fmt.Errorf("resolving subject: %w", base)

	e, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, TypeLookup, e.Type)
	assert.Equal(t, ReasonNotFound, e.Reason)

	_, ok = As(fmt.Errorf("plain error"))
	assert.False(t, ok)
}

func TestIsFatal(t *testing.T) {
	assert.False(t, IsFatal(New(TypeSource, ReasonRateLimited, 429, "cooled")))
	assert.False(t, IsFatal(New(TypeSource, ReasonTransient, 503, "flaky")))
	assert.True(t, IsFatal(New(TypeAuth, ReasonUnauthorized, 401, "expired")))
	assert.True(t, IsFatal(New(TypeLookup, ReasonNotFound, 404, "gone")))
	assert.True(t, IsFatal(New(TypeNavigation, ReasonGated, 0, "login wall")))
	assert.True(t, IsFatal(fmt.Errorf("unclassified")))
}

func TestReasonFromStatus(t *testing.T) {
	tests := []struct {
		code int
		want Reason
	}{
		{400, ReasonBadRequest},
		{401, ReasonUnauthorized},
		{403, ReasonForbidden},
		{404, ReasonNotFound},
		{429, ReasonRateLimited},
		{500, ReasonTransient},
		{503, ReasonTransient},
		{418, ReasonUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ReasonFromStatus(tt.code), "status %d", tt.code)
	}
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := Wrap(TypeSource, ReasonTransient, cause, "page fetch failed")
	assert.Equal(t, cause, err.Unwrap())
}
