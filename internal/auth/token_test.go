package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAccessToken(t *testing.T) {
	t.Run("Cookie Preferred", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: "cookie_token"})
		req.Header.Set("Authorization", "Bearer header_token")

		assert.Equal(t, "cookie_token", ExtractAccessToken(req))
	})

	t.Run("Header Fallback", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer header_token")

		assert.Equal(t, "header_token", ExtractAccessToken(req))
	})

	t.Run("No Token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		assert.Empty(t, ExtractAccessToken(req))
	})

	t.Run("Malformed Header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic user:pass")

		assert.Empty(t, ExtractAccessToken(req))
	})
}

func TestParseToken(t *testing.T) {
	secret := []byte("test-secret")

	t.Run("Valid", func(t *testing.T) {
		tok, err := IssueToken(Actor{ID: 7, Role: RoleCashier}, secret, time.Hour)
		require.NoError(t, err)

		actor, err := ParseToken(tok, secret)
		require.NoError(t, err)
		assert.Equal(t, Actor{ID: 7, Role: RoleCashier}, actor)
	})

	t.Run("Wrong Secret", func(t *testing.T) {
		tok, err := IssueToken(Actor{ID: 7}, secret, time.Hour)
		require.NoError(t, err)

		_, err = ParseToken(tok, []byte("other"))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		tok, err := IssueToken(Actor{ID: 7}, secret, -time.Hour)
		require.NoError(t, err)

		_, err = ParseToken(tok, secret)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Missing user_id", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"role": RoleWaiter,
			"exp":  time.Now().Add(time.Hour).Unix(),
		}).SignedString(secret)
		require.NoError(t, err)

		_, err = ParseToken(tok, secret)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestActorContext(t *testing.T) {
	_, ok := ActorFrom(context.Background())
	assert.False(t, ok)

	ctx := WithActor(context.Background(), Actor{ID: 3, Role: RoleWaiter})
	a, ok := ActorFrom(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(3), a.ID)

	_, ok = ActorFrom(WithActor(context.Background(), Actor{}))
	assert.False(t, ok)
}
