package services

import (
	"strings"
	"testing"
	"time"

	"github.com/ashmitsharp/classtrib-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3nha-forte")
	require.NoError(t, err)
	assert.NotEqual(t, "s3nha-forte", hash)

	assert.True(t, CheckPassword(hash, "s3nha-forte"))
	assert.False(t, CheckPassword(hash, "outra"))
	assert.False(t, CheckPassword("not-a-hash", "s3nha-forte"))

	_, err = HashPassword("")
	assert.Error(t, err)
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	svc := NewTokenService("test-secret", 8*time.Hour)

	raw, expires, err := svc.Issue(models.Identity{UserID: 7, Username: "maria", IsAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, 3, len(strings.Split(raw, ".")))
	assert.WithinDuration(t, time.Now().Add(8*time.Hour), expires, time.Minute)

	identity, err := svc.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(7), identity.UserID)
	assert.Equal(t, "maria", identity.Username)
	assert.True(t, identity.IsAdmin)
}

func TestTokenService_Rejects(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)
	raw, _, err := svc.Issue(models.Identity{UserID: 1, Username: "joao"})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenService("other-secret", time.Hour)
		_, err := other.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewTokenService("test-secret", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Verify("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("tampered payload", func(t *testing.T) {
		forged, _, err := svc.Issue(models.Identity{UserID: 999, Username: "root", IsAdmin: true})
		require.NoError(t, err)
		parts := strings.Split(raw, ".")
		parts[1] = strings.Split(forged, ".")[1]
		_, err = svc.Verify(strings.Join(parts, "."))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
