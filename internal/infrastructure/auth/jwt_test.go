package auth

import (
	"testing"
	"time"

	"github.com/dormbill/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.AuthConfig{
		Enabled: true,
		Secret:  "test-secret-key-at-least-32-chars",
		Issuer:  "dormbill-test",
	})
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestJWTService()
	userID := uuid.New()
	propertyID := uuid.New()

	token, expiresAt, err := svc.GenerateToken(GenerateTokenInput{
		UserID:      userID,
		Username:    "manager",
		PropertyIDs: []uuid.UUID{propertyID},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(DefaultTokenTTL), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "manager", claims.Username)
	assert.Equal(t, []string{propertyID.String()}, claims.PropertyIDs)

	parsed, err := claims.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestValidateToken_Failures(t *testing.T) {
	svc := newTestJWTService()
	input := GenerateTokenInput{UserID: uuid.New(), Username: "manager"}

	t.Run("expired", func(t *testing.T) {
		issued := time.Now().Add(-2 * time.Hour)
		svc.now = func() time.Time { return issued }
		token, _, err := svc.GenerateToken(input)
		require.NoError(t, err)
		svc.now = time.Now

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("different secret", func(t *testing.T) {
		other := NewJWTService(config.AuthConfig{Secret: "another-secret-key-of-32-characters", Issuer: "dormbill-test"})
		token, _, err := other.GenerateToken(input)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("different issuer", func(t *testing.T) {
		other := NewJWTService(config.AuthConfig{Secret: "test-secret-key-at-least-32-chars", Issuer: "someone-else"})
		token, _, err := other.GenerateToken(input)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing user id", func(t *testing.T) {
		now := time.Now()
		claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "dormbill-test",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.secret)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrMissingUserID)
	})

	t.Run("unsigned", func(t *testing.T) {
		claims := &Claims{UserID: uuid.New().String()}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestClaims_CanManage(t *testing.T) {
	managed := uuid.New()
	other := uuid.New()

	tests := []struct {
		name   string
		claims Claims
		want   map[uuid.UUID]bool
	}{
		{
			name:   "listed property only",
			claims: Claims{PropertyIDs: []string{managed.String()}},
			want:   map[uuid.UUID]bool{managed: true, other: false},
		},
		{
			name:   "owner manages everything",
			claims: Claims{Role: RoleOwner},
			want:   map[uuid.UUID]bool{managed: true, other: true},
		},
		{
			name:   "no properties",
			claims: Claims{},
			want:   map[uuid.UUID]bool{managed: false, other: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for id, want := range tt.want {
				assert.Equal(t, want, tt.claims.CanManage(id))
			}
		})
	}
}
