package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shreyescodes/erp-portal/internal/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService(accessExp time.Duration) *JWTService {
	return NewJWTService(JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  accessExp,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "erp-portal-test",
	})
}

func TestGenerateAndValidateTokenPair(t *testing.T) {
	svc := newTestJWTService(time.Hour)
	user := &models.User{ID: 42, Email: "asha@institute.edu", Role: models.RoleAdmin}

	pair, err := svc.GenerateTokenPair(user)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, 3600, pair.ExpiresIn)
	assert.Equal(t, 86400, pair.RefreshExpiresIn)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), pair.RefreshExpiresAt, time.Minute)

	claims, err := svc.ValidateAndExtractClaims(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "erp-portal-test", claims.Issuer)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := newTestJWTService(-time.Minute)
	user := &models.User{ID: 1, Email: "a@b.c", Role: models.RoleUser}

	pair, err := svc.GenerateTokenPair(user)
	require.NoError(t, err)

	_, err = svc.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	user := &models.User{ID: 1, Email: "a@b.c", Role: models.RoleUser}
	pair, err := newTestJWTService(time.Hour).GenerateTokenPair(user)
	require.NoError(t, err)

	other := NewJWTService(JWTConfig{SecretKey: "other", AccessTokenExp: time.Hour})
	_, err = other.ValidateToken(pair.AccessToken)
	assert.Error(t, err)
}

func TestValidateToken_RejectsNoneAlgorithm(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: 1, Email: "a@b.c"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestJWTService(time.Hour).ValidateToken(signed)
	assert.Error(t, err)
}

func TestValidateAndExtractClaims_Empty(t *testing.T) {
	_, err := newTestJWTService(time.Hour).ValidateAndExtractClaims("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{header: "Bearer abc.def", want: "abc.def"},
		{header: "bearer abc.def", want: "abc.def"},
		{header: "abc.def", want: "abc.def"},
		{header: "", wantErr: true},
		{header: "Bearer   ", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ExtractBearerToken(tt.header)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidFormat, tt.header)
			continue
		}
		require.NoError(t, err, tt.header)
		assert.Equal(t, tt.want, got)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, CheckPassword(hash, "s3cret-pass"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
	assert.False(t, CheckPassword("not-a-hash", "x"))
}
