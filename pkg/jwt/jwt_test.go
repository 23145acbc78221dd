package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-access-secret-key-for-testing-purposes"
	testIssuer = "wanderly-identity"
)

func TestNewService(t *testing.T) {
	service := NewService(testSecret, testIssuer, time.Hour)

	assert.NotNil(t, service)
	assert.Equal(t, testSecret, service.secret)
	assert.Equal(t, testIssuer, service.issuer)
	assert.Equal(t, time.Hour, service.expiry)
}

func TestGenerateAccessToken(t *testing.T) {
	service := NewService(testSecret, testIssuer, time.Hour)
	actorID := uuid.New()
	agentID := uuid.New()

	token, err := service.GenerateAccessToken(actorID, "agent@example.com", []string{"agent"}, &agentID)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := service.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, actorID, claims.ActorID)
	assert.Equal(t, "agent@example.com", claims.Email)
	assert.Equal(t, []string{"agent"}, claims.Roles)
	require.NotNil(t, claims.AgentID)
	assert.Equal(t, agentID, *claims.AgentID)
	assert.Equal(t, AccessToken, claims.TokenType)
	assert.Equal(t, actorID.String(), claims.Subject)
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	service := NewService(testSecret, testIssuer, time.Hour)
	other := NewService("another-secret-entirely", testIssuer, time.Hour)

	token, err := other.GenerateAccessToken(uuid.New(), "a@example.com", []string{"customer"}, nil)
	require.NoError(t, err)

	_, err = service.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestValidateAccessToken_WrongIssuer(t *testing.T) {
	service := NewService(testSecret, testIssuer, time.Hour)
	other := NewService(testSecret, "someone-else", time.Hour)

	token, err := other.GenerateAccessToken(uuid.New(), "a@example.com", []string{"customer"}, nil)
	require.NoError(t, err)

	_, err = service.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestValidateAccessToken_Expired(t *testing.T) {
	service := NewService(testSecret, testIssuer, -time.Minute)

	token, err := service.GenerateAccessToken(uuid.New(), "a@example.com", []string{"staff"}, nil)
	require.NoError(t, err)

	_, err = service.ValidateAccessToken(token)
	assert.Error(t, err)
	assert.True(t, IsExpiredError(err))
	assert.True(t, service.IsTokenExpired(token))
}

func TestValidateAccessToken_WrongTokenType(t *testing.T) {
	service := NewService(testSecret, testIssuer, time.Hour)
	now := time.Now()
	claims := Claims{
		ActorID:   uuid.New(),
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			Issuer:    testIssuer,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = service.ValidateAccessToken(token)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token type")
}

func TestValidateAccessToken_NoneAlgorithmRejected(t *testing.T) {
	service := NewService(testSecret, testIssuer, time.Hour)
	claims := Claims{ActorID: uuid.New(), TokenType: AccessToken}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = service.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestIsTokenExpired_Garbage(t *testing.T) {
	service := NewService(testSecret, testIssuer, time.Hour)
	assert.False(t, service.IsTokenExpired("not-a-token"))

	_, err := service.ValidateAccessToken("not.a.token")
	assert.Error(t, err)
	assert.False(t, IsExpiredError(err))
}
