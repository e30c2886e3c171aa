package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interviewcalendar/internal/domain"
)

func TestJWTIssuer_Issue(t *testing.T) {
	secret := "test-secret"
	issuer := NewJWTIssuer(secret, "interviewcalendar", time.Hour)

	token, err := issuer.Issue("user-123", "u@example.com", []string{"employer", "admin"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	claims, ok := parsed.Claims.(*jwtClaims)
	require.True(t, ok)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "interviewcalendar", claims.Issuer)
	assert.Equal(t, "u@example.com", claims.Email)
	assert.Equal(t, []string{"employer", "admin"}, claims.Roles)
}

func TestJWTVerifier_Verify(t *testing.T) {
	const secret = "test-secret"
	good, err := NewJWTIssuer(secret, "interviewcalendar", time.Hour).Issue("emp-1", "hr@acme.example", []string{"employer", "astronaut"})
	require.NoError(t, err)

	expiredIssuer := NewJWTIssuer(secret, "interviewcalendar", time.Hour).(*jwtIssuer)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredIssuer.Issue("emp-1", "", nil)
	require.NoError(t, err)

	foreign, err := NewJWTIssuer("other-secret", "interviewcalendar", time.Hour).Issue("emp-1", "", nil)
	require.NoError(t, err)

	otherIssuer, err := NewJWTIssuer(secret, "someone-else", time.Hour).Issue("emp-1", "", nil)
	require.NoError(t, err)

	verifier := NewJWTVerifier(secret, "interviewcalendar")

	caller, err := verifier.Verify(good)
	require.NoError(t, err)
	assert.Equal(t, "emp-1", caller.ID)
	assert.Equal(t, "hr@acme.example", caller.Email)
	assert.Equal(t, []domain.Role{domain.RoleEmployer}, caller.Roles)

	for name, token := range map[string]string{
		"expired":      expired,
		"wrong secret": foreign,
		"wrong issuer": otherIssuer,
		"garbage":      "not.a.jwt",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := verifier.Verify(token)
			assert.Error(t, err)
		})
	}

	_, err = NewJWTVerifier(secret, "").Verify(otherIssuer)
	assert.NoError(t, err)
}

func TestTokenDigester(t *testing.T) {
	d, err := NewTokenDigester("digest-secret")
	require.NoError(t, err)

	a, err := d.NewToken()
	require.NoError(t, err)
	b, err := d.NewToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)

	assert.Equal(t, d.Digest(a), d.Digest(a))
	assert.NotEqual(t, d.Digest(a), d.Digest(b))
	assert.Len(t, d.Digest(a), 64)

	other, err := NewTokenDigester("another-secret")
	require.NoError(t, err)
	assert.NotEqual(t, d.Digest(a), other.Digest(a))

	_, err = NewTokenDigester("")
	assert.Error(t, err)
}
