package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	t.Parallel()

	a := NewAuthenticator("secret")
	token, err := a.Issue("0xabc", true, time.Hour)
	require.NoError(t, err)

	user, err := a.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "0xabc", user.UserID)
	assert.True(t, user.Admin)
}

func TestParseRejectsForeignAndExpiredTokens(t *testing.T) {
	t.Parallel()

	token, err := NewAuthenticator("other").Issue("0xabc", false, time.Hour)
	require.NoError(t, err)
	_, err = NewAuthenticator("secret").Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	a := NewAuthenticator("secret")
	issued := time.Now()
	a.now = func() time.Time { return issued }
	token, err = a.Issue("0xabc", false, time.Minute)
	require.NoError(t, err)
	a.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = a.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = a.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
