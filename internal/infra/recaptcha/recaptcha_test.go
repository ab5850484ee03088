package recaptcha

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientVerify(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "top-secret", r.PostForm.Get("secret"))
		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("response") == "good-token" {
			_, _ = w.Write([]byte(`{"success":true,"hostname":"localhost"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
	}))
	defer server.Close()

	client := NewClient("top-secret", server.URL, 5*time.Second)
	require.NoError(t, client.Verify(context.Background(), "good-token"))

	err := client.Verify(context.Background(), "bad-token")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRejected))
	assert.Contains(t, err.Error(), "invalid-input-response")
}

func TestClientVerifyWithoutSecret(t *testing.T) {
	t.Parallel()

	err := NewClient("", "", time.Second).Verify(context.Background(), "token")
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestClientVerifyServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := NewClient("secret", server.URL, time.Second).Verify(context.Background(), "token")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRejected))
}

func TestEndpointVerifier(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Captcha string `json:"captcha"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.Captcha != "good-token" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	verifier := NewEndpointVerifier(server.URL, 5*time.Second)
	require.NoError(t, verifier.Verify(context.Background(), "good-token"))
	assert.True(t, errors.Is(verifier.Verify(context.Background(), "bad-token"), ErrRejected))
}

func TestEndpointVerifierUnreachable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	err := NewEndpointVerifier(url, time.Second).Verify(context.Background(), "token")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRejected))
}
