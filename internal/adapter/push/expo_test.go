package push

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpoNotifier_Notify(t *testing.T) {
	var got expoMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewExpoNotifierWithClient(srv.URL, srv.Client(), zerolog.Nop())
	err := n.Notify(context.Background(), "ExponentPushToken[abc]", "New expense", "Dinner added", map[string]string{"expense_id": "123"})
	require.NoError(t, err)

	assert.Equal(t, "ExponentPushToken[abc]", got.To)
	assert.Equal(t, "New expense", got.Title)
	assert.Equal(t, "Dinner added", got.Body)
	assert.Equal(t, "123", got.Data["expense_id"])
	assert.Equal(t, "default", got.Sound)
}

func TestExpoNotifier_Notify_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewExpoNotifierWithClient(srv.URL, srv.Client(), zerolog.Nop())
	err := n.Notify(context.Background(), "token", "t", "b", nil)
	assert.Error(t, err)
}
