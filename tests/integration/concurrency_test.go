package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentExpenseCreation fires many simultaneous expense creates from
// one payer and checks nothing is lost or double-counted on the way through
// the HTTP layer, services, and repos.
func TestConcurrentExpenseCreation(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token, user1 := registerUser(t, app, "Payer", "payer@example.com", "StrongPass123!", "+911111111111")
	_, user2 := registerUser(t, app, "Friend", "friend@example.com", "StrongPass123!", "+912222222222")

	concurrency := 50
	amount := float64(10)

	var wg sync.WaitGroup
	var successCount atomic.Int64
	var failCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			body, _ := json.Marshal(map[string]interface{}{
				"title":         fmt.Sprintf("Expense %d", idx),
				"amount":        amount,
				"date":          "2026-08-20",
				"category":      "Misc",
				"split_type":    "EQUAL",
				"split_between": []string{user1, user2},
			})
			req, _ := http.NewRequest(http.MethodPost, app.server.URL+"/api/v1/expenses", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)

			r, err := http.DefaultClient.Do(req)
			if err != nil {
				failCount.Add(1)
				return
			}
			defer r.Body.Close()
			_, _ = io.ReadAll(r.Body)

			if r.StatusCode == http.StatusCreated {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	t.Logf("Concurrent expense creates: %d succeeded, %d failed (out of %d)", successCount.Load(), failCount.Load(), concurrency)
	require.Equal(t, int64(concurrency), successCount.Load(), "every create should succeed")

	// Each create landed exactly once
	resp := doJSON(t, app, http.MethodGet, "/api/v1/expenses", token, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listResp struct {
		Data []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listResp))
	assert.Len(t, listResp.Data, concurrency)

	// And the fold over them is exact
	summary := fetchSummary(t, app, token)
	assert.Equal(t, float64(concurrency)*amount, summary["total_spent"])
	assert.Equal(t, float64(concurrency)*amount/2, summary["owes_you"])
}

// TestConcurrentOTPSendThrottle checks the send budget holds under parallel
// requests: the Redis counter is atomic, so exactly the configured number of
// sends go through regardless of interleaving.
func TestConcurrentOTPSendThrottle(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	registerUser(t, app, "Sam", "sam@example.com", "StrongPass123!", "+919876543210")

	concurrency := 10
	body, _ := json.Marshal(map[string]string{"mobile": "+919876543210"})

	var wg sync.WaitGroup
	var sentCount atomic.Int64
	var throttledCount atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			r, err := http.Post(app.server.URL+"/api/v1/auth/otp/send", "application/json", bytes.NewReader(body))
			if err != nil {
				return
			}
			defer r.Body.Close()
			_, _ = io.ReadAll(r.Body)

			switch r.StatusCode {
			case http.StatusOK:
				sentCount.Add(1)
			case http.StatusTooManyRequests:
				throttledCount.Add(1)
			}
		}()
	}

	wg.Wait()

	t.Logf("OTP throttle: %d sent, %d throttled (out of %d)", sentCount.Load(), throttledCount.Load(), concurrency)

	// Send limit is 3 per window in the test config
	assert.Equal(t, int64(3), sentCount.Load())
	assert.Equal(t, int64(concurrency-3), throttledCount.Load())
}

// TestConcurrentLoginFailures checks the lockout survives racing failures:
// once the budget is spent, even the correct password is refused.
func TestConcurrentLoginFailures(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	registerUser(t, app, "Sam", "sam@example.com", "StrongPass123!", "")

	concurrency := 10
	wrong, _ := json.Marshal(map[string]string{
		"email":    "sam@example.com",
		"password": "wrong-password",
	})

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := http.Post(app.server.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(wrong))
			if err != nil {
				return
			}
			r.Body.Close()
		}()
	}
	wg.Wait()

	// Budget is 3 failures; 10 racing failures exhaust it no matter the order
	correct, _ := json.Marshal(map[string]string{
		"email":    "sam@example.com",
		"password": "StrongPass123!",
	})
	resp, err := http.Post(app.server.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(correct))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}
