package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"splitledger/config"
	httpHandler "splitledger/internal/adapter/http/handler"
	redisStorage "splitledger/internal/adapter/storage/redis"
	"splitledger/internal/service"
	"splitledger/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds a full application stack on in-memory repos and miniredis.
// This exercises the real HTTP layer, middleware, handlers, services, and
// Redis stores end-to-end.

type testApp struct {
	server *httptest.Server
	redis  *miniredis.Miniredis
	sms    *captureSMS
	push   *capturePush
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	// Start miniredis
	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	// Redis stores
	otpStore := redisStorage.NewOTPStore(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Core services with real implementations
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService("test-jwt-secret-key-32bytes!!", 24*time.Hour, "test-issuer")

	// In-memory repos
	userRepo := newInMemoryUserRepo()
	groupRepo := newInMemoryGroupRepo()
	expenseRepo := newInMemoryExpenseRepo()
	settlementRepo := newInMemorySettlementRepo()
	transactor := newInMemoryTransactor()

	// Outbound capture stubs
	smsSender := newCaptureSMS()
	notifier := &capturePush{}

	authCfg := config.AuthConfig{
		OTPExpiry:        5 * time.Minute,
		OTPMaxAttempts:   3,
		OTPSendLimit:     3,
		OTPSendWindow:    10 * time.Minute,
		LoginMaxFailures: 3,
		LoginFailWindow:  15 * time.Minute,
	}

	// Business services
	log := logger.New("debug", false)
	userSvc := service.NewUserService(userRepo, hashSvc, log)
	authSvc := service.NewAuthService(userSvc, tokenSvc, smsSender, otpStore, rateLimitStore, authCfg, log)
	groupSvc := service.NewGroupService(groupRepo, expenseRepo, userSvc, transactor, log)
	receiptSvc := service.NewReceiptService(newInMemoryObjectStore(), "receipts", log)
	normalizer := service.NewSplitNormalizer(userSvc, groupSvc, log)
	ledgerSvc := service.NewLedgerService(expenseRepo, settlementRepo, normalizer, groupSvc, userSvc, receiptSvc, notifier, log)
	analyticsSvc := service.NewAnalyticsService(expenseRepo, settlementRepo, groupRepo, log)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:      authSvc,
		LedgerSvc:    ledgerSvc,
		AnalyticsSvc: analyticsSvc,
		GroupSvc:     groupSvc,
		UserSvc:      userSvc,
		TokenSvc:     tokenSvc,
		Logger:       log,
	})

	server := httptest.NewServer(router)

	return &testApp{
		server: server,
		redis:  mr,
		sms:    smsSender,
		push:   notifier,
	}
}

func (a *testApp) close() {
	a.server.Close()
	a.redis.Close()
}

// --- Integration Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestIntegration_RegisterAndLogin(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	// Register
	regBody, _ := json.Marshal(map[string]string{
		"name":     "Sam",
		"email":    "sam@example.com",
		"password": "StrongPass123!",
	})
	resp, err := http.Post(app.server.URL+"/api/v1/auth/register", "application/json", bytes.NewReader(regBody))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var regResp map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&regResp))
	data := regResp["data"].(map[string]interface{})
	assert.NotEmpty(t, data["token"])
	user := data["user"].(map[string]interface{})
	assert.Equal(t, "Sam", user["name"])

	// Login
	loginBody, _ := json.Marshal(map[string]string{
		"email":    "sam@example.com",
		"password": "StrongPass123!",
	})
	resp2, err := http.Post(app.server.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(loginBody))
	require.NoError(t, err)
	defer resp2.Body.Close()

	assert.Equal(t, http.StatusOK, resp2.StatusCode)

	var loginResp map[string]interface{}
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&loginResp))
	loginData := loginResp["data"].(map[string]interface{})
	assert.NotEmpty(t, loginData["token"])
}

func TestIntegration_DuplicateEmail(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	regBody, _ := json.Marshal(map[string]string{
		"name":     "Sam",
		"email":    "sam@example.com",
		"password": "StrongPass123!",
	})

	resp, err := http.Post(app.server.URL+"/api/v1/auth/register", "application/json", bytes.NewReader(regBody))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// Same email with different case still collides
	regBody2, _ := json.Marshal(map[string]string{
		"name":     "Other Sam",
		"email":    "SAM@example.com",
		"password": "StrongPass123!",
	})
	resp2, err := http.Post(app.server.URL+"/api/v1/auth/register", "application/json", bytes.NewReader(regBody2))
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusConflict, resp2.StatusCode)
}

func TestIntegration_LoginLockout(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	registerUser(t, app, "Sam", "sam@example.com", "StrongPass123!", "")

	wrong, _ := json.Marshal(map[string]string{
		"email":    "sam@example.com",
		"password": "wrong-password",
	})

	// Burn the failure budget (3 failures)
	for i := 0; i < 3; i++ {
		resp, err := http.Post(app.server.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(wrong))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	// Even the correct password is refused for the rest of the window
	correct, _ := json.Marshal(map[string]string{
		"email":    "sam@example.com",
		"password": "StrongPass123!",
	})
	resp, err := http.Post(app.server.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(correct))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "RATE_002")
}

func TestIntegration_OTPFlow(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	registerUser(t, app, "Sam", "sam@example.com", "StrongPass123!", "+919876543210")

	// Request a code
	sendBody, _ := json.Marshal(map[string]string{"mobile": "+919876543210"})
	resp, err := http.Post(app.server.URL+"/api/v1/auth/otp/send", "application/json", bytes.NewReader(sendBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The code never appears in the response, only in the SMS
	respBody, _ := io.ReadAll(resp.Body)
	assert.NotContains(t, string(respBody), "code")

	msg := app.sms.lastMessage("+919876543210")
	require.NotEmpty(t, msg)
	code := regexp.MustCompile(`\d{6}`).FindString(msg)
	require.Len(t, code, 6)

	// Wrong code first
	badBody, _ := json.Marshal(map[string]string{"mobile": "+919876543210", "code": "000000"})
	if code == "000000" {
		badBody, _ = json.Marshal(map[string]string{"mobile": "+919876543210", "code": "111111"})
	}
	respBad, err := http.Post(app.server.URL+"/api/v1/auth/otp/verify", "application/json", bytes.NewReader(badBody))
	require.NoError(t, err)
	respBad.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, respBad.StatusCode)

	// Correct code signs in; number formatting differences do not matter
	goodBody, _ := json.Marshal(map[string]string{"mobile": "91 98765 43210", "code": code})
	respGood, err := http.Post(app.server.URL+"/api/v1/auth/otp/verify", "application/json", bytes.NewReader(goodBody))
	require.NoError(t, err)
	defer respGood.Body.Close()
	require.Equal(t, http.StatusOK, respGood.StatusCode)

	var verifyResp map[string]interface{}
	require.NoError(t, json.NewDecoder(respGood.Body).Decode(&verifyResp))
	data := verifyResp["data"].(map[string]interface{})
	assert.NotEmpty(t, data["token"])

	// The code is single-use
	respReplay, err := http.Post(app.server.URL+"/api/v1/auth/otp/verify", "application/json", bytes.NewReader(goodBody))
	require.NoError(t, err)
	respReplay.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, respReplay.StatusCode)
}

func TestIntegration_JWT_Unauthorized(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	req, _ := http.NewRequest(http.MethodGet, app.server.URL+"/api/v1/expenses", nil)
	// No Authorization header
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_ExpenseAndBalances(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token1, user1 := registerUser(t, app, "Payer", "payer@example.com", "StrongPass123!", "+911111111111")
	token2, user2 := registerUser(t, app, "Friend", "friend@example.com", "StrongPass123!", "+912222222222")

	// Payer fronts 100, split equally between both
	expBody, _ := json.Marshal(map[string]interface{}{
		"title":         "Dinner",
		"amount":        100,
		"date":          "2026-08-20",
		"category":      "Food",
		"split_type":    "EQUAL",
		"split_between": []string{user1, user2},
	})
	resp := doJSON(t, app, http.MethodPost, "/api/v1/expenses", token1, expBody)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Both sides see the expense
	respList := doJSON(t, app, http.MethodGet, "/api/v1/expenses", token2, nil)
	defer respList.Body.Close()
	require.Equal(t, http.StatusOK, respList.StatusCode)
	var listResp map[string]interface{}
	require.NoError(t, json.NewDecoder(respList.Body).Decode(&listResp))
	require.Len(t, listResp["data"], 1)

	// Payer is owed 50
	sum1 := fetchSummary(t, app, token1)
	assert.Equal(t, float64(100), sum1["total_spent"])
	assert.Equal(t, float64(50), sum1["owes_you"])

	// Friend owes 50
	sum2 := fetchSummary(t, app, token2)
	assert.Equal(t, float64(50), sum2["you_owe"])

	// Friend settles up
	setBody, _ := json.Marshal(map[string]interface{}{
		"to_user_id": user1,
		"amount":     50,
	})
	respSet := doJSON(t, app, http.MethodPost, "/api/v1/settlements", token2, setBody)
	defer respSet.Body.Close()
	require.Equal(t, http.StatusCreated, respSet.StatusCode)

	sum2After := fetchSummary(t, app, token2)
	assert.Equal(t, float64(0), sum2After["you_owe"])

	sum1After := fetchSummary(t, app, token1)
	assert.Equal(t, float64(0), sum1After["owes_you"])
}

func TestIntegration_GroupLifecycle(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token1, user1 := registerUser(t, app, "Creator", "creator@example.com", "StrongPass123!", "+911111111111")
	_, user2 := registerUser(t, app, "Member", "member@example.com", "StrongPass123!", "+912222222222")

	// Create a group with both users
	grpBody, _ := json.Marshal(map[string]interface{}{
		"name":    "Trip",
		"members": []string{user2},
	})
	respGrp := doJSON(t, app, http.MethodPost, "/api/v1/groups", token1, grpBody)
	defer respGrp.Body.Close()
	require.Equal(t, http.StatusCreated, respGrp.StatusCode)
	var grpResp map[string]interface{}
	require.NoError(t, json.NewDecoder(respGrp.Body).Decode(&grpResp))
	groupID := grpResp["data"].(map[string]interface{})["id"].(string)

	// Two expenses scoped to the group
	for i := 0; i < 2; i++ {
		expBody, _ := json.Marshal(map[string]interface{}{
			"title":         fmt.Sprintf("Meal %d", i+1),
			"amount":        40,
			"date":          "2026-08-20",
			"category":      "Food",
			"split_type":    "EQUAL",
			"group_id":      groupID,
			"split_between": []string{user1, user2},
		})
		resp := doJSON(t, app, http.MethodPost, "/api/v1/expenses", token1, expBody)
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	respList := doJSON(t, app, http.MethodGet, "/api/v1/expenses/group/"+groupID, token1, nil)
	defer respList.Body.Close()
	require.Equal(t, http.StatusOK, respList.StatusCode)
	var listResp map[string]interface{}
	require.NoError(t, json.NewDecoder(respList.Body).Decode(&listResp))
	require.Len(t, listResp["data"], 2)

	// Deleting the group cascades its expenses
	respDel := doJSON(t, app, http.MethodDelete, "/api/v1/groups/"+groupID, token1, nil)
	defer respDel.Body.Close()
	require.Equal(t, http.StatusOK, respDel.StatusCode)
	var delResp map[string]interface{}
	require.NoError(t, json.NewDecoder(respDel.Body).Decode(&delResp))
	delData := delResp["data"].(map[string]interface{})
	assert.Equal(t, float64(2), delData["deleted_expenses_count"])

	// The expenses are gone
	respAfter := doJSON(t, app, http.MethodGet, "/api/v1/expenses", token1, nil)
	defer respAfter.Body.Close()
	var afterResp map[string]interface{}
	require.NoError(t, json.NewDecoder(respAfter.Body).Decode(&afterResp))
	assert.Empty(t, afterResp["data"])
}

func TestIntegration_UnequalSplitMismatch(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token1, user1 := registerUser(t, app, "Payer", "payer@example.com", "StrongPass123!", "+911111111111")
	_, user2 := registerUser(t, app, "Friend", "friend@example.com", "StrongPass123!", "+912222222222")

	// Details sum to 90, amount is 100
	expBody, _ := json.Marshal(map[string]interface{}{
		"title":         "Dinner",
		"amount":        100,
		"date":          "2026-08-20",
		"category":      "Food",
		"split_type":    "UNEQUAL",
		"split_between": []string{user1, user2},
		"split_details": []map[string]interface{}{
			{"user_id": user1, "amount": 60},
			{"user_id": user2, "amount": 30},
		},
	})
	resp := doJSON(t, app, http.MethodPost, "/api/v1/expenses", token1, expBody)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "VAL_004")
}

func TestIntegration_UserLookupByMobile(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token1, _ := registerUser(t, app, "Sam", "sam@example.com", "StrongPass123!", "+911111111111")
	_, user2 := registerUser(t, app, "Friend", "friend@example.com", "StrongPass123!", "+919876543210")

	resp := doJSON(t, app, http.MethodGet, "/api/v1/users?mobile=%2B91%2098765%2043210", token1, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var lookupResp map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&lookupResp))
	data := lookupResp["data"].(map[string]interface{})
	assert.Equal(t, user2, data["id"])
}

// --- Helpers ---

func registerUser(t *testing.T, app *testApp, name, email, password, mobile string) (token, userID string) {
	t.Helper()
	body := map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}
	if mobile != "" {
		body["mobile"] = mobile
	}
	raw, _ := json.Marshal(body)
	resp, err := http.Post(app.server.URL+"/api/v1/auth/register", "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "register response: %s", string(bodyBytes))

	var regResp map[string]interface{}
	require.NoError(t, json.Unmarshal(bodyBytes, &regResp))
	data := regResp["data"].(map[string]interface{})
	return data["token"].(string), data["user"].(map[string]interface{})["id"].(string)
}

func doJSON(t *testing.T, app *testApp, method, path, token string, body []byte) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, app.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func fetchSummary(t *testing.T, app *testApp, token string) map[string]interface{} {
	t.Helper()
	resp := doJSON(t, app, http.MethodGet, "/api/v1/analytics/summary", token, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body["data"].(map[string]interface{})
}
