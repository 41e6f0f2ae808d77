package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/espadawo/bot-for-a-brokerage-company/internal/api/middleware"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/models"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/notify"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/service"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/session"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/storage/jsonstore"
)

const (
	testSecret   = "test-secret-test-secret-test-secret!"
	testIssuer   = "brokerage-backoffice"
	testAudience = "brokerage-api"

	adminID  = int64(1)
	clientID = int64(100)
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	middleware.SetJWTSecret(testSecret)
	middleware.SetJWTValidation(testIssuer, testAudience)

	store, err := jsonstore.Open(t.TempDir())
	require.NoError(t, err)
	engine := service.NewEngine(store, notify.NewLogSink(), []int64{adminID})
	sessions := session.NewMemoryManager(time.Minute)

	router := NewRouter(zap.NewNop(), engine, sessions, 1000, 1000)
	server := httptest.NewServer(router.Routes())
	t.Cleanup(server.Close)
	return server
}

func mintToken(t *testing.T, userID int64) string {
	t.Helper()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"sub":     strconv.FormatInt(userID, 10),
		"iss":     testIssuer,
		"aud":     testAudience,
		"iat":     now.Unix(),
		"exp":     now.Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func doJSON(t *testing.T, method, url, token string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func registerClient(t *testing.T, server *httptest.Server, token string) {
	t.Helper()
	resp := doJSON(t, http.MethodPost, server.URL+"/v1/users", token, map[string]string{
		"full_name": "Ivan Petrov",
		"language":  "ru",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestAuthTokenEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/v1/auth/token", "", map[string]int64{"user_id": clientID})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.NotEmpty(t, body["token"])

	// The issued token is accepted by the authenticated surface.
	resp = doJSON(t, http.MethodPost, server.URL+"/v1/users", body["token"], map[string]string{"full_name": "Ivan"})
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestAuthTokenRejectsBadUserID(t *testing.T) {
	server := newTestServer(t)
	resp := doJSON(t, http.MethodPost, server.URL+"/v1/auth/token", "", map[string]int64{"user_id": 0})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnauthenticatedRequestRejected(t *testing.T) {
	server := newTestServer(t)

	resp := doJSON(t, http.MethodGet, server.URL+"/v1/users/me", "", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, server.URL+"/v1/users/me", "not-a-token", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterAndMe(t *testing.T) {
	server := newTestServer(t)
	token := mintToken(t, clientID)
	registerClient(t, server, token)

	resp := doJSON(t, http.MethodGet, server.URL+"/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var user models.User
	decodeBody(t, resp, &user)
	assert.Equal(t, clientID, user.ID)
	assert.Equal(t, "Ivan Petrov", user.FullName)
	assert.True(t, user.Balance.IsZero())
}

func TestStaffGate(t *testing.T) {
	server := newTestServer(t)
	clientToken := mintToken(t, clientID)
	registerClient(t, server, clientToken)

	resp := doJSON(t, http.MethodGet, server.URL+"/v1/deposits", clientToken, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	adminToken := mintToken(t, adminID)
	resp = doJSON(t, http.MethodGet, server.URL+"/v1/deposits", adminToken, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDepositFlow(t *testing.T) {
	server := newTestServer(t)
	clientToken := mintToken(t, clientID)
	adminToken := mintToken(t, adminID)
	registerClient(t, server, clientToken)

	resp := doJSON(t, http.MethodPost, server.URL+"/v1/deposits", clientToken, map[string]string{"amount": "300"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.DepositRequest
	decodeBody(t, resp, &created)
	require.NotZero(t, created.ID)

	url := fmt.Sprintf("%s/v1/deposits/%d/approve", server.URL, created.ID)
	resp = doJSON(t, http.MethodPost, url, adminToken, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Second decision conflicts.
	resp = doJSON(t, http.MethodPost, url, adminToken, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, server.URL+"/v1/users/me", clientToken, nil)
	var user models.User
	decodeBody(t, resp, &user)
	assert.Equal(t, "300", user.Balance.String())
}

func TestDepositRejectsInvalidAmount(t *testing.T) {
	server := newTestServer(t)
	token := mintToken(t, clientID)
	registerClient(t, server, token)

	for _, amount := range []string{"", "abc", "-5", "0"} {
		resp := doJSON(t, http.MethodPost, server.URL+"/v1/deposits", token, map[string]string{"amount": amount})
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "amount %q", amount)
	}
}

func TestWithdrawalFlowWithFreeText(t *testing.T) {
	server := newTestServer(t)
	clientToken := mintToken(t, clientID)
	adminToken := mintToken(t, adminID)
	registerClient(t, server, clientToken)

	// Fund the account through a staff adjustment.
	url := fmt.Sprintf("%s/v1/users/%d/balance", server.URL, clientID)
	resp := doJSON(t, http.MethodPost, url, adminToken, map[string]string{"amount": "500", "mode": "add"})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, server.URL+"/v1/withdrawals", clientToken, map[string]string{
		"text": "card 4276 1234 5678 9010, 300",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.WithdrawalRequest
	decodeBody(t, resp, &created)
	assert.Equal(t, "card 4276 1234 5678 9010", created.Details)

	resp = doJSON(t, http.MethodGet, server.URL+"/v1/users/me", clientToken, nil)
	var user models.User
	decodeBody(t, resp, &user)
	assert.Equal(t, "200", user.Balance.String())
	assert.Equal(t, "300", user.OnHold.String())

	rejectURL := fmt.Sprintf("%s/v1/withdrawals/%d/reject", server.URL, created.ID)
	resp = doJSON(t, http.MethodPost, rejectURL, adminToken, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, server.URL+"/v1/users/me", clientToken, nil)
	decodeBody(t, resp, &user)
	assert.Equal(t, "500", user.Balance.String())
	assert.Equal(t, "0", user.OnHold.String())
}

func TestWithdrawalInsufficientBalanceMapsTo422(t *testing.T) {
	server := newTestServer(t)
	token := mintToken(t, clientID)
	registerClient(t, server, token)

	resp := doJSON(t, http.MethodPost, server.URL+"/v1/withdrawals", token, map[string]string{
		"details": "card",
		"amount":  "50",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
}

func TestWithdrawalMalformedTextMapsTo400(t *testing.T) {
	server := newTestServer(t)
	token := mintToken(t, clientID)
	registerClient(t, server, token)

	resp := doJSON(t, http.MethodPost, server.URL+"/v1/withdrawals", token, map[string]string{
		"text": "card without amount",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDecisionOnMissingRequestMapsTo404(t *testing.T) {
	server := newTestServer(t)
	adminToken := mintToken(t, adminID)

	resp := doJSON(t, http.MethodPost, server.URL+"/v1/withdrawals/999/approve", adminToken, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestVerificationFlow(t *testing.T) {
	server := newTestServer(t)
	clientToken := mintToken(t, clientID)
	adminToken := mintToken(t, adminID)
	registerClient(t, server, clientToken)

	resp := doJSON(t, http.MethodPost, server.URL+"/v1/verifications", clientToken, map[string]string{
		"photo_file_id": "photo-abc",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.VerificationRequest
	decodeBody(t, resp, &created)

	url := fmt.Sprintf("%s/v1/verifications/%d/approve", server.URL, created.ID)
	resp = doJSON(t, http.MethodPost, url, adminToken, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, server.URL+"/v1/users/me", clientToken, nil)
	var user models.User
	decodeBody(t, resp, &user)
	assert.True(t, user.Verified)

	var remaining []models.VerificationRequest
	resp = doJSON(t, http.MethodGet, server.URL+"/v1/verifications", adminToken, nil)
	decodeBody(t, resp, &remaining)
	assert.Empty(t, remaining)
}

func TestStaffRosterEndpoints(t *testing.T) {
	server := newTestServer(t)
	adminToken := mintToken(t, adminID)

	resp := doJSON(t, http.MethodPost, server.URL+"/v1/staff", adminToken, map[string]interface{}{
		"user_id":   50,
		"full_name": "Olga",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// The new member passes the staff gate immediately.
	memberToken := mintToken(t, 50)
	resp = doJSON(t, http.MethodGet, server.URL+"/v1/staff", memberToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var members []models.StaffMember
	decodeBody(t, resp, &members)
	require.Len(t, members, 1)
	assert.Equal(t, int64(50), members[0].UserID)
}

func TestSessionEndpoints(t *testing.T) {
	server := newTestServer(t)
	adminToken := mintToken(t, adminID)
	url := fmt.Sprintf("%s/v1/sessions/%d", server.URL, clientID)

	resp := doJSON(t, http.MethodGet, url, adminToken, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, http.MethodPut, url, adminToken, map[string]interface{}{
		"state":        "awaiting_withdrawal_input",
		"request_kind": "withdrawal",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, url, adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var s session.Session
	decodeBody(t, resp, &s)
	assert.Equal(t, session.StateAwaitingWithdrawal, s.State)
	assert.Equal(t, clientID, s.UserID)

	req, err := http.NewRequest(http.MethodDelete, url, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	delResp.Body.Close()
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)
}

func TestSessionRejectsUnknownState(t *testing.T) {
	server := newTestServer(t)
	adminToken := mintToken(t, adminID)
	url := fmt.Sprintf("%s/v1/sessions/%d", server.URL, clientID)

	resp := doJSON(t, http.MethodPut, url, adminToken, map[string]string{"state": "typing"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthAndSpecEndpoints(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/openapi.yaml")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/yaml", resp.Header.Get("Content-Type"))

	resp, err = http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
