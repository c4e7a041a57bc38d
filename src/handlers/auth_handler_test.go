package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finlink-server/src/config"
	"finlink-server/src/dwolla"
	"finlink-server/src/errs"
	"finlink-server/src/logger"
	"finlink-server/src/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init("dev")
	m.Run()
}

type fakeCustomerCreator struct {
	calls  int
	result string
	err    error
}

func (f *fakeCustomerCreator) CreateCustomer(ctx context.Context, profile dwolla.CustomerProfile) (string, error) {
	f.calls++
	return f.result, f.err
}

func testConfig() *config.Config {
	return &config.Config{SessionTTL: time.Hour, SecureCookies: true}
}

const validSignUpBody = `{
	"email": "jane@example.com",
	"password": "Str0ng!pass",
	"first_name": "Jane",
	"last_name": "Doe",
	"address": "1 Main St",
	"city": "Springfield",
	"state": "IL",
	"postal_code": "62704",
	"date_of_birth": "1990-01-01",
	"ssn": "1234"
}`

func TestSignUpRejectsInvalidPayloadBeforeAnyExternalCall(t *testing.T) {
	rail := &fakeCustomerCreator{}
	handler := SignUp(testConfig(), rail, nil)

	for name, body := range map[string]string{
		"malformed json": `{`,
		"missing fields": `{"email": "jane@example.com", "password": "Str0ng!pass"}`,
		"bad email":      strings.Replace(validSignUpBody, "jane@example.com", "not-an-email", 1),
		"bad birth date": strings.Replace(validSignUpBody, "1990-01-01", "01/01/1990", 1),
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/sign-up", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
	assert.Zero(t, rail.calls)
}

func TestSignUpRejectsWeakPassword(t *testing.T) {
	rail := &fakeCustomerCreator{}
	handler := SignUp(testConfig(), rail, nil)

	body := strings.Replace(validSignUpBody, "Str0ng!pass", "weakpassword", 1)
	req := httptest.NewRequest(http.MethodPost, "/api/sign-up", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, rail.calls)
}

func TestSignUpAbortsWhenCustomerCreationFails(t *testing.T) {
	rail := &fakeCustomerCreator{
		err: errs.Errorf(errs.KindFundingSource, "dwolla.CreateCustomer", "rejected"),
	}
	handler := SignUp(testConfig(), rail, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/sign-up", strings.NewReader(validSignUpBody))
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, 1, rail.calls)

	// No session cookie on a failed sign-up.
	for _, cookie := range rec.Result().Cookies() {
		assert.NotEqual(t, util.SessionCookieName, cookie.Name)
	}
}

func TestSetAndClearSessionCookie(t *testing.T) {
	cfg := testConfig()

	rec := httptest.NewRecorder()
	setSessionCookie(rec, cfg, "secret-value")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, util.SessionCookieName, cookie.Name)
	assert.Equal(t, "secret-value", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, int(cfg.SessionTTL.Seconds()), cookie.MaxAge)

	rec = httptest.NewRecorder()
	clearSessionCookie(rec, cfg)

	cookies = rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, util.SessionCookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestSignOutWithoutCookieStillClearsAndSucceeds(t *testing.T) {
	handler := SignOut(testConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/sign-out", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, util.SessionCookieName, cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
