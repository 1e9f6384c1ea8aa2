package http_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/good-ancestors/aisafetyforum-sub001/internal/config"
	apphttp "github.com/good-ancestors/aisafetyforum-sub001/internal/http"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/mailer"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/email"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/modules/payments"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/shared/dbtest"
	"github.com/good-ancestors/aisafetyforum-sub001/internal/storage"
)

const testSecret = "test-shared-secret"

type testApp struct {
	router  http.Handler
	db      *gorm.DB
	gateway *payments.MockGateway
	mails   *mailer.Mock
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db := dbtest.New(t)
	gw := &payments.MockGateway{}
	mails := &mailer.Mock{}

	cfg := config.Config{
		Env:              "dev",
		AuthSharedSecret: testSecret,
		Session: config.SessionConfig{
			CookieName: "aisf_session",
			TTL:        time.Hour,
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sender := email.NewMailerAdapter(mails, "noreply@aisafetyforum.org.au", "Australian AI Safety Forum")
	store := storage.NewLocal(t.TempDir(), "")

	r := apphttp.NewRouter(logger, db, cfg, gw, sender, store)
	return &testApp{router: r, db: db, gateway: gw, mails: mails}
}

// signIn runs the identity callback and returns the session cookie.
func (a *testApp) signIn(t *testing.T, emailAddr string) *http.Cookie {
	t.Helper()
	ts := time.Now().Unix()

	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(strings.ToLower(emailAddr)))
	mac.Write([]byte("\n"))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	sig := hex.EncodeToString(mac.Sum(nil))

	body := fmt.Sprintf(`{"email":%q,"timestamp":%d,"signature":%q}`, emailAddr, ts, sig)
	req := httptest.NewRequest(http.MethodPost, "/auth/callback", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, c := range w.Result().Cookies() {
		if c.Name == "aisf_session" {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func (a *testApp) do(t *testing.T, method, path, body string, cookie *http.Cookie) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var payload map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload), w.Body.String())
	}
	return w, payload
}

func TestAuth(t *testing.T) {
	app := newTestApp(t)

	// No session.
	w, payload := app.do(t, http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, payload["success"])
	assert.NotEmpty(t, payload["request_id"])

	// Bad signature.
	body := fmt.Sprintf(`{"email":"a@example.com","timestamp":%d,"signature":"deadbeef"}`, time.Now().Unix())
	w, _ = app.do(t, http.MethodPost, "/auth/callback", body, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Good signature.
	cookie := app.signIn(t, "a@example.com")
	w, payload = app.do(t, http.MethodGet, "/api/me", "", cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	dash := payload["dashboard"].(map[string]any)
	assert.Equal(t, "a@example.com", dash["email"])

	// Attendees are not admins.
	w, _ = app.do(t, http.MethodGet, "/admin/orders", "", cookie)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	app := newTestApp(t)
	cookie := app.signIn(t, "buyer@example.com")

	// Checkout two seats on a card.
	w, payload := app.do(t, http.MethodPost, "/api/orders", `{
		"purchaserName": "Buyer",
		"paymentMethod": "card",
		"cardToken": "pm_card_visa",
		"attendees": [
			{"name":"Alice","email":"alice@example.com","ticketType":"general","ticketPriceCents":15000},
			{"name":"Bob","email":"bob@example.com","ticketType":"general","ticketPriceCents":15000}
		]
	}`, cookie)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	orderID := payload["orderId"].(string)
	assert.Equal(t, true, payload["paid"])

	// Cancellation info advertises the refund.
	w, payload = app.do(t, http.MethodGet, "/api/orders/"+orderID+"/cancellation", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	info := payload["cancellation"].(map[string]any)
	assert.Equal(t, true, info["canCancel"])
	assert.Equal(t, true, info["canRefund"])

	// A stranger cannot even see the order.
	stranger := app.signIn(t, "stranger@example.com")
	w, _ = app.do(t, http.MethodGet, "/api/orders/"+orderID, "", stranger)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Cancel with refund.
	w, payload = app.do(t, http.MethodPost, "/api/orders/"+orderID+"/cancel", `{"refund":true}`, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, payload["refunded"])
	assert.Equal(t, float64(30000), payload["refundedCents"])
	require.Len(t, app.gateway.Refunds, 1)

	// The purchaser got a refund receipt.
	last, ok := app.mails.Last()
	require.True(t, ok)
	assert.Contains(t, last.Subject, "refund")

	// A second cancel conflicts.
	w, payload = app.do(t, http.MethodPost, "/api/orders/"+orderID+"/cancel", `{"refund":true}`, cookie)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, false, payload["success"])
}

func TestInvoiceRefundRejectedOverHTTP(t *testing.T) {
	app := newTestApp(t)
	cookie := app.signIn(t, "procurement@example.com")

	w, payload := app.do(t, http.MethodPost, "/api/orders", `{
		"purchaserName": "Procurement",
		"paymentMethod": "invoice",
		"organisation": "A University",
		"attendees": [
			{"name":"Alice","email":"alice@example.com","ticketType":"general","ticketPriceCents":15000}
		]
	}`, cookie)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	orderID := payload["orderId"].(string)
	assert.NotEmpty(t, payload["invoiceNumber"])

	w, _ = app.do(t, http.MethodPost, "/api/orders/"+orderID+"/cancel", `{"refund":true}`, cookie)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, app.gateway.Refunds)

	// Without the refund the cancellation goes through.
	w, _ = app.do(t, http.MethodPost, "/api/orders/"+orderID+"/cancel", `{"refund":false}`, cookie)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProposalEndpoints(t *testing.T) {
	app := newTestApp(t)
	owner := app.signIn(t, "speaker@example.com")
	other := app.signIn(t, "other@example.com")

	w, payload := app.do(t, http.MethodPost, "/api/scholarships", `{
		"name": "Grad",
		"affiliation": "A University",
		"motivation": "Travel support.",
		"amountRequestedCents": 80000
	}`, owner)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := payload["id"].(string)

	// Only the owner can edit.
	upd := `{"affiliation":"A University","motivation":"More detail.","amountRequestedCents":90000}`
	w, _ = app.do(t, http.MethodPut, "/api/scholarships/"+id, upd, other)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = app.do(t, http.MethodPut, "/api/scholarships/"+id, upd, owner)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = app.do(t, http.MethodDelete, "/api/scholarships/"+id, "", owner)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = app.do(t, http.MethodDelete, "/api/scholarships/"+id, "", owner)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
