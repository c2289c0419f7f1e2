package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	rz := NewRazorpay("key", "secret")
	require.NotNil(t, rz)

	good := sign("secret", "order_1", "pay_1")
	assert.True(t, rz.VerifySignature("order_1", "pay_1", good))
	assert.False(t, rz.VerifySignature("order_1", "pay_1", "deadbeef"))
	assert.False(t, rz.VerifySignature("order_2", "pay_1", good))
	assert.False(t, rz.VerifySignature("order_1", "pay_1", ""))
}

func TestNewRazorpayWithoutCredentials(t *testing.T) {
	assert.Nil(t, NewRazorpay("", "secret"))
	assert.Nil(t, NewRazorpay("key", ""))
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 45000, body["amount"])
		assert.Equal(t, "INR", body["currency"])

		json.NewEncoder(w).Encode(map[string]any{
			"id":       "order_test",
			"amount":   body["amount"],
			"currency": body["currency"],
			"receipt":  body["receipt"],
		})
	}))
	defer srv.Close()

	rz := NewRazorpay("key", "secret")
	rz.baseURL = srv.URL

	order, err := rz.CreateOrder(context.Background(), 45000, "resv_7")
	require.NoError(t, err)
	assert.Equal(t, "order_test", order.ID)
	assert.EqualValues(t, 45000, order.AmountCents)
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, "resv_7", order.Receipt)
}

func TestCreateOrderGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	rz := NewRazorpay("key", "secret")
	rz.baseURL = srv.URL

	_, err := rz.CreateOrder(context.Background(), 100, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestRefund(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payments/pay_9/refund", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 45000, body["amount"])
		w.Write([]byte(`{"id":"rfnd_1"}`))
	}))
	defer srv.Close()

	rz := NewRazorpay("key", "secret")
	rz.baseURL = srv.URL

	require.NoError(t, rz.Refund(context.Background(), "pay_9", 45000))
}
