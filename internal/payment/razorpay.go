// Package payment integrates the Razorpay gateway: order creation
// before checkout, signature verification after it, and refunds on
// cancellation.
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Order is a gateway order the client completes checkout against.
type Order struct {
	ID          string `json:"id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
}

// Service is the payment gateway surface the handlers depend on.
type Service interface {
	// CreateOrder opens a gateway order for the given amount.  The
	// receipt ties the order back to the reservation; when empty a
	// unique one is generated.
	CreateOrder(ctx context.Context, amountCents int64, receipt string) (*Order, error)
	// VerifySignature checks the checkout callback signature.
	VerifySignature(orderID, paymentID, signature string) bool
	// Refund returns the captured amount for a payment.
	Refund(ctx context.Context, paymentID string, amountCents int64) error
}

// Razorpay talks to the Razorpay REST API with basic auth.
type Razorpay struct {
	keyID   string
	secret  string
	baseURL string
	client  *http.Client
}

// NewRazorpay returns a gateway client, or nil when credentials are
// missing so callers can disable the payment routes.
func NewRazorpay(keyID, secret string) *Razorpay {
	if keyID == "" || secret == "" {
		return nil
	}
	return &Razorpay{
		keyID:   keyID,
		secret:  secret,
		baseURL: "https://api.razorpay.com/v1",
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateOrder opens an order for the amount.  Razorpay takes amounts
// in the currency's smallest unit, which is what we store already.
func (r *Razorpay) CreateOrder(ctx context.Context, amountCents int64, receipt string) (*Order, error) {
	if receipt == "" {
		receipt = "rcpt_" + uuid.NewString()
	}
	body := map[string]any{
		"amount":   amountCents,
		"currency": "INR",
		"receipt":  receipt,
	}
	var resp struct {
		ID       string `json:"id"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Receipt  string `json:"receipt"`
	}
	if err := r.post(ctx, "/orders", body, &resp); err != nil {
		return nil, err
	}
	return &Order{ID: resp.ID, AmountCents: resp.Amount, Currency: resp.Currency, Receipt: resp.Receipt}, nil
}

// VerifySignature checks the HMAC-SHA256 the gateway computes over
// "orderID|paymentID" with the key secret.  Constant-time compare.
func (r *Razorpay) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(r.secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Refund issues a full or partial refund against a captured payment.
func (r *Razorpay) Refund(ctx context.Context, paymentID string, amountCents int64) error {
	body := map[string]any{"amount": amountCents}
	return r.post(ctx, "/payments/"+paymentID+"/refund", body, nil)
}

func (r *Razorpay) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.SetBasicAuth(r.keyID, r.secret)
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("razorpay: %s returned %d: %s", path, resp.StatusCode, string(b))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
