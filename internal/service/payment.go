package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// CheckoutSession is a pending payment handed to the client
type CheckoutSession struct {
	ID         string  `json:"id"`
	Reference  string  `json:"reference"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	TourID     string  `json:"tour"`
	UserEmail  string  `json:"customerEmail"`
	SuccessURL string  `json:"successUrl"`
	CancelURL  string  `json:"cancelUrl"`
}

// PaymentGateway creates checkout sessions with an external processor
type PaymentGateway interface {
	CreateSession(ctx context.Context, session *CheckoutSession) (*CheckoutSession, error)
}

// HostedGateway is the default gateway. It assigns session identifiers
// locally; the hosted payment page resolves them at checkout time.
type HostedGateway struct{}

// CreateSession assigns a session id and returns the session unchanged
// otherwise
func (HostedGateway) CreateSession(ctx context.Context, session *CheckoutSession) (*CheckoutSession, error) {
	session.ID = fmt.Sprintf("cs_%s", uuid.NewString())
	return session, nil
}

// WebhookVerifier checks payment-event signatures
type WebhookVerifier struct {
	secret []byte
}

// NewWebhookVerifier creates a verifier with the shared webhook secret
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: []byte(secret)}
}

// Verify checks a hex HMAC-SHA256 signature over the raw event body
func (v *WebhookVerifier) Verify(body []byte, signature string) error {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrBadSignature
	}
	return nil
}
