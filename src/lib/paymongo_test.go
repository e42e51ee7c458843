package lib

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"

	"stagelink/src/types"
)

func TestWebhookVerifier(t *testing.T) {
	v := &WebhookVerifier{Secret: "whsec_test"}
	payload := []byte(`{"data":{"attributes":{"type":"checkout_session.payment.paid"}}}`)
	header := v.Sign("1700000000", payload)

	t.Run("accepts a signed payload", func(t *testing.T) {
		assert.NoError(t, v.Verify(header, payload))
	})

	t.Run("rejects a tampered payload", func(t *testing.T) {
		tampered := []byte(`{"data":{"attributes":{"type":"checkout_session.payment.failed"}}}`)
		assert.ErrorIs(t, v.Verify(header, tampered), ErrInvalidSignature)
	})

	t.Run("rejects a missing header", func(t *testing.T) {
		assert.ErrorIs(t, v.Verify("", payload), ErrInvalidSignature)
	})

	t.Run("rejects a garbage header", func(t *testing.T) {
		assert.ErrorIs(t, v.Verify("not-a-signature", payload), ErrInvalidSignature)
	})

	t.Run("rejects a wrong secret", func(t *testing.T) {
		other := &WebhookVerifier{Secret: "whsec_other"}
		assert.ErrorIs(t, other.Verify(header, payload), ErrInvalidSignature)
	})

	t.Run("live mode checks the li digest", func(t *testing.T) {
		live := &WebhookVerifier{Secret: "whsec_test", LiveMode: true}
		assert.ErrorIs(t, live.Verify(header, payload), ErrInvalidSignature)
		assert.NoError(t, live.Verify(live.Sign("1700000000", payload), payload))
	})
}

func TestWebhookEventEnvelope(t *testing.T) {
	payload := []byte(`{
		"data": {
			"id": "evt_123",
			"attributes": {
				"type": "checkout_session.payment.paid",
				"data": {
					"id": "cs_abc",
					"attributes": {
						"payments": [{"id": "pay_1", "attributes": {"status": "paid"}}],
						"metadata": {"payment_id": "f00"}
					}
				}
			}
		}
	}`)
	var event WebhookEvent
	assert.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, "checkout_session.payment.paid", event.Type())
	assert.Equal(t, "cs_abc", event.CheckoutID())
	assert.Equal(t, "f00", event.Metadata()["payment_id"])
}

func TestCreateCheckoutSession(t *testing.T) {
	var gotAuth string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": {
				"id": "cs_test_123",
				"attributes": {
					"checkout_url": "https://checkout.example/cs_test_123",
					"status": "active",
					"metadata": {"payment_id": "abc"}
				}
			}
		}`))
	}))
	defer srv.Close()

	client := &PaymongoClient{
		SecretKey:  "sk_test_abc",
		BaseURL:    srv.URL,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}
	session, err := client.CreateCheckoutSession(context.Background(), &CheckoutSessionParams{
		LineItems: []CheckoutLineItem{
			{Name: "Reservation: Hamlet", Amount: 2500, Currency: "PHP", Quantity: 1},
		},
		PaymentMethodTypes: []string{"gcash"},
		SuccessURL:         "https://www.stagelink.show/shows/hamlet?payment=success",
		CancelURL:          "https://www.stagelink.show/shows/hamlet?payment=cancelled",
		Metadata:           map[string]string{"payment_id": "abc"},
	})
	assert.NoError(t, err)
	assert.Equal(t, "cs_test_123", session.ID)
	assert.Equal(t, "https://checkout.example/cs_test_123", session.CheckoutURL)
	assert.False(t, session.SessionPaid())

	expectedAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("sk_test_abc:"))
	assert.Equal(t, expectedAuth, gotAuth)

	sbody := string(gotBody)
	assert.Equal(t, "Reservation: Hamlet", gjson.Get(sbody, "data.attributes.line_items.0.name").String())
	assert.Equal(t, int64(2500), gjson.Get(sbody, "data.attributes.line_items.0.amount").Int())
	assert.Equal(t, "abc", gjson.Get(sbody, "data.attributes.metadata.payment_id").String())
}

func TestCreateCheckoutSessionProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors": [{"detail": "amount must be at least 2000"}]}`))
	}))
	defer srv.Close()

	client := &PaymongoClient{
		SecretKey:  "sk_test_abc",
		BaseURL:    srv.URL,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}
	_, err := client.CreateCheckoutSession(context.Background(), &CheckoutSessionParams{})
	assert.Error(t, err)
	var ue *types.UpstreamProviderError
	assert.ErrorAs(t, err, &ue)
	assert.Contains(t, ue.Detail, "amount must be at least")
}

func TestRetrieveCheckoutSessionPaid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/checkout_sessions/cs_test_123", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": {
				"id": "cs_test_123",
				"attributes": {
					"status": "active",
					"payments": [{"id": "pay_1", "attributes": {"status": "paid"}}]
				}
			}
		}`))
	}))
	defer srv.Close()

	client := &PaymongoClient{
		SecretKey:  "sk_test_abc",
		BaseURL:    srv.URL,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}
	session, err := client.RetrieveCheckoutSession(context.Background(), "cs_test_123")
	assert.NoError(t, err)
	assert.True(t, session.SessionPaid())
}
