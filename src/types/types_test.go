package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentStatusTransitions(t *testing.T) {
	assert.True(t, PAYMENT_INITIALIZED.CanTransition(PAYMENT_PENDING))
	assert.True(t, PAYMENT_INITIALIZED.CanTransition(PAYMENT_FAILED))
	assert.True(t, PAYMENT_PENDING.CanTransition(PAYMENT_PAID))
	assert.True(t, PAYMENT_PENDING.CanTransition(PAYMENT_FAILED))

	// Terminal states never move again.
	for _, terminal := range []PaymentStatus{PAYMENT_PAID, PAYMENT_FAILED} {
		assert.True(t, terminal.Terminal())
		for _, to := range []PaymentStatus{PAYMENT_INITIALIZED, PAYMENT_PENDING, PAYMENT_PAID, PAYMENT_FAILED} {
			assert.Falsef(t, terminal.CanTransition(to), "%s -> %s should be rejected", terminal, to)
		}
	}

	assert.False(t, PAYMENT_PENDING.CanTransition(PAYMENT_INITIALIZED))
}

func TestTicketStatusTransitions(t *testing.T) {
	assert.True(t, TICKET_PENDING.CanTransition(TICKET_CONFIRMED))
	assert.True(t, TICKET_PENDING.CanTransition(TICKET_CANCELLED))
	assert.True(t, TICKET_CONFIRMED.CanTransition(TICKET_USED))

	assert.False(t, TICKET_PENDING.CanTransition(TICKET_USED))
	assert.False(t, TICKET_CONFIRMED.CanTransition(TICKET_CANCELLED))
	assert.False(t, TICKET_USED.CanTransition(TICKET_CONFIRMED))
	assert.False(t, TICKET_CANCELLED.CanTransition(TICKET_CONFIRMED))

	assert.True(t, TICKET_USED.Terminal())
	assert.True(t, TICKET_CANCELLED.Terminal())
	assert.False(t, TICKET_CONFIRMED.Terminal())
}
