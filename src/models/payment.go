package models

import (
	"stagelink/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Payment struct {
	ID     uuid.UUID  `gorm:"primarykey;type:uuid" json:"id"`
	UserID *uuid.UUID `gorm:"type:uuid" json:"user_id,omitempty"`
	// Amount is in minor currency units, computed server-side from Show data.
	Amount int64               `json:"amount"`
	Status types.PaymentStatus `gorm:"default:'initialized'" json:"status"`
	// CheckoutID is the sole correlation key between provider webhooks and
	// this row. It holds a unique placeholder token until the provider
	// responds with the real checkout session id.
	CheckoutID        string              `gorm:"column:checkout_id;uniqueIndex" json:"-"`
	PaymentMethod     types.PaymentMethod `gorm:"default:'automated'" json:"payment_method,omitempty"`
	ProofOfPaymentURL *string             `json:"proof_of_payment_url,omitempty"`
	Description       string              `json:"description,omitempty"`
	CustomerEmail     *string             `json:"customer_email,omitempty"`
	CustomerName      *string             `json:"customer_name,omitempty"`

	Ticket *Ticket `gorm:"foreignKey:payment_id" json:"ticket,omitempty"`

	types.Timestamps
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
