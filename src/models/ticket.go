package models

import (
	"time"

	"stagelink/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Ticket struct {
	ID     uuid.UUID  `gorm:"primarykey;type:uuid" json:"id"`
	ShowID uuid.UUID  `gorm:"type:uuid" json:"show_id"`
	UserID *uuid.UUID `gorm:"type:uuid" json:"user_id,omitempty"`
	// PaymentID is 1:1 with Payment; ticket status is derived from it.
	PaymentID uuid.UUID          `gorm:"type:uuid;uniqueIndex" json:"payment_id"`
	Status    types.TicketStatus `gorm:"default:'pending'" json:"status"`
	// AccessCode is the human-enterable fallback for scanners, stored
	// uppercase and matched case-insensitively.
	AccessCode    string     `gorm:"uniqueIndex" json:"access_code,omitempty"`
	CustomerEmail *string    `json:"customer_email,omitempty"`
	CustomerName  *string    `json:"customer_name,omitempty"`
	CheckedInAt   *time.Time `json:"checked_in_at,omitempty"`
	CheckedInBy   *uuid.UUID `gorm:"type:uuid" json:"checked_in_by,omitempty"`

	Show    Show     `json:"show,omitempty"`
	Payment *Payment `gorm:"foreignKey:payment_id;references:id" json:"payment,omitempty"`
	Holder  *Profile `gorm:"foreignKey:user_id" json:"holder,omitempty"`

	types.Timestamps
}

func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// ContactEmail resolves where notifications for this ticket should go.
func (t *Ticket) ContactEmail() string {
	if t.Holder != nil && t.Holder.Email != "" {
		return t.Holder.Email
	}
	if t.CustomerEmail != nil {
		return *t.CustomerEmail
	}
	return ""
}

// Attendee resolves the display name shown by the scanner UI.
func (t *Ticket) Attendee() string {
	if t.Holder != nil && t.Holder.Username != "" {
		return t.Holder.Username
	}
	if t.CustomerName != nil && *t.CustomerName != "" {
		return *t.CustomerName
	}
	return "Guest"
}
