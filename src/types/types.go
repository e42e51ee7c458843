package types

import (
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type ShowStatus string

const (
	SHOW_PENDING  ShowStatus = "pending"
	SHOW_APPROVED ShowStatus = "approved"
	SHOW_REJECTED ShowStatus = "rejected"
	SHOW_ARCHIVED ShowStatus = "archived"
)

type PaymentStatus string

const (
	PAYMENT_INITIALIZED PaymentStatus = "initialized"
	PAYMENT_PENDING     PaymentStatus = "pending"
	PAYMENT_PAID        PaymentStatus = "paid"
	PAYMENT_FAILED      PaymentStatus = "failed"
)

// Terminal reports whether no further transition is permitted from s.
func (s PaymentStatus) Terminal() bool {
	return s == PAYMENT_PAID || s == PAYMENT_FAILED
}

// CanTransition enforces the closed payment lifecycle:
// initialized -> pending -> {paid, failed}.
func (s PaymentStatus) CanTransition(to PaymentStatus) bool {
	switch s {
	case PAYMENT_INITIALIZED:
		return to == PAYMENT_PENDING || to == PAYMENT_PAID || to == PAYMENT_FAILED
	case PAYMENT_PENDING:
		return to == PAYMENT_PAID || to == PAYMENT_FAILED
	default:
		return false
	}
}

type PaymentMethod string

const (
	PAYMENT_METHOD_AUTOMATED PaymentMethod = "automated"
	PAYMENT_METHOD_MANUAL    PaymentMethod = "manual"
)

type TicketStatus string

const (
	TICKET_PENDING   TicketStatus = "pending"
	TICKET_CONFIRMED TicketStatus = "confirmed"
	TICKET_CANCELLED TicketStatus = "cancelled"
	TICKET_USED      TicketStatus = "used"
)

func (s TicketStatus) Terminal() bool {
	return s == TICKET_USED || s == TICKET_CANCELLED
}

// CanTransition enforces pending -> confirmed -> used and pending -> cancelled.
func (s TicketStatus) CanTransition(to TicketStatus) bool {
	switch s {
	case TICKET_PENDING:
		return to == TICKET_CONFIRMED || to == TICKET_CANCELLED
	case TICKET_CONFIRMED:
		return to == TICKET_USED
	default:
		return false
	}
}

type ProfileRole string

const (
	ROLE_MEMBER   ProfileRole = "member"
	ROLE_PRODUCER ProfileRole = "producer"
	ROLE_ADMIN    ProfileRole = "admin"
)

type SimpleRequestParams struct {
	ID string `uri:"id" binding:"required,uuid"`
}

type CreateShowRequestBody struct {
	Title          string   `json:"title" binding:"required"`
	Description    string   `json:"description,omitempty"`
	Venue          string   `json:"venue" binding:"required"`
	DateTime       string   `json:"date_time" binding:"required,bookabledate"`
	Price          float64  `json:"price" binding:"required,gt=0"`
	ReservationFee *float64 `json:"reservation_fee,omitempty" binding:"omitempty,gt=0"`
}

type ReviewShowRequestBody struct {
	ShowID string `json:"show_id" binding:"required,uuid"`
	Action string `json:"action" binding:"required,oneof=approve reject"`
}

type CreateCheckoutRequestBody struct {
	ShowID     string  `json:"show_id" binding:"required,uuid"`
	UserID     *string `json:"user_id,omitempty" binding:"omitempty,uuid"`
	GuestEmail *string `json:"guest_email,omitempty" binding:"omitempty,email"`
	GuestName  *string `json:"guest_name,omitempty"`
}

type CreateManualPaymentRequestBody struct {
	ShowID     string  `json:"show_id" binding:"required,uuid"`
	UserID     *string `json:"user_id,omitempty" binding:"omitempty,uuid"`
	ProofURL   string  `json:"proof_url" binding:"required,url"`
	GuestEmail *string `json:"guest_email,omitempty" binding:"omitempty,email"`
	GuestName  *string `json:"guest_name,omitempty"`
}

type ReviewPaymentRequestBody struct {
	PaymentID string `json:"payment_id" binding:"required,uuid"`
	Action    string `json:"action" binding:"required,oneof=approve reject"`
}

type ScanTicketRequestBody struct {
	TicketID   *string `json:"ticket_id,omitempty" binding:"omitempty,uuid"`
	AccessCode *string `json:"access_code,omitempty"`
	ShowID     *string `json:"show_id,omitempty" binding:"omitempty,uuid"`
}

// ScannedTicket is the ticket summary returned by the scan endpoint. The
// scanner UI renders it for both successful check-ins and soft failures.
type ScannedTicket struct {
	ID          string       `json:"id"`
	Status      TicketStatus `json:"status"`
	CheckedInAt *time.Time   `json:"checked_in_at,omitempty"`
	Attendee    string       `json:"attendee"`
	Type        string       `json:"type,omitempty"`
}

type ScanTicketResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Ticket  *ScannedTicket `json:"ticket,omitempty"`
}
