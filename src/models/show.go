package models

import (
	"time"

	"stagelink/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Show struct {
	ID          uuid.UUID        `gorm:"primarykey;type:uuid" json:"id"`
	Title       string           `json:"title"`
	Slug        string           `gorm:"index" json:"slug,omitempty"`
	Description string           `json:"description,omitempty"`
	Venue       string           `json:"venue,omitempty"`
	DateTime    *time.Time       `json:"date_time,omitempty"`
	Price       float64          `json:"price"`
	// ReservationFee overrides the computed fee when set by the producer.
	ReservationFee *float64         `json:"reservation_fee,omitempty"`
	ProducerID     uuid.UUID        `gorm:"type:uuid" json:"producer_id"`
	Status         types.ShowStatus `gorm:"default:'pending'" json:"status,omitempty"`
	IsFeatured     bool             `json:"is_featured,omitempty"`
	PosterURL      *string          `json:"poster_url,omitempty"`

	Producer *Profile `gorm:"foreignKey:producer_id" json:"producer,omitempty"`
	Tickets  []Ticket `gorm:"foreignKey:show_id" json:"tickets,omitempty"`

	types.Timestamps
}

// ProducerNiche exposes the producer's niche for fee computation. Callers
// must have preloaded the producer; a missing association means no niche.
func (s *Show) ProducerNiche() *string {
	if s.Producer == nil {
		return nil
	}
	return s.Producer.Niche
}

// Bookable reports whether reservations may be created against the show.
func (s *Show) Bookable() bool {
	return s.Status == types.SHOW_APPROVED
}

func (s *Show) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
