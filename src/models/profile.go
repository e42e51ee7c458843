package models

import (
	"stagelink/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Profile struct {
	ID        uuid.UUID         `gorm:"primarykey;type:uuid" json:"id"`
	UserID    string            `gorm:"uniqueIndex" json:"user_id"`
	Username  string            `json:"username,omitempty"`
	Email     string            `json:"email,omitempty"`
	Role      types.ProfileRole `gorm:"default:'member'" json:"role,omitempty"`
	Niche     *string           `json:"niche,omitempty"`
	GroupName *string           `json:"group_name,omitempty"`
	AvatarURL *string           `json:"avatar_url,omitempty"`

	Shows []Show `gorm:"foreignKey:producer_id" json:"shows,omitempty"`

	types.Timestamps
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
