package models

import (
	"stagelink/src/types"

	"github.com/google/uuid"
)

// GroupMember links a profile to a producer group. Scan permission is
// granted per membership, not derived from the member's role name.
type GroupMember struct {
	ID uint `gorm:"primarykey" json:"id"`

	ProfileID      uuid.UUID `gorm:"type:uuid;index" json:"profile_id"`
	GroupID        uuid.UUID `gorm:"type:uuid;index" json:"group_id"`
	Status         string    `gorm:"default:'active'" json:"status,omitempty"`
	RoleInGroup    string    `json:"role_in_group,omitempty"`
	CanScanTickets bool      `json:"can_scan_tickets"`

	Profile Profile `gorm:"foreignKey:profile_id" json:"profile,omitempty"`

	types.Timestamps
}
