package models

import (
	"time"
)

// AdminAudit records review actions taken by an operator (spam marks, purges).
type AdminAudit struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UUID      string    `json:"uuid" gorm:"uniqueIndex"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	VisitorID string    `json:"visitor_id,omitempty" gorm:"index"`
	Affected  int64     `json:"affected"`
	Details   string    `json:"details" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}
