package model

import (
	"time"
)

// ScriptUsage records one delivery of a script to a client
type ScriptUsage struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	ScriptID  string    `gorm:"size:36;index" json:"scriptId"`
	Script    *Script   `gorm:"constraint:OnDelete:CASCADE" json:"script,omitempty"`
	IP        string    `gorm:"size:255" json:"ip"`
	Country   string    `gorm:"size:2" json:"country,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

// UsageStore is the abstraction used by handlers and the usage recorder.
type UsageStore interface {
	Record(usage ScriptUsage) error
	Recent(limit int) ([]ScriptUsage, error)
	Count() (int64, error)
}
