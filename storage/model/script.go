package model

import (
	"time"

	"gorm.io/datatypes"
)

// Script is a stored PowerShell script
type Script struct {
	ID                    string                      `gorm:"primaryKey;size:36" json:"id"`
	Name                  string                      `gorm:"size:255;not null" json:"name"`
	Description           string                      `gorm:"type:text" json:"description"`
	Content               string                      `gorm:"type:text;not null" json:"content"`
	RequireAdmin          bool                        `json:"requireAdmin"`
	BypassExecutionPolicy bool                        `json:"bypassExecutionPolicy"`
	Tags                  datatypes.JSONSlice[string] `json:"tags"`
	CategoryID            *string                     `gorm:"size:36;index" json:"categoryId"`
	Category              *Category                   `gorm:"constraint:OnDelete:SET NULL" json:"category,omitempty"`
	CreatedAt             time.Time                   `json:"createdAt"`
	UpdatedAt             time.Time                   `json:"updatedAt"`
	// UsageCount is filled by list queries
	UsageCount int64 `gorm:"-" json:"usageCount"`
}

// AddScript is the input for creating a Script
type AddScript struct {
	Name                  string   `json:"name"`
	Description           string   `json:"description"`
	Content               string   `json:"content"`
	RequireAdmin          *bool    `json:"requireAdmin"`
	BypassExecutionPolicy *bool    `json:"bypassExecutionPolicy"`
	Tags                  []string `json:"tags"`
	CategoryID            *string  `json:"categoryId"`
}

// UpdateScript is a partial update of a Script; nil fields are left
// untouched. ClearCategory removes the category assignment.
type UpdateScript struct {
	Name                  *string   `json:"name"`
	Description           *string   `json:"description"`
	Content               *string   `json:"content"`
	RequireAdmin          *bool     `json:"requireAdmin"`
	BypassExecutionPolicy *bool     `json:"bypassExecutionPolicy"`
	Tags                  *[]string `json:"tags"`
	CategoryID            *string   `json:"categoryId"`
	ClearCategory         bool      `json:"-"`
}

// ScriptFilter restricts script listings
type ScriptFilter struct {
	// Tags, if set, only matches scripts carrying all of them
	Tags []string
}

// ScriptsStore is the abstraction used by handlers.
type ScriptsStore interface {
	List(filter ScriptFilter) ([]Script, error)
	Catalog() ([]Script, error)
	Get(id string) (*Script, error)
	Create(add AddScript) (*Script, error)
	Update(id string, update UpdateScript) (*Script, error)
	Delete(id string) error
}
