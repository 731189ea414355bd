package model

import (
	"time"
)

// Category groups scripts in the menu. Order defines the menu position.
type Category struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Order     int       `gorm:"column:sort_order;index" json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Scripts   []Script  `json:"scripts,omitempty"`
	// ScriptCount is filled by list queries
	ScriptCount int64 `gorm:"-" json:"scriptCount"`
}

// AddCategory is the input for creating a Category
type AddCategory struct {
	Name string `json:"name"`
}

// UpdateCategory is a partial update of a Category
type UpdateCategory struct {
	Name  *string `json:"name"`
	Order *int    `json:"order"`
}

// CategoriesStore is the abstraction used by handlers.
type CategoriesStore interface {
	List() ([]Category, error)
	Get(id string) (*Category, error)
	Create(add AddCategory) (*Category, error)
	Update(id string, update UpdateCategory) (*Category, error)
	Delete(id string) error
}
