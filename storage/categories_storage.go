package storage

import (
	"database/sql"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/scriptsmgr/scriptsmgr/storage/model"
)

// CategoriesStorage provides CRUD access to Category records.
type CategoriesStorage struct {
	db *gorm.DB
}

type scriptCount struct {
	CategoryID string
	Count      int64
}

// List returns all categories by menu order with their script counts
func (s *CategoriesStorage) List() ([]model.Category, error) {
	var items []model.Category
	if err := s.db.Order("sort_order asc").Order("name asc").Find(&items).Error; err != nil {
		return nil, errors.Wrap(err, "categories: list failed")
	}
	var counts []scriptCount
	if err := s.db.Model(&model.Script{}).
		Select("category_id, count(*) as count").
		Where("category_id IS NOT NULL").
		Group("category_id").
		Scan(&counts).Error; err != nil {
		return nil, errors.Wrap(err, "categories: script count failed")
	}
	byCategory := make(map[string]int64, len(counts))
	for _, c := range counts {
		byCategory[c.CategoryID] = c.Count
	}
	for i := range items {
		items[i].ScriptCount = byCategory[items[i].ID]
	}
	return items, nil
}

// Get returns the category with the passed id including its scripts
func (s *CategoriesStorage) Get(id string) (*model.Category, error) {
	var item model.Category
	if err := s.db.Preload("Scripts").Where("id = ?", id).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("category '%s' not found", id)
		}
		return nil, errors.Wrap(err, "categories: get failed")
	}
	item.ScriptCount = int64(len(item.Scripts))
	return &item, nil
}

// Create stores a new category placed after all existing ones
func (s *CategoriesStorage) Create(add model.AddCategory) (*model.Category, error) {
	name := strings.TrimSpace(add.Name)
	if name == "" {
		return nil, model.ValidationError("name is required")
	}
	item := &model.Category{
		ID:   newID(),
		Name: name,
	}
	err := s.db.Transaction(
		func(tx *gorm.DB) error {
			var maxOrder sql.NullInt64
			if err := tx.Model(&model.Category{}).Select("MAX(sort_order)").Scan(&maxOrder).Error; err != nil {
				return errors.Wrap(err, "categories: order lookup failed")
			}
			if maxOrder.Valid {
				item.Order = int(maxOrder.Int64) + 1
			}
			if err := tx.Create(item).Error; err != nil {
				if isUniqueConstraintError(err) {
					return model.AlreadyExistsError("category already exists")
				}
				return errors.Wrap(err, "categories: create failed")
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Update renames or reorders a category
func (s *CategoriesStorage) Update(id string, update model.UpdateCategory) (*model.Category, error) {
	var item model.Category
	if err := s.db.Where("id = ?", id).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("category '%s' not found", id)
		}
		return nil, errors.Wrap(err, "categories: update failed")
	}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, model.ValidationError("name must not be empty")
		}
		item.Name = name
	}
	if update.Order != nil {
		item.Order = *update.Order
	}
	if err := s.db.Save(&item).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, model.AlreadyExistsError("category already exists")
		}
		return nil, errors.Wrap(err, "categories: update failed")
	}
	return &item, nil
}

// Delete removes a category; its scripts become uncategorized
func (s *CategoriesStorage) Delete(id string) error {
	return s.db.Transaction(
		func(tx *gorm.DB) error {
			if err := tx.Model(&model.Script{}).
				Where("category_id = ?", id).
				Update("category_id", nil).Error; err != nil {
				return errors.Wrap(err, "categories: detach scripts failed")
			}
			res := tx.Where("id = ?", id).Delete(&model.Category{})
			if res.Error != nil {
				return errors.Wrap(res.Error, "categories: delete failed")
			}
			if res.RowsAffected == 0 {
				return model.NotFoundErrorFmt("category '%s' not found", id)
			}
			return nil
		},
	)
}
