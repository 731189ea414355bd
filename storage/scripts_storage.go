package storage

import (
	"strings"

	arrays "github.com/adam-hanna/arrayOperations"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/scriptsmgr/scriptsmgr/storage/model"
)

// ScriptsStorage provides CRUD access to Script records.
type ScriptsStorage struct {
	db *gorm.DB
}

type usageCount struct {
	ScriptID string
	Count    int64
}

// List returns all scripts, most recently updated first, with category and
// usage count
func (s *ScriptsStorage) List(filter model.ScriptFilter) ([]model.Script, error) {
	var items []model.Script
	if err := s.db.Preload("Category").Order("updated_at desc").Find(&items).Error; err != nil {
		return nil, errors.Wrap(err, "scripts: list failed")
	}
	if wanted := normalizeTags(filter.Tags); len(wanted) > 0 {
		matching := items[:0]
		for _, item := range items {
			if len(arrays.Intersect([]string(item.Tags), wanted)) == len(wanted) {
				matching = append(matching, item)
			}
		}
		items = matching
	}

	var counts []usageCount
	if err := s.db.Model(&model.ScriptUsage{}).
		Select("script_id, count(*) as count").
		Group("script_id").
		Scan(&counts).Error; err != nil {
		return nil, errors.Wrap(err, "scripts: usage count failed")
	}
	byScript := make(map[string]int64, len(counts))
	for _, c := range counts {
		byScript[c.ScriptID] = c.Count
	}
	for i := range items {
		items[i].UsageCount = byScript[items[i].ID]
	}
	return items, nil
}

// Catalog returns all scripts with their categories, unordered
func (s *ScriptsStorage) Catalog() ([]model.Script, error) {
	var items []model.Script
	if err := s.db.Preload("Category").
		Select("id", "name", "description", "category_id").
		Find(&items).Error; err != nil {
		return nil, errors.Wrap(err, "scripts: catalog failed")
	}
	return items, nil
}

// Get returns the script with the passed id
func (s *ScriptsStorage) Get(id string) (*model.Script, error) {
	var item model.Script
	if err := s.db.Preload("Category").Where("id = ?", id).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("script '%s' not found", id)
		}
		return nil, errors.Wrap(err, "scripts: get failed")
	}
	return &item, nil
}

// Create stores a new script. Execution policy bypass defaults to enabled,
// admin elevation to disabled.
func (s *ScriptsStorage) Create(add model.AddScript) (*model.Script, error) {
	if strings.TrimSpace(add.Name) == "" || add.Content == "" {
		return nil, model.ValidationError("name and content are required")
	}
	item := &model.Script{
		ID:                    newID(),
		Name:                  add.Name,
		Description:           add.Description,
		Content:               add.Content,
		RequireAdmin:          false,
		BypassExecutionPolicy: true,
		Tags:                  normalizeTags(add.Tags),
	}
	if add.RequireAdmin != nil {
		item.RequireAdmin = *add.RequireAdmin
	}
	if add.BypassExecutionPolicy != nil {
		item.BypassExecutionPolicy = *add.BypassExecutionPolicy
	}
	err := s.db.Transaction(
		func(tx *gorm.DB) error {
			categoryID, err := resolveCategory(tx, add.CategoryID)
			if err != nil {
				return err
			}
			item.CategoryID = categoryID
			return errors.Wrap(tx.Create(item).Error, "scripts: create failed")
		},
	)
	if err != nil {
		return nil, err
	}
	return s.Get(item.ID)
}

// Update applies a partial update to a script
func (s *ScriptsStorage) Update(id string, update model.UpdateScript) (*model.Script, error) {
	err := s.db.Transaction(
		func(tx *gorm.DB) error {
			var item model.Script
			if err := tx.Where("id = ?", id).First(&item).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return model.NotFoundErrorFmt("script '%s' not found", id)
				}
				return errors.Wrap(err, "scripts: update failed")
			}
			if update.Name != nil {
				if strings.TrimSpace(*update.Name) == "" {
					return model.ValidationError("name must not be empty")
				}
				item.Name = *update.Name
			}
			if update.Description != nil {
				item.Description = *update.Description
			}
			if update.Content != nil {
				if *update.Content == "" {
					return model.ValidationError("content must not be empty")
				}
				item.Content = *update.Content
			}
			if update.RequireAdmin != nil {
				item.RequireAdmin = *update.RequireAdmin
			}
			if update.BypassExecutionPolicy != nil {
				item.BypassExecutionPolicy = *update.BypassExecutionPolicy
			}
			if update.Tags != nil {
				item.Tags = normalizeTags(*update.Tags)
			}
			switch {
			case update.ClearCategory:
				item.CategoryID = nil
			case update.CategoryID != nil:
				categoryID, err := resolveCategory(tx, update.CategoryID)
				if err != nil {
					return err
				}
				item.CategoryID = categoryID
			}
			item.Category = nil
			return errors.Wrap(tx.Save(&item).Error, "scripts: update failed")
		},
	)
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Delete removes a script together with its usage records
func (s *ScriptsStorage) Delete(id string) error {
	return s.db.Transaction(
		func(tx *gorm.DB) error {
			if err := tx.Where("script_id = ?", id).Delete(&model.ScriptUsage{}).Error; err != nil {
				return errors.Wrap(err, "scripts: delete usages failed")
			}
			res := tx.Where("id = ?", id).Delete(&model.Script{})
			if res.Error != nil {
				return errors.Wrap(res.Error, "scripts: delete failed")
			}
			if res.RowsAffected == 0 {
				return model.NotFoundErrorFmt("script '%s' not found", id)
			}
			return nil
		},
	)
}

// resolveCategory checks that the referenced category exists; an empty id
// means uncategorized
func resolveCategory(tx *gorm.DB, id *string) (*string, error) {
	if id == nil || *id == "" {
		return nil, nil
	}
	var count int64
	if err := tx.Model(&model.Category{}).Where("id = ?", *id).Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "scripts: category lookup failed")
	}
	if count == 0 {
		return nil, model.ValidationError("Category not found")
	}
	categoryID := *id
	return &categoryID, nil
}
