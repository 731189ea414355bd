package storage

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/scriptsmgr/scriptsmgr/storage/model"
)

// UsageStorage stores ScriptUsage events.
type UsageStorage struct {
	db *gorm.DB
}

// Record stores a usage event
func (s *UsageStorage) Record(usage model.ScriptUsage) error {
	usage.ID = 0
	usage.Script = nil
	return errors.Wrap(s.db.Create(&usage).Error, "usage: record failed")
}

// Recent returns the newest usage events including the script they refer to
func (s *UsageStorage) Recent(limit int) ([]model.ScriptUsage, error) {
	var items []model.ScriptUsage
	err := s.db.Preload(
		"Script", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name")
		},
	).Order("created_at desc").Order("id desc").Limit(limit).Find(&items).Error
	if err != nil {
		return nil, errors.Wrap(err, "usage: list failed")
	}
	return items, nil
}

// Count returns the total number of usage events
func (s *UsageStorage) Count() (int64, error) {
	var n int64
	if err := s.db.Model(&model.ScriptUsage{}).Count(&n).Error; err != nil {
		return 0, errors.Wrap(err, "usage: count failed")
	}
	return n, nil
}
