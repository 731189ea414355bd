package storage

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/scriptsmgr/scriptsmgr/storage/model"
)

// FilesStorage provides access to UploadedFile records.
type FilesStorage struct {
	db *gorm.DB
}

// List returns all uploaded files, newest first
func (s *FilesStorage) List() ([]model.UploadedFile, error) {
	var items []model.UploadedFile
	if err := s.db.Order("created_at desc").Find(&items).Error; err != nil {
		return nil, errors.Wrap(err, "files: list failed")
	}
	return items, nil
}

// Get returns the file record with the passed id
func (s *FilesStorage) Get(id string) (*model.UploadedFile, error) {
	var item model.UploadedFile
	if err := s.db.Where("id = ?", id).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("file '%s' not found", id)
		}
		return nil, errors.Wrap(err, "files: get failed")
	}
	return &item, nil
}

// Create stores a file record; an empty ID is generated
func (s *FilesStorage) Create(file model.UploadedFile) (*model.UploadedFile, error) {
	if file.ID == "" {
		file.ID = newID()
	}
	if err := s.db.Create(&file).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, model.AlreadyExistsError("file already exists")
		}
		return nil, errors.Wrap(err, "files: create failed")
	}
	return &file, nil
}

// Delete removes a file record
func (s *FilesStorage) Delete(id string) error {
	res := s.db.Where("id = ?", id).Delete(&model.UploadedFile{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "files: delete failed")
	}
	if res.RowsAffected == 0 {
		return model.NotFoundErrorFmt("file '%s' not found", id)
	}
	return nil
}
