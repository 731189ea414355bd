package storage

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/scriptsmgr/scriptsmgr/storage/model"
)

// Storage is a GORM-based storage implementation
type Storage struct {
	db *gorm.DB
}

var models = []any{
	&model.Category{},
	&model.Script{},
	&model.UploadedFile{},
	&model.ScriptUsage{},
}

// NewStorage creates a new GORM-based storage
func NewStorage(config Config) (*Storage, error) {
	db, err := Connect(config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	return newStorage(db)
}

func newStorage(db *gorm.DB) (*Storage, error) {
	if err := db.AutoMigrate(models...); err != nil {
		return nil, errors.Wrap(err, "failed to migrate database")
	}
	return &Storage{db: db}, nil
}

// ScriptsStorage returns a ScriptsStorage
func (s *Storage) ScriptsStorage() *ScriptsStorage {
	return &ScriptsStorage{db: s.db}
}

// CategoriesStorage returns a CategoriesStorage
func (s *Storage) CategoriesStorage() *CategoriesStorage {
	return &CategoriesStorage{db: s.db}
}

// FilesStorage returns a FilesStorage
func (s *Storage) FilesStorage() *FilesStorage {
	return &FilesStorage{db: s.db}
}

// UsageStorage returns a UsageStorage
func (s *Storage) UsageStorage() *UsageStorage {
	return &UsageStorage{db: s.db}
}

// Backends returns all stores grouped as model.Backends
func (s *Storage) Backends() model.Backends {
	return model.Backends{
		Scripts:    s.ScriptsStorage(),
		Categories: s.CategoriesStorage(),
		Files:      s.FilesStorage(),
		Usage:      s.UsageStorage(),
	}
}

// Close closes the underlying database connection
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
