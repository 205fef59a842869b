package document

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, doc *Document, pages []PageText, tables []Table, images []Image) error
	FindByID(ctx context.Context, id string) (*Document, error)
	List(ctx context.Context, skip, limit int) ([]Document, int64, error)
	FindOlderThan(ctx context.Context, cutoff time.Time) ([]Document, error)
	DeleteByID(ctx context.Context, id string) error
}

type RepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new document repository
func NewRepository(db *gorm.DB) Repository {
	return &RepositoryImpl{db: db}
}

// Create persists a document and all its children in a single transaction.
// The caller either gets the whole record or nothing.
func (r *RepositoryImpl) Create(ctx context.Context, doc *Document, pages []PageText, tables []Table, images []Image) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = time.Now().UTC()
		}

		if err := tx.Create(doc).Error; err != nil {
			return err
		}

		for i := range pages {
			pages[i].DocumentID = doc.ID
		}
		if len(pages) > 0 {
			if err := tx.Create(&pages).Error; err != nil {
				return err
			}
		}

		for i := range tables {
			tables[i].DocumentID = doc.ID
		}
		if len(tables) > 0 {
			if err := tx.Create(&tables).Error; err != nil {
				return err
			}
		}

		for i := range images {
			images[i].DocumentID = doc.ID
		}
		if len(images) > 0 {
			if err := tx.Create(&images).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// FindByID loads a document with all its children
func (r *RepositoryImpl) FindByID(ctx context.Context, id string) (*Document, error) {
	var doc Document
	err := r.db.WithContext(ctx).
		Preload("PageTexts", func(db *gorm.DB) *gorm.DB {
			return db.Order("page_number ASC")
		}).
		Preload("Tables", func(db *gorm.DB) *gorm.DB {
			return db.Order("page_number ASC, table_index ASC")
		}).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("page_number ASC, image_index ASC")
		}).
		First(&doc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// List returns documents newest first plus the total count for pagination
func (r *RepositoryImpl) List(ctx context.Context, skip, limit int) ([]Document, int64, error) {
	var documents []Document
	var total int64

	if err := r.db.WithContext(ctx).Model(&Document{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Preload("PageTexts").
		Preload("Tables").
		Preload("Images").
		Order("created_at DESC").
		Offset(skip).
		Limit(limit).
		Find(&documents).Error

	return documents, total, err
}

// FindOlderThan returns the retention candidate set with image metadata
// preloaded, so file deletion can run before rows are removed
func (r *RepositoryImpl) FindOlderThan(ctx context.Context, cutoff time.Time) ([]Document, error) {
	var documents []Document
	err := r.db.WithContext(ctx).
		Preload("Images").
		Where("created_at < ?", cutoff).
		Find(&documents).Error
	return documents, err
}

// DeleteByID removes a document and its children together. Child rows go
// first so a failed transaction never leaves orphans.
func (r *RepositoryImpl) DeleteByID(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&PageText{}).Error; err != nil {
			return err
		}
		if err := tx.Where("document_id = ?", id).Delete(&Table{}).Error; err != nil {
			return err
		}
		if err := tx.Where("document_id = ?", id).Delete(&Image{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Document{}, "id = ?", id).Error
	})
}
