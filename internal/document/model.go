package document

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document is the root record for one processed PDF. Documents are
// write-once: children are created together with the document and never
// updated afterwards.
type Document struct {
	ID               string     `gorm:"primaryKey" json:"id"`
	OriginalFilename string     `gorm:"not null" json:"original_filename"`
	StoredFilename   string     `gorm:"not null" json:"stored_filename"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        *time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`

	PageTexts []PageText `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Tables    []Table    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Images    []Image    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// PageText holds the concatenated text of one page. Every page of the
// source PDF gets a row, empty pages included, so page addressing stays
// contiguous.
type PageText struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	DocumentID string    `gorm:"not null;index" json:"document_id"`
	PageNumber int       `gorm:"not null" json:"page_number"`
	Content    string    `gorm:"type:text" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// Table holds one extracted table, JSON-encoded rows of cell strings.
// TableIndex orders multiple tables on the same page.
type Table struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	DocumentID string    `gorm:"not null;index" json:"document_id"`
	PageNumber int       `gorm:"not null" json:"page_number"`
	TableIndex int       `gorm:"not null" json:"table_index"`
	TableData  string    `gorm:"type:text;not null" json:"table_data"`
	CreatedAt  time.Time `json:"created_at"`
}

// Image holds metadata for one extracted image file. ImageIndex is 1-based
// and unique within a page.
type Image struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	DocumentID string    `gorm:"not null;index" json:"document_id"`
	PageNumber int       `gorm:"not null" json:"page_number"`
	ImageIndex int       `gorm:"not null" json:"image_index"`
	Filename   string    `gorm:"not null" json:"filename"`
	CreatedAt  time.Time `json:"created_at"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

func (p *PageText) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (t *Table) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

func (i *Image) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
