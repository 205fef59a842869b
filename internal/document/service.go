package document

import (
	"context"
	"encoding/json"
	defError "errors"
	"fmt"
	"time"

	apiError "pdf-extractor-api/internal/errors"
	"pdf-extractor-api/internal/logger"
	"pdf-extractor-api/internal/pdf"
	"pdf-extractor-api/redis"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListVersionKey is bumped whenever the set of documents changes, so
// cached listings from before the change are bypassed
const ListVersionKey = "docs:version"

type Service interface {
	Extract(ctx context.Context, data []byte, originalFilename string) (*ExtractResponse, error)
	GetByID(ctx context.Context, id string) (*ExtractResponse, error)
	List(ctx context.Context, skip, limit int) (*ListResponse, error)
}

// FileWriter is the slice of the file store the orchestrator needs
type FileWriter interface {
	SavePDF(documentID string, data []byte) (string, error)
	SaveImage(documentID string, page, index int, ext string, data []byte) (string, error)
	RemovePDF(storedFilename string) error
	RemoveImage(filename string) error
}

type DefaultService struct {
	repository Repository
	decoder    pdf.Decoder
	files      FileWriter
	cache      *redis.Cache
	apiPrefix  string
}

func NewService(
	repository Repository,
	decoder pdf.Decoder,
	files FileWriter,
	cache *redis.Cache,
	apiPrefix string,
) Service {
	return &DefaultService{
		repository: repository,
		decoder:    decoder,
		files:      files,
		cache:      cache,
		apiPrefix:  apiPrefix,
	}
}

type TextData struct {
	Pages map[string]string `json:"pages"`
}

type TableData struct {
	Pages map[string][][][]string `json:"pages"`
}

type ImageLink struct {
	URL        string `json:"url"`
	Page       int    `json:"page"`
	Index      int    `json:"index"`
	Filename   string `json:"filename"`
	DocumentID string `json:"document_id"`
}

type ExtractResponse struct {
	ID        string      `json:"id"`
	Filename  string      `json:"filename"`
	Text      TextData    `json:"text"`
	Tables    TableData   `json:"tables"`
	Images    []ImageLink `json:"images"`
	CreatedAt time.Time   `json:"created_at"`
}

type DocumentSummary struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	CreatedAt        time.Time `json:"created_at"`
	PageCount        int       `json:"page_count"`
	TableCount       int       `json:"table_count"`
	ImageCount       int       `json:"image_count"`
}

type ListResponse struct {
	Documents []DocumentSummary `json:"documents"`
	Total     int64             `json:"total"`
	Skip      int               `json:"skip"`
	Limit     int               `json:"limit"`
}

// Extract runs the full pipeline for one upload: persist the raw PDF,
// decode it, write extracted images to disk, then persist all rows as one
// unit. Each step that touches disk pushes a compensating delete; on any
// later failure the stack runs in reverse so no orphaned files survive a
// failed extraction.
func (s *DefaultService) Extract(ctx context.Context, data []byte, originalFilename string) (*ExtractResponse, error) {
	id := uuid.NewString()

	var compensations []func()
	rollback := func() {
		for i := len(compensations) - 1; i >= 0; i-- {
			compensations[i]()
		}
	}

	storedFilename, err := s.files.SavePDF(id, data)
	if err != nil {
		return nil, apiError.Internal(fmt.Errorf("save uploaded pdf: %w", err))
	}
	compensations = append(compensations, func() {
		if err := s.files.RemovePDF(storedFilename); err != nil {
			logger.Log.Error().Err(err).Str("document_id", id).Msg("rollback: failed to remove pdf")
		}
	})

	pages, err := s.decoder.Decode(ctx, data)
	if err != nil {
		rollback()
		return nil, apiError.BadRequest("Error processing PDF: file is not a readable PDF", err)
	}

	doc := &Document{
		ID:               id,
		OriginalFilename: originalFilename,
		StoredFilename:   storedFilename,
		CreatedAt:        time.Now().UTC(),
	}

	pageTexts := make([]PageText, 0, len(pages))
	var tables []Table
	var images []Image
	var links []ImageLink

	for _, page := range pages {
		pageTexts = append(pageTexts, PageText{
			PageNumber: page.Number,
			Content:    page.Text,
		})

		for tableIndex, tbl := range page.Tables {
			encoded, err := json.Marshal(tbl)
			if err != nil {
				logger.Log.Warn().Err(err).Str("document_id", id).Int("page", page.Number).Msg("skipping unencodable table")
				continue
			}
			tables = append(tables, Table{
				PageNumber: page.Number,
				TableIndex: tableIndex,
				TableData:  string(encoded),
			})
		}

		for i, img := range page.Images {
			index := i + 1
			filename, err := s.files.SaveImage(id, page.Number, index, img.Ext, img.Data)
			if err != nil {
				// One unwritable image must not discard the rest of
				// the extraction
				logger.Log.Warn().Err(err).Str("document_id", id).Int("page", page.Number).Int("index", index).Msg("skipping image that failed to write")
				continue
			}
			compensations = append(compensations, func() {
				if err := s.files.RemoveImage(filename); err != nil {
					logger.Log.Error().Err(err).Str("filename", filename).Msg("rollback: failed to remove image")
				}
			})

			images = append(images, Image{
				PageNumber: page.Number,
				ImageIndex: index,
				Filename:   filename,
			})
			links = append(links, ImageLink{
				URL:        s.imageURL(filename),
				Page:       page.Number,
				Index:      index,
				Filename:   filename,
				DocumentID: id,
			})
		}
	}

	if err := s.repository.Create(ctx, doc, pageTexts, tables, images); err != nil {
		rollback()
		return nil, apiError.Internal(fmt.Errorf("persist document: %w", err))
	}

	// New document invalidates cached listings
	s.cache.IncrementVersion(ctx, ListVersionKey)

	logger.Log.Info().
		Str("document_id", id).
		Int("pages", len(pageTexts)).
		Int("tables", len(tables)).
		Int("images", len(images)).
		Msg("document extracted")

	return &ExtractResponse{
		ID:        id,
		Filename:  originalFilename,
		Text:      textData(pageTexts),
		Tables:    tableData(tables),
		Images:    links,
		CreatedAt: doc.CreatedAt,
	}, nil
}

func (s *DefaultService) GetByID(ctx context.Context, id string) (*ExtractResponse, error) {
	cacheKey := CacheKey(id)

	var cached ExtractResponse
	if found, _ := s.cache.Get(ctx, cacheKey, &cached); found {
		return &cached, nil
	}

	doc, err := s.repository.FindByID(ctx, id)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.NotFound(fmt.Sprintf("Document with ID %s not found", id), err)
		}
		return nil, err
	}

	response := s.buildResponse(doc)
	// set value to cache
	go s.cache.Set(context.Background(), cacheKey, response, time.Hour)

	return response, nil
}

func (s *DefaultService) List(ctx context.Context, skip, limit int) (*ListResponse, error) {
	// Version key bumps on create and purge, so stale pages are bypassed
	v := s.cache.GetVersion(ctx, ListVersionKey)
	cacheKey := fmt.Sprintf("docs:v:%d:s:%d:l:%d", v, skip, limit)

	var cached ListResponse
	if found, _ := s.cache.Get(ctx, cacheKey, &cached); found {
		return &cached, nil
	}

	documents, total, err := s.repository.List(ctx, skip, limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]DocumentSummary, 0, len(documents))
	for _, doc := range documents {
		summaries = append(summaries, DocumentSummary{
			ID:               doc.ID,
			OriginalFilename: doc.OriginalFilename,
			CreatedAt:        doc.CreatedAt,
			PageCount:        len(doc.PageTexts),
			TableCount:       len(doc.Tables),
			ImageCount:       len(doc.Images),
		})
	}

	result := &ListResponse{
		Documents: summaries,
		Total:     total,
		Skip:      skip,
		Limit:     limit,
	}
	go s.cache.Set(context.Background(), cacheKey, result, 24*time.Hour)

	return result, nil
}

func (s *DefaultService) buildResponse(doc *Document) *ExtractResponse {
	links := make([]ImageLink, 0, len(doc.Images))
	for _, img := range doc.Images {
		links = append(links, ImageLink{
			URL:        s.imageURL(img.Filename),
			Page:       img.PageNumber,
			Index:      img.ImageIndex,
			Filename:   img.Filename,
			DocumentID: doc.ID,
		})
	}

	return &ExtractResponse{
		ID:        doc.ID,
		Filename:  doc.OriginalFilename,
		Text:      textData(doc.PageTexts),
		Tables:    tableData(doc.Tables),
		Images:    links,
		CreatedAt: doc.CreatedAt,
	}
}

func (s *DefaultService) imageURL(filename string) string {
	return fmt.Sprintf("%s/images/%s", s.apiPrefix, filename)
}

func textData(pages []PageText) TextData {
	result := TextData{Pages: make(map[string]string, len(pages))}
	for _, p := range pages {
		result.Pages[pageKey(p.PageNumber)] = p.Content
	}
	return result
}

func tableData(tables []Table) TableData {
	result := TableData{Pages: make(map[string][][][]string)}
	for _, t := range tables {
		var rows [][]string
		if err := json.Unmarshal([]byte(t.TableData), &rows); err != nil {
			logger.Log.Warn().Err(err).Str("table_id", t.ID).Msg("skipping undecodable table row")
			continue
		}
		key := pageKey(t.PageNumber)
		result.Pages[key] = append(result.Pages[key], rows)
	}
	return result
}

func pageKey(pageNumber int) string {
	return fmt.Sprintf("Page %d", pageNumber)
}

func CacheKey(id string) string {
	return "doc:" + id
}
