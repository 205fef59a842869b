// Package pdf turns raw PDF bytes into per-page text, tables, and
// embedded images. MuPDF (go-fitz) handles text, pdfcpu pulls the
// embedded image streams.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"

	"pdf-extractor-api/internal/logger"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// EmbeddedImage is one raw image pulled out of a page, in extraction order
type EmbeddedImage struct {
	Data []byte
	Ext  string
}

// Page is the decoded content of a single 1-based page
type Page struct {
	Number int
	Text   string
	Tables [][][]string
	Images []EmbeddedImage
}

// Decoder converts raw PDF bytes into per-page content. A whole-document
// failure is the only error surfaced; unreadable individual pages degrade
// to empty content.
type Decoder interface {
	Decode(ctx context.Context, data []byte) ([]Page, error)
}

type FitzDecoder struct{}

func NewDecoder() *FitzDecoder {
	return &FitzDecoder{}
}

func (d *FitzDecoder) Decode(ctx context.Context, data []byte) ([]Page, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	imagesByPage := d.extractImages(data)

	pageCount := doc.NumPage()
	pages := make([]Page, 0, pageCount)

	for pageNum := 0; pageNum < pageCount; pageNum++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		text, err := doc.Text(pageNum)
		if err != nil {
			// Keep the page so numbering stays contiguous
			logger.Log.Warn().Err(err).Int("page", pageNum+1).Msg("failed to extract page text")
			text = ""
		}

		pages = append(pages, Page{
			Number: pageNum + 1,
			Text:   text,
			Tables: DetectTables(text),
			Images: imagesByPage[pageNum+1],
		})
	}

	return pages, nil
}

// extractImages returns embedded images keyed by 1-based page number.
// Image extraction failures are not fatal to the document: text and
// tables are still worth returning.
func (d *FitzDecoder) extractImages(data []byte) map[int][]EmbeddedImage {
	result := make(map[int][]EmbeddedImage)

	conf := model.NewDefaultConfiguration()
	pageImages, err := api.ExtractImagesRaw(bytes.NewReader(data), nil, conf)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("failed to extract embedded images")
		return result
	}

	for _, byObj := range pageImages {
		// Map order is random; sort by object number so image indexes
		// are stable across runs.
		objNrs := make([]int, 0, len(byObj))
		for objNr := range byObj {
			objNrs = append(objNrs, objNr)
		}
		sort.Ints(objNrs)

		for _, objNr := range objNrs {
			img := byObj[objNr]
			if img.Thumb {
				continue
			}
			raw, err := io.ReadAll(img)
			if err != nil {
				logger.Log.Warn().Err(err).Int("page", img.PageNr).Msg("failed to read embedded image stream")
				continue
			}

			ext := img.FileType
			if ext == "" {
				ext = "png"
			}

			result[img.PageNr] = append(result[img.PageNr], EmbeddedImage{
				Data: raw,
				Ext:  ext,
			})
		}
	}

	return result
}
