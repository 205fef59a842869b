package document

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	apiError "pdf-extractor-api/internal/errors"
	"pdf-extractor-api/internal/utils"

	"github.com/gin-gonic/gin"
)

// ImageResolver locates extracted image files for download
type ImageResolver interface {
	ImagePath(filename string) string
	ImageExists(filename string) bool
}

type Handler struct {
	service Service
	images  ImageResolver
}

func NewHandler(service Service, images ImageResolver) *Handler {
	return &Handler{service: service, images: images}
}

// Extract handles POST /extract: accepts a multipart PDF upload and
// returns the extracted text, tables, and image links
func (h *Handler) Extract(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.Error(apiError.BadRequest("No file uploaded", err))
		return
	}

	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		c.Error(apiError.BadRequest("Only PDF files are supported", nil))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.Error(apiError.BadRequest("Unable to read uploaded file", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.Error(apiError.BadRequest("Unable to read uploaded file", err))
		return
	}

	result, err := h.service.Extract(c.Request.Context(), data, fileHeader.Filename)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ShowDocument handles GET /documents/:id
func (h *Handler) ShowDocument(c *gin.Context) {
	id := c.Param("id")

	result, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListDocuments handles GET /documents with skip/limit pagination
func (h *Handler) ListDocuments(c *gin.Context) {
	skip, limit := utils.GetListParams(c)

	result, err := h.service.List(c.Request.Context(), skip, limit)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// DownloadImage handles GET /images/:filename. A download can lose the
// race against retention deleting the file; that surfaces as not-found.
func (h *Handler) DownloadImage(c *gin.Context) {
	filename := c.Param("filename")

	if !h.images.ImageExists(filename) {
		c.Error(apiError.NotFound(fmt.Sprintf("Image not found: %s", filename), nil))
		return
	}

	c.File(h.images.ImagePath(filename))
}
