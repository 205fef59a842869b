// Package storage owns the on-disk layout for raw PDFs and extracted
// images. Filenames are derived from the document id so retention can
// delete by id without scanning directories.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

type FileStore struct {
	uploadDir string
	imageDir  string
}

func NewFileStore(uploadDir, imageDir string) *FileStore {
	return &FileStore{
		uploadDir: uploadDir,
		imageDir:  imageDir,
	}
}

// PDFFilename returns the stored name for a document's raw PDF
func (fs *FileStore) PDFFilename(documentID string) string {
	return documentID + ".pdf"
}

// ImageFilename follows {document_id}_page_{page}_image_{index}.{ext},
// which doubles as the download lookup key.
func (fs *FileStore) ImageFilename(documentID string, page, index int, ext string) string {
	return fmt.Sprintf("%s_page_%d_image_%d.%s", documentID, page, index, ext)
}

// SavePDF writes the raw PDF and returns its stored filename
func (fs *FileStore) SavePDF(documentID string, data []byte) (string, error) {
	filename := fs.PDFFilename(documentID)
	if err := os.WriteFile(filepath.Join(fs.uploadDir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("write pdf %s: %w", filename, err)
	}
	return filename, nil
}

// SaveImage writes one extracted image and returns its filename
func (fs *FileStore) SaveImage(documentID string, page, index int, ext string, data []byte) (string, error) {
	filename := fs.ImageFilename(documentID, page, index, ext)
	if err := os.WriteFile(filepath.Join(fs.imageDir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("write image %s: %w", filename, err)
	}
	return filename, nil
}

// RemovePDF deletes a stored PDF. A file that is already gone counts as
// success so cleanup can be retried safely.
func (fs *FileStore) RemovePDF(storedFilename string) error {
	return removeIfExists(filepath.Join(fs.uploadDir, storedFilename))
}

// RemoveImage deletes an extracted image, idempotently
func (fs *FileStore) RemoveImage(filename string) error {
	return removeIfExists(filepath.Join(fs.imageDir, filename))
}

// ImagePath returns the absolute path for serving an image download.
// The filename is sanitized to its base name so it cannot escape the
// image directory.
func (fs *FileStore) ImagePath(filename string) string {
	return filepath.Join(fs.imageDir, filepath.Base(filename))
}

// ImageExists reports whether an image file is present on disk
func (fs *FileStore) ImageExists(filename string) bool {
	_, err := os.Stat(fs.ImagePath(filename))
	return err == nil
}

func removeIfExists(path string) error {
	err := os.Remove(path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
