package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"pdf-extractor-api/internal/document"
	"pdf-extractor-api/redis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepository and fakeFiles share an event log so tests can assert
// that file deletion happens before row deletion
type fakeRepository struct {
	documents []document.Document
	deleteErr map[string]error
	deleted   []string
	events    *[]string
}

func (f *fakeRepository) Create(ctx context.Context, doc *document.Document, pages []document.PageText, tables []document.Table, images []document.Image) error {
	return errors.New("not used")
}

func (f *fakeRepository) FindByID(ctx context.Context, id string) (*document.Document, error) {
	return nil, errors.New("not used")
}

func (f *fakeRepository) List(ctx context.Context, skip, limit int) ([]document.Document, int64, error) {
	return nil, 0, errors.New("not used")
}

func (f *fakeRepository) FindOlderThan(ctx context.Context, cutoff time.Time) ([]document.Document, error) {
	var result []document.Document
	for _, doc := range f.documents {
		if doc.CreatedAt.Before(cutoff) {
			result = append(result, doc)
		}
	}
	return result, nil
}

func (f *fakeRepository) DeleteByID(ctx context.Context, id string) error {
	if err := f.deleteErr[id]; err != nil {
		return err
	}
	f.deleted = append(f.deleted, id)
	*f.events = append(*f.events, "rows:"+id)

	remaining := f.documents[:0]
	for _, doc := range f.documents {
		if doc.ID != id {
			remaining = append(remaining, doc)
		}
	}
	f.documents = remaining
	return nil
}

type fakeFiles struct {
	removeImageErr map[string]error
	removePDFErr   map[string]error
	events         *[]string
}

func (f *fakeFiles) RemoveImage(filename string) error {
	if err := f.removeImageErr[filename]; err != nil {
		return err
	}
	*f.events = append(*f.events, "image:"+filename)
	return nil
}

func (f *fakeFiles) RemovePDF(storedFilename string) error {
	if err := f.removePDFErr[storedFilename]; err != nil {
		return err
	}
	*f.events = append(*f.events, "pdf:"+storedFilename)
	return nil
}

func testDocument(id string, age time.Duration, now time.Time, imageCount int) document.Document {
	doc := document.Document{
		ID:             id,
		StoredFilename: id + ".pdf",
		CreatedAt:      now.Add(-age),
	}
	for i := 1; i <= imageCount; i++ {
		doc.Images = append(doc.Images, document.Image{
			DocumentID: id,
			PageNumber: 1,
			ImageIndex: i,
			Filename:   fmt.Sprintf("%s_page_1_image_%d.png", id, i),
		})
	}
	return doc
}

func newTestWorker(repo document.Repository, files FileRemover) *RetentionWorker {
	return NewRetentionWorker(repo, files, &redis.Cache{}, 10*time.Minute, time.Minute)
}

func TestRunOnce_PurgesExpiredDocuments(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var events []string

	repo := &fakeRepository{
		documents: []document.Document{
			testDocument("old", 11*time.Minute, now, 2),
			testDocument("fresh", 5*time.Minute, now, 1),
		},
		events: &events,
	}
	files := &fakeFiles{events: &events}

	w := newTestWorker(repo, files)
	w.now = func() time.Time { return now }

	w.RunOnce(context.Background())

	// Only the document past the retention window is purged
	assert.Equal(t, []string{"old"}, repo.deleted)
	require.Len(t, repo.documents, 1)
	assert.Equal(t, "fresh", repo.documents[0].ID)

	// Files go first, rows last
	require.Equal(t, []string{
		"image:old_page_1_image_1.png",
		"image:old_page_1_image_2.png",
		"pdf:old.pdf",
		"rows:old",
	}, events)
}

func TestRunOnce_ExactlyAtWindowBoundaryIsKept(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var events []string

	repo := &fakeRepository{
		documents: []document.Document{
			testDocument("boundary", 10*time.Minute, now, 0),
		},
		events: &events,
	}
	files := &fakeFiles{events: &events}

	w := newTestWorker(repo, files)
	w.now = func() time.Time { return now }

	w.RunOnce(context.Background())

	// created_at == cutoff is not strictly older, so it survives
	assert.Empty(t, repo.deleted)
}

func TestRunOnce_FileFailureLeavesRowsForRetry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var events []string

	repo := &fakeRepository{
		documents: []document.Document{
			testDocument("stuck", 20*time.Minute, now, 1),
			testDocument("ok", 20*time.Minute, now, 0),
		},
		events: &events,
	}
	files := &fakeFiles{
		removeImageErr: map[string]error{
			"stuck_page_1_image_1.png": errors.New("permission denied"),
		},
		events: &events,
	}

	w := newTestWorker(repo, files)
	w.now = func() time.Time { return now }

	w.RunOnce(context.Background())

	// The failing candidate keeps its rows, the healthy one is purged
	assert.Equal(t, []string{"ok"}, repo.deleted)
	require.Len(t, repo.documents, 1)
	assert.Equal(t, "stuck", repo.documents[0].ID)

	// A later run after the failure clears succeeds
	files.removeImageErr = nil
	w.RunOnce(context.Background())
	assert.Equal(t, []string{"ok", "stuck"}, repo.deleted)
	assert.Empty(t, repo.documents)
}

func TestRunOnce_RowDeleteFailureKeepsCandidateEligible(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var events []string

	repo := &fakeRepository{
		documents: []document.Document{
			testDocument("flaky", 20*time.Minute, now, 0),
		},
		deleteErr: map[string]error{"flaky": errors.New("db down")},
		events:    &events,
	}
	files := &fakeFiles{events: &events}

	w := newTestWorker(repo, files)
	w.now = func() time.Time { return now }

	w.RunOnce(context.Background())
	assert.Empty(t, repo.deleted)

	// Files were already removed; the retry run re-deletes them
	// idempotently and then clears the rows
	repo.deleteErr = nil
	w.RunOnce(context.Background())
	assert.Equal(t, []string{"flaky"}, repo.deleted)
}

func TestStartStop_Lifecycle(t *testing.T) {
	var events []string
	repo := &fakeRepository{events: &events}
	files := &fakeFiles{events: &events}

	w := NewRetentionWorker(repo, files, &redis.Cache{}, 10*time.Minute, 10*time.Millisecond)
	assert.False(t, w.Status().Running)

	w.Start()
	assert.True(t, w.Status().Running)

	// Let at least one tick fire
	time.Sleep(35 * time.Millisecond)

	w.Stop()
	assert.False(t, w.Status().Running)

	status := w.Status()
	require.NotNil(t, status.LastRun)
	assert.Equal(t, 10.0, status.RetentionMinutes)
}
