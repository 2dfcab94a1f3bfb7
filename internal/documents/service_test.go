package documents

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"

	"cv-backend/internal/shared/storage/object"
	"cv-backend/internal/shared/storage/object/local"
)

func newTestService(t *testing.T, maxBytes int64) *Service {
	t.Helper()
	return &Service{
		Store:    local.New(t.TempDir()),
		Repo:     NewMemoryRepo(),
		MaxBytes: maxBytes,
	}
}

func TestUploadStoresFileAndRecord(t *testing.T) {
	svc := newTestService(t, 1<<20)
	ctx := context.Background()
	body := []byte("%PDF-1.4\nbody")

	cv, err := svc.Upload(ctx, "Jane Doe.v2.pdf", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if cv.Name != "Jane Doe.v2" {
		t.Fatalf("expected name without final extension, got %q", cv.Name)
	}
	if _, err := uuid.Parse(cv.ID); err != nil {
		t.Fatalf("expected uuid id, got %q", cv.ID)
	}
	if cv.FileID == cv.ID || cv.FileID == "" {
		t.Fatalf("expected distinct file id, got %q", cv.FileID)
	}
	if cv.SizeBytes != int64(len(body)) || cv.ContentType != "application/pdf" {
		t.Fatalf("unexpected metadata: %+v", cv)
	}
	if cv.Notes == nil || len(cv.Notes) != 0 {
		t.Fatalf("expected empty notes, got %v", cv.Notes)
	}

	data, err := svc.Fetch(ctx, cv.ID)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !bytes.Equal(data, body) {
		t.Fatalf("fetched bytes differ")
	}
}

func TestUploadRejectsInvalidInput(t *testing.T) {
	svc := newTestService(t, 1<<20)
	ctx := context.Background()

	tests := []struct {
		name     string
		fileName string
		body     io.Reader
	}{
		{name: "blank name", fileName: "  ", body: strings.NewReader("x")},
		{name: "traversal", fileName: "../secret.pdf", body: strings.NewReader("x")},
		{name: "empty content", fileName: "empty.pdf", body: strings.NewReader("")},
	}
	for _, tt := range tests {
		if _, err := svc.Upload(ctx, tt.fileName, tt.body); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tt.name, err)
		}
	}

	list, _ := svc.List(ctx)
	if len(list) != 0 {
		t.Fatalf("rejected uploads must not create records")
	}
}

func TestUploadEnforcesMaxBytes(t *testing.T) {
	svc := newTestService(t, 8)
	if _, err := svc.Upload(context.Background(), "big.pdf", strings.NewReader("123456789")); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if _, err := svc.Upload(context.Background(), "ok.pdf", strings.NewReader("12345678")); err != nil {
		t.Fatalf("upload at the limit should succeed: %v", err)
	}
}

func TestDeleteToleratesMissingFile(t *testing.T) {
	svc := newTestService(t, 0)
	ctx := context.Background()

	cv, err := svc.Upload(ctx, "resume.pdf", strings.NewReader("content"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := svc.Store.Delete(ctx, cv.StorageKey); err != nil {
		t.Fatalf("remove stored file: %v", err)
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("records with missing files should still be listed")
	}

	if err := svc.Delete(ctx, cv.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, cv.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := svc.Delete(ctx, cv.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for second delete, got %v", err)
	}
}

func TestDeleteRemovesStoredFile(t *testing.T) {
	svc := newTestService(t, 0)
	ctx := context.Background()

	cv, err := svc.Upload(ctx, "resume.pdf", strings.NewReader("content"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := svc.Delete(ctx, cv.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Store.Open(ctx, cv.StorageKey); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected stored file to be removed, got %v", err)
	}
}

func TestIDValidation(t *testing.T) {
	svc := newTestService(t, 0)
	ctx := context.Background()

	if _, err := svc.Get(ctx, "abc"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Get: expected ErrInvalidInput, got %v", err)
	}
	if err := svc.Delete(ctx, "abc"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Delete: expected ErrInvalidInput, got %v", err)
	}
	if _, _, err := svc.OpenFile(ctx, "abc"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("OpenFile: expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Fetch(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Fetch: expected ErrNotFound, got %v", err)
	}
}

func TestAddNote(t *testing.T) {
	svc := newTestService(t, 0)
	ctx := context.Background()

	cv, err := svc.Upload(ctx, "resume.pdf", strings.NewReader("content"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := svc.AddNote(ctx, cv.ID, "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank note, got %v", err)
	}
	updated, err := svc.AddNote(ctx, cv.ID, "  strong backend profile ")
	if err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	if len(updated.Notes) != 1 || updated.Notes[0] != "strong backend profile" {
		t.Fatalf("unexpected notes %v", updated.Notes)
	}
	if _, err := svc.AddNote(ctx, uuid.NewString(), "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown cv, got %v", err)
	}
}

func TestFetchEnforcesMaxBytes(t *testing.T) {
	svc := newTestService(t, 0)
	ctx := context.Background()
	cv, err := svc.Upload(ctx, "resume.pdf", strings.NewReader("0123456789"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	svc.MaxBytes = 5
	if _, err := svc.Fetch(ctx, cv.ID); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"resume.pdf":      "resume",
		"resume":          "resume",
		"archive.tar.gz":  "archive.tar",
		".hidden":         "",
		"my cv final.pdf": "my cv final",
	}
	for in, want := range tests {
		if got := displayName(in); got != want {
			t.Fatalf("displayName(%q)=%q want %q", in, got, want)
		}
	}
}
