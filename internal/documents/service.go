package documents

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"cv-backend/internal/shared/metrics"
	"cv-backend/internal/shared/storage/object"
	"cv-backend/internal/shared/telemetry"
	"cv-backend/internal/shared/util"
)

// Service contains business logic for CV records and their stored files.
type Service struct {
	Store object.ObjectStore
	Repo  DocumentsRepo
	// MaxBytes bounds uploads and fetches. Zero disables the limit.
	MaxBytes int64
}

// Upload saves the file to object storage and records the CV.
func (s *Service) Upload(ctx context.Context, fileName string, r io.Reader) (CV, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return CV{}, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	if _, err := util.SanitizeFileName(fileName); err != nil {
		return CV{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	br := bufio.NewReader(r)
	if _, err := br.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return CV{}, fmt.Errorf("%w: empty file uploaded", ErrInvalidInput)
		}
		return CV{}, fmt.Errorf("read upload: %w", err)
	}

	var body io.Reader = br
	if s.MaxBytes > 0 {
		body = io.LimitReader(br, s.MaxBytes+1)
	}

	storageKey, size, mimeType, err := s.Store.Save(ctx, fileName, body)
	if err != nil {
		return CV{}, fmt.Errorf("store file: %w", err)
	}
	if s.MaxBytes > 0 && size > s.MaxBytes {
		if delErr := s.Store.Delete(ctx, storageKey); delErr != nil {
			telemetry.Warn("cv.upload.cleanup_failed", map[string]any{"storage_key": storageKey, "err": delErr})
		}
		return CV{}, ErrTooLarge
	}

	cv := CV{
		ID:          uuid.NewString(),
		Name:        displayName(fileName),
		FileID:      uuid.NewString(),
		FileName:    fileName,
		StorageKey:  storageKey,
		ContentType: mimeType,
		SizeBytes:   size,
		Notes:       []string{},
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.Repo.Create(ctx, cv); err != nil {
		if delErr := s.Store.Delete(ctx, storageKey); delErr != nil {
			telemetry.Warn("cv.upload.cleanup_failed", map[string]any{"storage_key": storageKey, "err": delErr})
		}
		return CV{}, err
	}

	metrics.IncCVUploaded()
	telemetry.Info("cv.uploaded", map[string]any{
		"cv_id":      cv.ID,
		"file_id":    cv.FileID,
		"file_name":  cv.FileName,
		"size_bytes": cv.SizeBytes,
		"request_id": telemetry.RequestID(ctx),
	})
	return cv, nil
}

// List returns every CV. Records whose stored file is missing are still
// returned; a warning is logged for each.
func (s *Service) List(ctx context.Context) ([]CV, error) {
	cvs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, cv := range cvs {
		if err := s.checkStored(ctx, cv); err != nil {
			telemetry.Warn("cv.file_missing", map[string]any{
				"cv_id":   cv.ID,
				"file_id": cv.FileID,
				"name":    cv.Name,
				"err":     err,
			})
		}
	}
	telemetry.Info("cv.listed", map[string]any{"count": len(cvs)})
	return cvs, nil
}

func (s *Service) checkStored(ctx context.Context, cv CV) error {
	if cv.StorageKey == "" {
		return object.ErrNotFound
	}
	rc, err := s.Store.Open(ctx, cv.StorageKey)
	if err != nil {
		return err
	}
	return rc.Close()
}

// Get returns a CV by ID.
func (s *Service) Get(ctx context.Context, id string) (CV, error) {
	if err := validateID(id); err != nil {
		return CV{}, err
	}
	return s.Repo.GetByID(ctx, id)
}

// Delete removes the stored file, then the record. A file that is already
// gone is logged and does not block deletion of the record.
func (s *Service) Delete(ctx context.Context, id string) error {
	cv, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if cv.StorageKey != "" {
		if err := s.Store.Delete(ctx, cv.StorageKey); err != nil {
			if !errors.Is(err, object.ErrNotFound) {
				return fmt.Errorf("delete stored file: %w", err)
			}
			telemetry.Warn("cv.delete.file_missing", map[string]any{"cv_id": cv.ID, "file_id": cv.FileID})
		}
	}

	if err := s.Repo.Delete(ctx, cv.ID); err != nil {
		return err
	}
	telemetry.Info("cv.deleted", map[string]any{"cv_id": cv.ID, "file_id": cv.FileID})
	return nil
}

// AddNote appends a non-blank review note and returns the updated CV.
func (s *Service) AddNote(ctx context.Context, id, note string) (CV, error) {
	if err := validateID(id); err != nil {
		return CV{}, err
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return CV{}, fmt.Errorf("%w: note is required", ErrInvalidInput)
	}
	if err := s.Repo.AddNote(ctx, id, note); err != nil {
		return CV{}, err
	}
	return s.Repo.GetByID(ctx, id)
}

// OpenFile resolves a file id to its stream and owning CV. Callers must close the stream.
func (s *Service) OpenFile(ctx context.Context, fileID string) (io.ReadCloser, CV, error) {
	if err := validateID(fileID); err != nil {
		return nil, CV{}, err
	}
	cv, err := s.Repo.GetByFileID(ctx, fileID)
	if err != nil {
		return nil, CV{}, err
	}
	rc, err := s.Store.Open(ctx, cv.StorageKey)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return nil, CV{}, fmt.Errorf("%w: stored file missing", ErrNotFound)
		}
		return nil, CV{}, err
	}
	return rc, cv, nil
}

// Fetch resolves a CV id to the bytes of its stored file.
func (s *Service) Fetch(ctx context.Context, id string) ([]byte, error) {
	cv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cv.StorageKey == "" {
		return nil, fmt.Errorf("%w: no stored file", ErrNotFound)
	}
	rc, err := s.Store.Open(ctx, cv.StorageKey)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return nil, fmt.Errorf("%w: stored file missing", ErrNotFound)
		}
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if s.MaxBytes > 0 {
		r = io.LimitReader(rc, s.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read stored file: %w", err)
	}
	if s.MaxBytes > 0 && int64(len(data)) > s.MaxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: invalid id", ErrInvalidInput)
	}
	return nil
}
