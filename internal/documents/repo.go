package documents

import "context"

// DocumentsRepo defines persistence operations for CV records.
type DocumentsRepo interface {
	Create(ctx context.Context, cv CV) error
	List(ctx context.Context) ([]CV, error)
	GetByID(ctx context.Context, id string) (CV, error)
	GetByFileID(ctx context.Context, fileID string) (CV, error)
	Delete(ctx context.Context, id string) error
	AddNote(ctx context.Context, id, note string) error
}
