package documents

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of DocumentsRepo.
type MemoryRepo struct {
	mu    sync.RWMutex
	order []string
	data  map[string]CV
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]CV),
	}
}

// Create stores a new CV record.
func (r *MemoryRepo) Create(ctx context.Context, cv CV) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[cv.ID]; !exists {
		r.order = append(r.order, cv.ID)
	}
	r.data[cv.ID] = copyCV(cv)
	return nil
}

// List returns all CVs in insertion order.
func (r *MemoryRepo) List(ctx context.Context) ([]CV, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]CV, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, copyCV(r.data[id]))
	}
	return out, nil
}

// GetByID returns a CV by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (CV, error) {
	if err := ctx.Err(); err != nil {
		return CV{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	cv, ok := r.data[id]
	if !ok {
		return CV{}, ErrNotFound
	}
	return copyCV(cv), nil
}

// GetByFileID returns the CV owning a stored file.
func (r *MemoryRepo) GetByFileID(ctx context.Context, fileID string) (CV, error) {
	if err := ctx.Err(); err != nil {
		return CV{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if cv := r.data[id]; cv.FileID == fileID {
			return copyCV(cv), nil
		}
	}
	return CV{}, ErrNotFound
}

// Delete removes a CV record.
func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return ErrNotFound
	}
	delete(r.data, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// AddNote appends a review note to a CV.
func (r *MemoryRepo) AddNote(ctx context.Context, id, note string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cv, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	cv.Notes = append(append([]string(nil), cv.Notes...), note)
	r.data[id] = cv
	return nil
}

func copyCV(cv CV) CV {
	if cv.Notes != nil {
		cv.Notes = append([]string(nil), cv.Notes...)
	}
	return cv
}

var _ DocumentsRepo = (*MemoryRepo)(nil)
