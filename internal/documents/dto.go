package documents

// CVResponse is the outward-facing representation of a CV.
type CVResponse struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Notes  []string `json:"notes"`
	FileID string   `json:"file_id"`
}

func toResponse(cv CV) CVResponse {
	notes := cv.Notes
	if notes == nil {
		notes = []string{}
	}
	return CVResponse{
		ID:     cv.ID,
		Name:   cv.Name,
		Notes:  notes,
		FileID: cv.FileID,
	}
}
