package documents

import (
	"errors"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"cv-backend/internal/shared/server/middleware"
	"cv-backend/internal/shared/server/respond"
	"cv-backend/internal/shared/telemetry"
)

// multipartOverhead leaves room for form boundaries and headers on top of the file limit.
const multipartOverhead = 1 << 20

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches CV routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/cv", h.list)
	rg.POST("/upload", h.upload)
	rg.DELETE("/cv/:id", h.delete)
	rg.POST("/cv/:id/notes", h.addNote)
	rg.GET("/pdf/:file_id", h.file)
}

func (h *Handler) list(c *gin.Context) {
	cvs, err := h.Svc.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list CVs", nil)
		return
	}

	resp := make([]CVResponse, 0, len(cvs))
	for _, cv := range cvs {
		resp = append(resp, toResponse(cv))
	}
	respond.OK(c, resp)
}

func (h *Handler) upload(c *gin.Context) {
	if h.Svc.MaxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Svc.MaxBytes+multipartOverhead)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "too_large", "file exceeds upload limit", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "No file provided", nil)
		return
	}
	if fileHeader.Filename == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "No file selected", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	cv, err := h.Svc.Upload(c.Request.Context(), fileHeader.Filename, file)
	if err != nil {
		writeError(c, err, "failed to upload CV")
		return
	}

	respond.Created(c, toResponse(cv))
}

func (h *Handler) delete(c *gin.Context) {
	c.Set(middleware.CVIDKey, c.Param("id"))
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err, "failed to delete CV")
		return
	}
	respond.OK(c, gin.H{"message": "CV deleted successfully"})
}

type addNoteRequest struct {
	Note string `json:"note"`
}

func (h *Handler) addNote(c *gin.Context) {
	c.Set(middleware.CVIDKey, c.Param("id"))
	var req addNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	cv, err := h.Svc.AddNote(c.Request.Context(), c.Param("id"), req.Note)
	if err != nil {
		writeError(c, err, "failed to add note")
		return
	}
	respond.OK(c, toResponse(cv))
}

func (h *Handler) file(c *gin.Context) {
	rc, cv, err := h.Svc.OpenFile(c.Request.Context(), c.Param("file_id"))
	if err != nil {
		writeError(c, err, "failed to open file")
		return
	}
	defer rc.Close()

	contentType := cv.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	disposition := mime.FormatMediaType("inline", map[string]string{"filename": cv.FileName})
	if disposition == "" {
		disposition = "inline"
	}
	c.DataFromReader(http.StatusOK, cv.SizeBytes, contentType, rc, map[string]string{
		"Content-Disposition": disposition,
	})
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "CV not found", nil)
	case errors.Is(err, ErrTooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, "too_large", "file exceeds upload limit", nil)
	default:
		telemetry.Error("cv.request_failed", map[string]any{"path": c.FullPath(), "err": err})
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
