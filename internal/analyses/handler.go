package analyses

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"cv-backend/internal/documents"
	"cv-backend/internal/scoring"
	"cv-backend/internal/shared/server/middleware"
	"cv-backend/internal/shared/server/respond"
	"cv-backend/internal/shared/telemetry"
)

// multipartOverhead leaves room for form boundaries and headers on top of the file limit.
const multipartOverhead = 1 << 20

// Handler wires HTTP handlers to the analyses service.
type Handler struct {
	Svc *Service
	// MaxBytes bounds direct uploads. Zero disables the limit.
	MaxBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxBytes int64) *Handler {
	return &Handler{Svc: svc, MaxBytes: maxBytes}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyze", h.analyze)
	rg.POST("/analyze/upload", h.analyzeUpload)
}

type analyzeRequest struct {
	CVID string `json:"cv_id"`
}

func (h *Handler) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "invalid request body", nil)
		return
	}
	c.Set(middleware.CVIDKey, req.CVID)

	result, err := h.Svc.Analyze(c.Request.Context(), req.CVID)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, result)
}

func (h *Handler) analyzeUpload(c *gin.Context) {
	if h.MaxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxBytes+multipartOverhead)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.Error(c, http.StatusRequestEntityTooLarge, ErrorCodeTooLarge, "file exceeds upload limit", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "No file provided", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "unable to read file", nil)
		return
	}
	defer file.Close()

	var r io.Reader = file
	if h.MaxBytes > 0 {
		r = io.LimitReader(file, h.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "unable to read file", nil)
		return
	}
	if h.MaxBytes > 0 && int64(len(data)) > h.MaxBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, ErrorCodeTooLarge, "file exceeds upload limit", nil)
		return
	}

	result, err := h.Svc.AnalyzeBytes(c.Request.Context(), "upload:"+fileHeader.Filename, data)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, result)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrMissingID):
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "Missing CV ID", nil)
	case errors.Is(err, ErrEmptyUpload):
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "Empty file uploaded", nil)
	case errors.Is(err, documents.ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "Invalid CV ID", nil)
	case errors.Is(err, documents.ErrNotFound):
		respond.Error(c, http.StatusNotFound, ErrorCodeNotFound, "CV or file not found", nil)
	case errors.Is(err, scoring.ErrDocumentTooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, ErrorCodeTooLarge, "document exceeds size limits", nil)
	case errors.Is(err, scoring.ErrExtractionFailed):
		respond.Error(c, http.StatusUnprocessableEntity, ErrorCodeExtractionFailed, "Unable to extract text from CV", nil)
	default:
		telemetry.Error("analysis.request_failed", map[string]any{"path": c.FullPath(), "err": err})
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to analyze CV", nil)
	}
}
