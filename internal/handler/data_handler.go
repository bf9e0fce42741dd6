package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coldcall/coldcall-api/internal/middleware"
	"github.com/coldcall/coldcall-api/internal/models"
	"github.com/coldcall/coldcall-api/internal/service"
	appErrors "github.com/coldcall/coldcall-api/pkg/errors"
	"github.com/coldcall/coldcall-api/pkg/response"
)

// DataHandler exposes bulk import and export endpoints.
type DataHandler struct {
	imports *service.ImportService
	exports *service.ExportService
}

// NewDataHandler constructs handler.
func NewDataHandler(imports *service.ImportService, exports *service.ExportService) *DataHandler {
	return &DataHandler{imports: imports, exports: exports}
}

// Import ingests roster and rating CSV files uploaded as multipart form
// fields "students" and "ratings". Both are optional but at least one must
// be present.
func (h *DataHandler) Import(c *gin.Context) {
	students, err := openFormFile(c, "students")
	if err != nil {
		response.Error(c, err)
		return
	}
	if students != nil {
		defer students.Close() //nolint:errcheck
	}
	ratings, err := openFormFile(c, "ratings")
	if err != nil {
		response.Error(c, err)
		return
	}
	if ratings != nil {
		defer ratings.Close() //nolint:errcheck
	}
	if students == nil && ratings == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "no files uploaded"))
		return
	}

	var studentReader, ratingReader io.Reader
	if students != nil {
		studentReader = students
	}
	if ratings != nil {
		ratingReader = ratings
	}
	report, err := h.imports.ImportRoster(c.Request.Context(), middleware.ProfessorID(c), c.Param("id"), studentReader, ratingReader)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// Export renders one or several classes as a download. Several class_id
// values produce a zip bundle.
func (h *DataHandler) Export(c *gin.Context) {
	classIDs := c.QueryArray("class_id")
	mode := models.ExportMode(c.DefaultQuery("mode", string(models.ExportModeSimple)))
	format := models.ExportFormat(c.DefaultQuery("format", string(models.ExportFormatCSV)))

	blob, err := h.exports.ExportClasses(c.Request.Context(), middleware.ProfessorID(c), classIDs, mode, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, blob.Filename, blob.ContentType, blob.Data)
}

// StudentReport renders a student's call history as a PDF download.
func (h *DataHandler) StudentReport(c *gin.Context) {
	blob, err := h.exports.StudentReport(c.Request.Context(), middleware.ProfessorID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, blob.Filename, blob.ContentType, blob.Data)
}

// openFormFile returns the uploaded file for the field, or nil when the
// field is absent.
func openFormFile(c *gin.Context, field string) (multipart.File, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid upload")
	}
	file, err := header.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable upload")
	}
	return file, nil
}
