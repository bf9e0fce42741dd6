package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coldcall/coldcall-api/internal/middleware"
	"github.com/coldcall/coldcall-api/internal/service"
	appErrors "github.com/coldcall/coldcall-api/pkg/errors"
	"github.com/coldcall/coldcall-api/pkg/response"
)

// NoteHandler exposes student note endpoints.
type NoteHandler struct {
	notes *service.NoteService
}

// NewNoteHandler constructs handler.
func NewNoteHandler(notes *service.NoteService) *NoteHandler {
	return &NoteHandler{notes: notes}
}

type createNoteRequest struct {
	Note string `json:"note"`
}

// Create attaches a note to a student.
func (h *NoteHandler) Create(c *gin.Context) {
	var req createNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	note, err := h.notes.Create(c.Request.Context(), middleware.ProfessorID(c), c.Param("id"), req.Note)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, note)
}

// List returns a student's notes.
func (h *NoteHandler) List(c *gin.Context) {
	notes, err := h.notes.ListByStudent(c.Request.Context(), middleware.ProfessorID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notes)
}

// Delete removes a note.
func (h *NoteHandler) Delete(c *gin.Context) {
	if err := h.notes.Delete(c.Request.Context(), middleware.ProfessorID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
