package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coldcall/coldcall-api/internal/middleware"
	"github.com/coldcall/coldcall-api/internal/service"
	appErrors "github.com/coldcall/coldcall-api/pkg/errors"
	"github.com/coldcall/coldcall-api/pkg/response"
)

// ClassHandler exposes class lifecycle and roster summary endpoints.
type ClassHandler struct {
	classes *service.ClassService
	roster  *service.RosterService
}

// NewClassHandler constructs handler.
func NewClassHandler(classes *service.ClassService, roster *service.RosterService) *ClassHandler {
	return &ClassHandler{classes: classes, roster: roster}
}

type updateClassRequest struct {
	Name      string     `json:"name"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Archived  bool       `json:"archived"`
}

// Create registers a new class.
func (h *ClassHandler) Create(c *gin.Context) {
	var req service.ClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	class, err := h.classes.Create(c.Request.Context(), middleware.ProfessorID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// List returns the professor's classes, archived ones on request.
func (h *ClassHandler) List(c *gin.Context) {
	includeArchived := c.Query("include_archived") == "true"
	classes, err := h.classes.List(c.Request.Context(), middleware.ProfessorID(c), includeArchived)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes)
}

// Get returns a single class.
func (h *ClassHandler) Get(c *gin.Context) {
	class, err := h.classes.Get(c.Request.Context(), middleware.ProfessorID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class)
}

// Update edits a class, including its archive flag.
func (h *ClassHandler) Update(c *gin.Context) {
	var req updateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	class, err := h.classes.Update(c.Request.Context(), middleware.ProfessorID(c), c.Param("id"), service.ClassRequest{
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}, req.Archived)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class)
}

// Archive flags a class as finished without deleting its history.
func (h *ClassHandler) Archive(c *gin.Context) {
	if err := h.classes.Archive(c.Request.Context(), middleware.ProfessorID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete removes a class and everything rostered under it.
func (h *ClassHandler) Delete(c *gin.Context) {
	if err := h.classes.Delete(c.Request.Context(), middleware.ProfessorID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Roster returns the class dashboard with derived performance figures.
func (h *ClassHandler) Roster(c *gin.Context) {
	summary, err := h.roster.Summary(c.Request.Context(), middleware.ProfessorID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary)
}
