package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coldcall/coldcall-api/internal/middleware"
	"github.com/coldcall/coldcall-api/internal/service"
	appErrors "github.com/coldcall/coldcall-api/pkg/errors"
	"github.com/coldcall/coldcall-api/pkg/response"
)

// CallHandler exposes the cold-call workflow: drawing the next student,
// recording outcomes and maintaining counters.
type CallHandler struct {
	randomizer *service.RandomizerService
	ratings    *service.RatingService
}

// NewCallHandler constructs handler.
func NewCallHandler(randomizer *service.RandomizerService, ratings *service.RatingService) *CallHandler {
	return &CallHandler{randomizer: randomizer, ratings: ratings}
}

// Randomize draws the next student to call on in a class.
func (h *CallHandler) Randomize(c *gin.Context) {
	student, err := h.randomizer.Pick(c.Request.Context(), middleware.ProfessorID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if student == nil {
		response.JSON(c, http.StatusOK, nil, map[string]interface{}{"message": "no callable students"})
		return
	}
	response.JSON(c, http.StatusOK, student)
}

type callResult struct {
	Rating  interface{} `json:"rating"`
	Student interface{} `json:"student"`
}

// RecordCall persists one call outcome and returns the refreshed counters.
func (h *CallHandler) RecordCall(c *gin.Context) {
	var req service.RecordCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rating, student, err := h.ratings.RecordCall(c.Request.Context(), middleware.ProfessorID(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, callResult{Rating: rating, Student: student})
}

// EditRating replaces a rating's outcome fields.
func (h *CallHandler) EditRating(c *gin.Context) {
	var req service.EditRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rating, student, err := h.ratings.EditRating(c.Request.Context(), middleware.ProfessorID(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, callResult{Rating: rating, Student: student})
}

// Recalculate rebuilds a student's counters from the rating history.
func (h *CallHandler) Recalculate(c *gin.Context) {
	student, err := h.ratings.RecalcAll(c.Request.Context(), middleware.ProfessorID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}

type historyResult struct {
	Student interface{} `json:"student"`
	Ratings interface{} `json:"ratings"`
}

// History returns a student's call history with derived metrics.
func (h *CallHandler) History(c *gin.Context) {
	entry, ratings, err := h.ratings.History(c.Request.Context(), middleware.ProfessorID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, historyResult{Student: entry, Ratings: ratings})
}
