package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coldcall/coldcall-api/internal/middleware"
	"github.com/coldcall/coldcall-api/internal/service"
	appErrors "github.com/coldcall/coldcall-api/pkg/errors"
	"github.com/coldcall/coldcall-api/pkg/response"
)

// ProfessorHandler exposes professor account endpoints.
type ProfessorHandler struct {
	professors *service.ProfessorService
}

// NewProfessorHandler constructs handler.
func NewProfessorHandler(professors *service.ProfessorService) *ProfessorHandler {
	return &ProfessorHandler{professors: professors}
}

// Register creates a professor account.
func (h *ProfessorHandler) Register(c *gin.Context) {
	var req service.RegisterProfessorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	professor, err := h.professors.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, professor)
}

// Me returns the calling professor's account.
func (h *ProfessorHandler) Me(c *gin.Context) {
	professor, err := h.professors.Get(c.Request.Context(), middleware.ProfessorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, professor)
}
