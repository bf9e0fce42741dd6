package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/coldcall/coldcall-api/internal/middleware"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Professors *ProfessorHandler
	Classes    *ClassHandler
	Students   *StudentHandler
	Calls      *CallHandler
	Data       *DataHandler
	Notes      *NoteHandler
	Metrics    *MetricsHandler
}

// RegisterRoutes mounts the API under the given prefix. Registration is the
// only public route and everything else requires a professor identity.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)
	api.POST("/professors", h.Professors.Register)

	auth := api.Group("")
	auth.Use(middleware.Identity())

	auth.GET("/professors/me", h.Professors.Me)

	auth.POST("/classes", h.Classes.Create)
	auth.GET("/classes", h.Classes.List)
	auth.GET("/classes/:id", h.Classes.Get)
	auth.PUT("/classes/:id", h.Classes.Update)
	auth.POST("/classes/:id/archive", h.Classes.Archive)
	auth.DELETE("/classes/:id", h.Classes.Delete)
	auth.GET("/classes/:id/roster", h.Classes.Roster)
	auth.GET("/classes/:id/randomize", h.Calls.Randomize)
	auth.POST("/classes/:id/students", h.Students.Create)
	auth.GET("/classes/:id/students", h.Students.List)
	auth.POST("/classes/:id/import", h.Data.Import)

	auth.GET("/students/:id", h.Students.Get)
	auth.PUT("/students/:id", h.Students.Update)
	auth.POST("/students/:id/drop", h.Students.Drop)
	auth.DELETE("/students/:id", h.Students.Delete)
	auth.POST("/students/:id/calls", h.Calls.RecordCall)
	auth.GET("/students/:id/calls", h.Calls.History)
	auth.POST("/students/:id/recalculate", h.Calls.Recalculate)
	auth.GET("/students/:id/report", h.Data.StudentReport)
	auth.POST("/students/:id/notes", h.Notes.Create)
	auth.GET("/students/:id/notes", h.Notes.List)

	auth.PUT("/ratings/:id", h.Calls.EditRating)
	auth.DELETE("/notes/:id", h.Notes.Delete)

	auth.GET("/export", h.Data.Export)
}
