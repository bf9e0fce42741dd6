package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/coldcall/coldcall-api/pkg/errors"
	"github.com/coldcall/coldcall-api/pkg/response"
)

// ContextProfessorKey is the gin context key storing the caller's professor id.
const ContextProfessorKey = "currentProfessor"

// HeaderProfessorID carries the caller's identity. Authentication proper is
// handled upstream; this service only enforces ownership.
const HeaderProfessorID = "X-Professor-ID"

var errMissingIdentity = appErrors.New("UNAUTHENTICATED", http.StatusUnauthorized, "missing professor identity")

// Identity requires the professor identity header on every protected route.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		professorID := strings.TrimSpace(c.GetHeader(HeaderProfessorID))
		if professorID == "" {
			response.Error(c, errMissingIdentity)
			c.Abort()
			return
		}
		c.Set(ContextProfessorKey, professorID)
		c.Next()
	}
}

// ProfessorID extracts the caller's professor id from the gin context.
func ProfessorID(c *gin.Context) string {
	id, _ := c.Get(ContextProfessorKey)
	s, _ := id.(string)
	return s
}
