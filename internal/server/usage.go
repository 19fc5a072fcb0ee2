package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetUsageSummary(c *gin.Context) {
	summary, err := s.usageSvc.Summary(c.Request.Context(), s.userID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
