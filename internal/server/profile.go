package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	profiledomain "github.com/ngoinfo/copilot/internal/profile/domain"
	"github.com/ngoinfo/copilot/internal/scoring"
)

type profileResponse struct {
	Profile           profiledomain.SimplifiedProfile `json:"profile"`
	CompletenessScore int                             `json:"completeness_score"`
	ProfileReady      bool                            `json:"profile_ready"`
}

func (s *Server) GetProfile(c *gin.Context) {
	ctx := c.Request.Context()
	userID := s.userID(c)

	simplified, err := s.profileSvc.GetSimplified(ctx, userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	score := s.profileSvc.Score(ctx, userID)
	c.JSON(http.StatusOK, profileResponse{
		Profile:           *simplified,
		CompletenessScore: score,
		ProfileReady:      score >= scoring.ReadyThreshold,
	})
}

// UpsertProfile saves the simplified profile shape and reports the flat
// completeness score the generation flow gates on.
func (s *Server) UpsertProfile(c *gin.Context) {
	var req profiledomain.SimplifiedProfile
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", errInvalidBody, err))
		return
	}

	ctx := c.Request.Context()
	userID := s.userID(c)

	score, err := s.profileSvc.Upsert(ctx, userID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	simplified, err := s.profileSvc.GetSimplified(ctx, userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, profileResponse{
		Profile:           *simplified,
		CompletenessScore: score,
		ProfileReady:      score >= scoring.ReadyThreshold,
	})
}
