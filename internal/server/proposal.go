package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	exportdomain "github.com/ngoinfo/copilot/internal/export/domain"
	proposaldomain "github.com/ngoinfo/copilot/internal/proposal/domain"
)

// GenerateProposal runs the generation pipeline. The Idempotency-Key header
// is optional; when a replay hits, the stored response bytes are returned
// verbatim so retries observe the exact original payload.
func (s *Server) GenerateProposal(c *gin.Context) {
	var req proposaldomain.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", errInvalidBody, err))
		return
	}
	req.IdempotencyKey = strings.TrimSpace(c.GetHeader("Idempotency-Key"))

	outcome, err := s.proposalSvc.Generate(c.Request.Context(), s.userID(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if outcome.Replayed {
		c.Data(outcome.StatusCode, "application/json", outcome.Body)
		return
	}
	c.JSON(outcome.StatusCode, outcome.Proposal)
}

func (s *Server) ListProposals(c *gin.Context) {
	req := proposaldomain.ListRequest{
		Status: strings.TrimSpace(c.Query("status")),
		Limit:  intQuery(c, "limit", 20),
		Offset: intQuery(c, "offset", 0),
	}

	proposals, err := s.proposalSvc.List(c.Request.Context(), s.userID(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"proposals": proposals,
		"count":     len(proposals),
	})
}

func (s *Server) GetProposal(c *gin.Context) {
	proposal, err := s.proposalSvc.GetByID(c.Request.Context(), s.userID(c), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposal)
}

func (s *Server) UpdateProposal(c *gin.Context) {
	var req proposaldomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", errInvalidBody, err))
		return
	}

	proposal, err := s.proposalSvc.Update(c.Request.Context(), s.userID(c), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposal)
}

type rateProposalRequest struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}

func (s *Server) RateProposal(c *gin.Context) {
	var req rateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", errInvalidBody, err))
		return
	}

	proposal, err := s.proposalSvc.Rate(c.Request.Context(), s.userID(c), c.Param("id"), req.Rating, req.Feedback)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposal)
}

func (s *Server) ArchiveProposal(c *gin.Context) {
	if err := s.proposalSvc.Archive(c.Request.Context(), s.userID(c), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "archived"})
}

// ExportProposal streams the rendered document. Unknown formats are rejected
// before any ledger or storage access.
func (s *Server) ExportProposal(c *gin.Context) {
	format, err := exportdomain.ParseFormat(c.Param("format"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := s.exportSvc.Export(c.Request.Context(), s.userID(c), c.Param("id"), format)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Data(http.StatusOK, doc.ContentType, doc.Data)
}

func intQuery(c *gin.Context, name string, def int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return def
	}
	return value
}
