package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/churnlens/internal/features"
	scoringdomain "github.com/smallbiznis/churnlens/internal/scoring/domain"
)

// bindPayload decodes a JSON object body into a feature payload.
func bindPayload(c *gin.Context) (features.Payload, bool) {
	var payload features.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		AbortWithError(c, invalidRequestError())
		return nil, false
	}
	return payload, true
}

func (s *Server) Score(c *gin.Context) {
	payload, ok := bindPayload(c)
	if !ok {
		return
	}

	resp, err := s.scoringSvc.Score(c.Request.Context(), payload)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) SimulateDecision(c *gin.Context) {
	payload, ok := bindPayload(c)
	if !ok {
		return
	}

	resp, err := s.scoringSvc.SimulateDecision(c.Request.Context(), payload)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) SimulateRetention(c *gin.Context) {
	var req scoringdomain.RetentionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.scoringSvc.SimulateRetention(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
