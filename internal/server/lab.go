package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) PredictChurnLab(c *gin.Context) {
	payload, ok := bindPayload(c)
	if !ok {
		return
	}

	resp, err := s.scoringSvc.PredictChurn(c.Request.Context(), payload)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) PredictCLVLab(c *gin.Context) {
	payload, ok := bindPayload(c)
	if !ok {
		return
	}

	resp, err := s.scoringSvc.PredictCLV(c.Request.Context(), payload)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) CalculateLab(c *gin.Context) {
	payload, ok := bindPayload(c)
	if !ok {
		return
	}

	resp, err := s.scoringSvc.CalculateLab(c.Request.Context(), payload)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
