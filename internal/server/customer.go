package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	dashboarddomain "github.com/smallbiznis/churnlens/internal/dashboard/domain"
	"github.com/smallbiznis/churnlens/pkg/db/pagination"
)

// LookupCustomer returns the stored CLV, live churn risk and decision of one
// customer.
func (s *Server) LookupCustomer(c *gin.Context) {
	resp, err := s.scoringSvc.LookupCustomer(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListCustomers(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Segment string `form:"segment"`
		Risk    string `form:"risk"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.dashboardSvc.ListCustomers(c.Request.Context(), dashboarddomain.ListCustomersRequest{
		Segment:    strings.TrimSpace(query.Segment),
		Risk:       strings.TrimSpace(query.Risk),
		Pagination: query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetCustomerByID(c *gin.Context) {
	resp, err := s.customerSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
