package server

import (
	"github.com/gin-gonic/gin"
	contractdomain "github.com/railzwaylabs/seatbill/internal/contract/domain"
)

func (s *Server) ListContracts(c *gin.Context) {
	items, err := s.contractSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if items == nil {
		items = []contractdomain.Contract{}
	}
	respondData(c, items)
}

// GetContract returns the stored terms, or the defaults for an unknown customer.
func (s *Server) GetContract(c *gin.Context) {
	contract, err := s.contractSvc.Get(c.Request.Context(), c.Param("customerId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, contract)
}

// PutContract applies a partial update; the path wins over any body customer_id.
func (s *Server) PutContract(c *gin.Context) {
	var req contractdomain.UpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError(err))
		return
	}
	req.CustomerID = c.Param("customerId")

	contract, err := s.contractSvc.Upsert(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, contract)
}
