package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	pipelinedomain "github.com/railzwaylabs/seatbill/internal/pipeline/domain"
)

type batchSummaryRequest struct {
	CustomerIDs []string `json:"customer_ids"`
	Period      string   `json:"period"`
	Actor       string   `json:"actor"`
}

// Reconcile handles GET /api/reconcile/:customerId
func (s *Server) Reconcile(c *gin.Context) {
	req := pipelinedomain.RunRequest{
		CustomerID: c.Param("customerId"),
		Period:     strings.TrimSpace(c.Query("period")),
		Actor:      strings.TrimSpace(c.Query("actor")),
	}
	if raw := strings.TrimSpace(c.Query("rate")); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil || rate < 0 {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		req.UserRate = &rate
	}

	out, err := s.pipelineSvc.Run(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, out)
}

// BatchSummary handles POST /api/batch-summary
func (s *Server) BatchSummary(c *gin.Context) {
	var req batchSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError(err))
		return
	}

	summary, err := s.pipelineSvc.RunBatch(c.Request.Context(), pipelinedomain.BatchRequest{
		CustomerIDs: req.CustomerIDs,
		Period:      strings.TrimSpace(req.Period),
		Actor:       strings.TrimSpace(req.Actor),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, summary)
}
