package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/railzwaylabs/seatbill/internal/audit/domain"
)

const maxExportRange = 366 * 24 * time.Hour

func (s *Server) ListRuns(c *gin.Context) {
	filter := auditdomain.ListFilter{
		CustomerID: strings.TrimSpace(c.Query("customer_id")),
		Period:     strings.TrimSpace(c.Query("period")),
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		filter.Limit = limit
	}

	items, err := s.auditSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if items == nil {
		items = []auditdomain.RunLog{}
	}
	respondData(c, items)
}

// ExportRuns handles GET /api/runs/export. start and end are inclusive calendar days.
func (s *Server) ExportRuns(c *gin.Context) {
	start, ok := parseDay(c, "start")
	if !ok {
		return
	}
	end, ok := parseDay(c, "end")
	if !ok {
		return
	}
	if !end.IsZero() {
		end = end.Add(24 * time.Hour)
	}
	if !start.IsZero() && !end.IsZero() && end.Sub(start) > maxExportRange {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.auditSvc.Export(c.Request.Context(), auditdomain.ExportRequest{
		Start:      start,
		End:        end,
		Format:     auditdomain.ExportFormat(c.DefaultQuery("format", "csv")),
		CustomerID: c.Query("customer_id"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	contentType := "text/csv"
	if result.Format == auditdomain.ExportFormatJSON {
		contentType = "application/json"
	}
	c.Header("X-Export-Checksum", result.Checksum)
	c.Header("X-Export-Count", strconv.Itoa(result.Count))
	c.Header("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
	c.Data(http.StatusOK, contentType, result.Data)
}

func parseDay(c *gin.Context, key string) (time.Time, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return time.Time{}, false
	}
	return t, true
}
