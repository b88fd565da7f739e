package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/railzwaylabs/seatbill/internal/audit/domain"
)

func (s *Service) Export(ctx context.Context, req domain.ExportRequest) (*domain.ExportResult, error) {
	format := domain.ExportFormat(strings.ToLower(strings.TrimSpace(string(req.Format))))
	if format == "" {
		format = domain.ExportFormatCSV
	}
	if format != domain.ExportFormatCSV && format != domain.ExportFormatJSON {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, req.Format)
	}
	if !req.Start.IsZero() && !req.End.IsZero() && !req.Start.Before(req.End) {
		return nil, domain.ErrInvalidRange
	}

	logs, err := s.repo.Range(ctx, s.db, req.Start, req.End, strings.TrimSpace(req.CustomerID))
	if err != nil {
		return nil, err
	}

	var data []byte
	if format == domain.ExportFormatCSV {
		data, err = formatCSV(logs)
	} else {
		data, err = formatJSON(logs)
	}
	if err != nil {
		return nil, err
	}

	return &domain.ExportResult{
		Data:     data,
		Checksum: checksum(data),
		Format:   format,
		Count:    len(logs),
		FileName: exportFileName(req, format),
	}, nil
}

var csvHeader = []string{
	"created_at",
	"customer_id",
	"customer_name",
	"period",
	"action",
	"actor",
	"status",
	"total_users",
	"total_charge",
	"segment_cost",
	"grand_total",
	"mismatches",
	"error",
}

func formatCSV(logs []domain.RunLog) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}

	for _, l := range logs {
		row := []string{
			l.CreatedAt.UTC().Format(time.RFC3339),
			l.CustomerID,
			l.CustomerName,
			l.Period,
			string(l.Action),
			l.Actor,
			string(l.Status),
			strconv.Itoa(l.TotalUsers),
			formatAmount(l.TotalCharge),
			formatAmount(l.SegmentCost),
			formatAmount(l.GrandTotal),
			strconv.Itoa(l.Mismatches),
			l.Error,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatJSON(logs []domain.RunLog) ([]byte, error) {
	if logs == nil {
		logs = []domain.RunLog{}
	}
	return json.MarshalIndent(logs, "", "  ")
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func exportFileName(req domain.ExportRequest, format domain.ExportFormat) string {
	parts := []string{"seatbill runs"}
	if id := strings.TrimSpace(req.CustomerID); id != "" {
		parts = append(parts, id)
	}
	if !req.Start.IsZero() {
		parts = append(parts, req.Start.UTC().Format("2006-01-02"))
	}
	if !req.End.IsZero() {
		parts = append(parts, req.End.UTC().Format("2006-01-02"))
	}
	return slug.Make(strings.Join(parts, " ")) + "." + string(format)
}
