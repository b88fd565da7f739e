package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Action string

const (
	ActionReconcile Action = "reconcile"
	ActionBatch     Action = "batch"
)

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

const SystemActor = "system"

var (
	ErrUnsupportedFormat = errors.New("unsupported_export_format")
	ErrInvalidRange      = errors.New("invalid_export_range")
)

// RunLog records one reconciliation run and its priced outcome.
type RunLog struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID   string       `gorm:"type:varchar(128);not null;index:idx_run_logs_customer_created,priority:1" json:"customer_id"`
	CustomerName string       `gorm:"type:text" json:"customer_name"`
	Period       string       `gorm:"type:varchar(7);not null;index" json:"period"`
	Action       Action       `gorm:"type:varchar(32);not null" json:"action"`
	Actor        string       `gorm:"type:varchar(128);not null" json:"actor"`
	Status       Status       `gorm:"type:varchar(32);not null" json:"status"`
	TotalUsers   int          `gorm:"not null;default:0" json:"total_users"`
	TotalCharge  float64      `gorm:"not null;default:0" json:"total_charge"`
	SegmentCost  float64      `gorm:"not null;default:0" json:"segment_cost"`
	GrandTotal   float64      `gorm:"not null;default:0" json:"grand_total"`
	Mismatches   int          `gorm:"not null;default:0" json:"mismatches"`
	Error        string       `gorm:"type:text" json:"error,omitempty"`
	CreatedAt    time.Time    `gorm:"not null;index:idx_run_logs_customer_created,priority:2" json:"created_at"`
}

func (RunLog) TableName() string { return "run_logs" }

type ListFilter struct {
	CustomerID string
	Period     string
	Limit      int
}

type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatJSON ExportFormat = "json"
)

// ExportRequest selects runs created in [Start, End). A zero bound is open.
type ExportRequest struct {
	Start      time.Time
	End        time.Time
	Format     ExportFormat
	CustomerID string
}

type ExportResult struct {
	Data     []byte
	Checksum string
	Format   ExportFormat
	Count    int
	FileName string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *RunLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]RunLog, error)
	Range(ctx context.Context, db *gorm.DB, start, end time.Time, customerID string) ([]RunLog, error)
	DeleteBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error)
}

type Service interface {
	Record(ctx context.Context, entry *RunLog) error
	List(ctx context.Context, filter ListFilter) ([]RunLog, error)
	Export(ctx context.Context, req ExportRequest) (*ExportResult, error)
	// Prune deletes runs created before cutoff and reports how many were removed.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}
