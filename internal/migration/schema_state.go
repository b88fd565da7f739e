package migration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const schemaStateID = 1

// SchemaState is the single row describing the schema the process last applied.
type SchemaState struct {
	ID            int       `gorm:"primaryKey;autoIncrement:false"`
	SchemaVersion string    `gorm:"type:text;not null"`
	Checksum      *string   `gorm:"type:text"`
	Driver        string    `gorm:"type:varchar(32);not null"`
	AppliedAt     time.Time `gorm:"not null"`
}

func (SchemaState) TableName() string { return "schema_state" }

func recordSchemaState(ctx context.Context, conn *gorm.DB, driver, version, checksum string, at time.Time) error {
	state := SchemaState{
		ID:            schemaStateID,
		SchemaVersion: strings.TrimSpace(version),
		Driver:        driver,
		AppliedAt:     at.UTC(),
	}
	if state.SchemaVersion == "" {
		return fmt.Errorf("record schema state: version is required")
	}
	if c := strings.TrimSpace(checksum); c != "" {
		state.Checksum = &c
	}

	err := conn.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"schema_version", "checksum", "driver", "applied_at"}),
		}).
		Create(&state).Error
	if err != nil {
		return fmt.Errorf("record schema state: %w", err)
	}
	return nil
}

// CurrentSchemaState returns the recorded state, or nil before the first migration.
func CurrentSchemaState(ctx context.Context, conn *gorm.DB) (*SchemaState, error) {
	var state SchemaState
	err := conn.WithContext(ctx).Limit(1).Find(&state, schemaStateID).Error
	if err != nil {
		return nil, err
	}
	if state.ID == 0 {
		return nil, nil
	}
	return &state, nil
}
