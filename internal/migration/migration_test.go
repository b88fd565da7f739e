package migration

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestLatestMigrationVersion(t *testing.T) {
	version, err := LatestMigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
}

func TestMigrationsChecksumIsDeterministic(t *testing.T) {
	first, err := MigrationsChecksum()
	require.NoError(t, err)
	second, err := MigrationsChecksum()
	require.NoError(t, err)
	assert.Len(t, first, 64)
	assert.Equal(t, first, second)
}

func TestParseMigrationVersion(t *testing.T) {
	v, ok := parseMigrationVersion("000012_add_index.up.sql")
	assert.True(t, ok)
	assert.Equal(t, uint(12), v)

	_, ok = parseMigrationVersion("init.up.sql")
	assert.False(t, ok)
}

func TestRunAutoMigratesSQLite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, Run(context.Background(), db, "sqlite", zap.NewNop()))
	assert.True(t, db.Migrator().HasTable("contracts"))
	assert.True(t, db.Migrator().HasTable("run_logs"))

	state, err := CurrentSchemaState(context.Background(), db)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "auto", state.SchemaVersion)
	assert.Equal(t, "sqlite", state.Driver)
	require.NotNil(t, state.Checksum)
	assert.Len(t, *state.Checksum, 64)

	// Running again updates the single row in place.
	require.NoError(t, Run(context.Background(), db, "sqlite", zap.NewNop()))
	var rows int64
	require.NoError(t, db.Model(&SchemaState{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestCurrentSchemaStateBeforeMigration(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&SchemaState{}))

	state, err := CurrentSchemaState(context.Background(), db)
	require.NoError(t, err)
	assert.Nil(t, state)
}
