package sql

import (
	"testing"

	"github.com/siherrmann/fmcover/helper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initDB(t *testing.T) *helper.Database {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err)
	return helper.NewTestDatabase(dbConfig)
}

func TestInit(t *testing.T) {
	db := initDB(t)

	err := Init(db.Instance)
	require.NoError(t, err)

	// Idempotent
	err = Init(db.Instance)
	assert.NoError(t, err)
}

func TestLoadEmbeddingsSql(t *testing.T) {
	db := initDB(t)
	require.NoError(t, Init(db.Instance))

	t.Run("Loads all functions", func(t *testing.T) {
		err := LoadEmbeddingsSql(db.Instance, true)
		require.NoError(t, err)

		assert.True(t, functionsExist(db.Instance, EmbeddingsFunctions))
	})

	t.Run("Skips reload when functions exist", func(t *testing.T) {
		err := LoadEmbeddingsSql(db.Instance, false)
		assert.NoError(t, err)
	})

	t.Run("functionsExist is false for unknown functions", func(t *testing.T) {
		assert.False(t, functionsExist(db.Instance, []string{"not_a_function"}))
	})
}
