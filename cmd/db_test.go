package cmd

import (
	"testing"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_migrationCount(t *testing.T) {
	t.Run("no args defaults to 0", func(t *testing.T) {
		count, err := migrationCount(nil)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("parses a valid count", func(t *testing.T) {
		count, err := migrationCount([]string{"3"})
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("rejects a non-numeric arg", func(t *testing.T) {
		_, err := migrationCount([]string{"not-a-number"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid [count] argument")
	})
}

func Test_migrationDirectionStr(t *testing.T) {
	assert.Equal(t, "up", migrationDirectionStr(migrate.Up))
	assert.Equal(t, "down", migrationDirectionStr(migrate.Down))
}
