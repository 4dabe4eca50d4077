package postgres

import (
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const migrationsURL = "file://../../db/migrations"

// upMigrations читает все up-миграции по порядку и проверяет, что у каждой есть down.
func upMigrations(t *testing.T) []string {
	t.Helper()

	drv, err := source.Open(migrationsURL)
	require.NoError(t, err)
	defer drv.Close()

	var ups []string
	version, err := drv.First()
	require.NoError(t, err)
	for {
		up, _, err := drv.ReadUp(version)
		require.NoError(t, err, "version %d", version)
		body, err := io.ReadAll(up)
		up.Close()
		require.NoError(t, err)
		ups = append(ups, string(body))

		down, _, err := drv.ReadDown(version)
		require.NoError(t, err, "version %d has no down migration", version)
		down.Close()

		version, err = drv.Next(version)
		if errors.Is(err, os.ErrNotExist) {
			return ups
		}
		require.NoError(t, err)
	}
}

func TestMigrationsArePaired(t *testing.T) {
	assert.NotEmpty(t, upMigrations(t))
}

func TestCountersAreBigint(t *testing.T) {
	all := strings.Join(upMigrations(t), "\n")

	assert.Contains(t, all, "ALTER TABLE products ALTER COLUMN stock TYPE BIGINT")
	assert.Contains(t, all, "ALTER TABLE purchases ALTER COLUMN quantity TYPE BIGINT")
}
