package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatementsSplitsSchema(t *testing.T) {
	stmts := Statements()
	require.Len(t, stmts, 6)
	for _, s := range stmts {
		assert.True(t, strings.HasPrefix(s, "CREATE TABLE IF NOT EXISTS"), s)
		assert.NotContains(t, s, "--")
	}
	assert.Contains(t, stmts[3], "reservations")
}

func TestDSN(t *testing.T) {
	dsn := Options{User: "app", Pass: "secret", Host: "db", Port: "3306", Name: "spacehire"}.DSN()
	assert.True(t, strings.HasPrefix(dsn, "app:secret@tcp(db:3306)/spacehire?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}
