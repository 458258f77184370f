package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptionsDSN(t *testing.T) {
	dsn := Options{User: "app", Pass: "secret", Host: "db", Port: "3306", Name: "cinesocial"}.DSN()

	assert.True(t, strings.HasPrefix(dsn, "app:secret@tcp(db:3306)/cinesocial?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestSchemaIsIdempotent(t *testing.T) {
	for _, stmt := range schema {
		assert.True(t, strings.HasPrefix(stmt, "CREATE TABLE IF NOT EXISTS "), stmt[:40])
	}
}
