package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureDatabaseSkipsKeyValueDSN(t *testing.T) {
	assert.NoError(t, ensureDatabase("host=localhost user=app dbname=shop sslmode=disable"))
	assert.NoError(t, ensureDatabase("postgres://app@localhost:5432"))
}
