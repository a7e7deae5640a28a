package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectorSelection(t *testing.T) {
	_, err := Config{Driver: "sqlite"}.dialector()
	require.Error(t, err, "sqlite requires a path")

	d, err := Config{Driver: "sqlite", Path: "/tmp/test.db"}.dialector()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	d, err = Config{
		Driver: "postgres",
		Host:   "localhost",
		Port:   5432,
		User:   "strongbox",
		DBName: "strongbox",
	}.dialector()
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	_, err = Config{Driver: "mysql"}.dialector()
	assert.Error(t, err)
}
