package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func TestLoadCatalogs(t *testing.T) {
	base := writeFile(t, "base.json", `[{"id": "a", "name": "Old", "price": 10}, {"id": "b", "name": "B", "price": 20}]`)
	update := writeFile(t, "update.json", `{"products": [{"id": "a", "name": "New", "price": 12}, {"id": "c", "name": "C", "price": 5}]}`)

	products, err := loadCatalogs(context.Background(), []string{base, update})
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "New", products[0].Name)
	assert.Equal(t, "b", products[1].ID)
	assert.Equal(t, "c", products[2].ID)
}

func TestLoadCatalogs_Error(t *testing.T) {
	good := writeFile(t, "good.json", `[]`)
	_, err := loadCatalogs(context.Background(), []string{good, filepath.Join(t.TempDir(), "missing.json")})
	assert.ErrorContains(t, err, "missing.json")
}
