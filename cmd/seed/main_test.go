package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayeshabutt275/MAD-Fall-25/pkg/storage/memstore"
)

func quiet() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestSeedMemorySnapshotFromFile(t *testing.T) {
	dir := t.TempDir()
	menu := filepath.Join(dir, "menu.yaml")
	require.NoError(t, os.WriteFile(menu, []byte(`foods:
  - name: Cola
    price: 120
    category: Drink
    image: cola.png
  - name: Brownie
    price: 350
    category: Dessert
    image: brownie.png
`), 0o644))
	snapshot := filepath.Join(dir, "store.json")

	require.NoError(t, run([]string{"-db-type", "memory", "-db-path", snapshot, "-file", menu}, quiet()))

	store, err := memstore.Open(snapshot)
	require.NoError(t, err)
	defer store.Close()
	foods, err := store.ListFoods(context.Background())
	require.NoError(t, err)
	require.Len(t, foods, 2)
	assert.Equal(t, "Cola", foods[0].Name)
}

func TestSeedDryRunRejectsBadMenu(t *testing.T) {
	menu := filepath.Join(t.TempDir(), "menu.yaml")
	require.NoError(t, os.WriteFile(menu, []byte("foods:\n  - name: Tea\n    price: 0\n    category: Drink\n"), 0o644))

	assert.Error(t, run([]string{"-dry-run", "-file", menu}, quiet()))
	assert.NoError(t, run([]string{"-dry-run"}, quiet()))
}
