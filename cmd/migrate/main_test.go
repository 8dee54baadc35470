package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRun_CreateAndList(t *testing.T) {
	dir := t.TempDir()
	log := zap.NewNop()

	require.NoError(t, run(context.Background(), log, dir, []string{"create", "add receipt index"}))
	_, err := os.Stat(filepath.Join(dir, "000001_add_receipt_index.up.sql"))
	assert.NoError(t, err)

	assert.NoError(t, run(context.Background(), log, dir, []string{"list"}))
}

func TestRun_Usage(t *testing.T) {
	err := run(context.Background(), zap.NewNop(), t.TempDir(), []string{"create"})
	assert.ErrorIs(t, err, errUsage)
}

func TestRun_SQLiteUp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	t.Setenv("HPL_DATABASE_DRIVER", "sqlite")
	t.Setenv("HPL_DATABASE_PATH", path)

	require.NoError(t, run(context.Background(), zap.NewNop(), "", []string{"up"}))
	_, err := os.Stat(path)
	assert.NoError(t, err)

	err = run(context.Background(), zap.NewNop(), "", []string{"down"})
	assert.Error(t, err)
}

func TestHasConfirm(t *testing.T) {
	assert.True(t, hasConfirm([]string{"--confirm"}))
	assert.False(t, hasConfirm(nil))
}
