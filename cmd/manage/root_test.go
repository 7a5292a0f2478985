package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useTempDatabase points the development config at a fresh SQLite file.
func useTempDatabase(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CI", "")
	t.Setenv("ENV", "development")
	t.Setenv("SECRETS_DIR", dir)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "foodgram.db"))
	t.Setenv("REDIS_URL", "")
	t.Setenv("REDIS_HOST", "")
	t.Setenv("S3_BUCKET_NAME", "")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootHelp(t *testing.T) {
	out, err := run(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "load-ingredients")
}

func TestLoadIngredientsIsIdempotent(t *testing.T) {
	dir := useTempDatabase(t)
	path := filepath.Join(dir, "ingredients.csv")
	require.NoError(t, os.WriteFile(path, []byte("flour,g\nmilk,ml\n"), 0o600))

	out, err := run(t, "load-ingredients", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 2 ingredients (0 skipped)")

	out, err = run(t, "load-ingredients", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 0 ingredients (2 skipped)")
}

func TestLoadTags(t *testing.T) {
	dir := useTempDatabase(t)
	path := filepath.Join(dir, "tags.json")
	data := `[{"name": "Breakfast", "color": "#e26c2d", "slug": "breakfast"}, {"name": "Dinner", "color": "#49B64E", "slug": "dinner"}]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	out, err := run(t, "load-tags", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 2 tags")
}

func TestCreateAdmin(t *testing.T) {
	useTempDatabase(t)

	out, err := run(t, "create-admin", "--email", "chef@example.com", "--username", "chef", "--password", "kitchen-secret")
	require.NoError(t, err)
	assert.Contains(t, out, `Created staff user "chef"`)

	_, err = run(t, "create-admin", "--email", "not-an-email", "--username", "chef2", "--password", "kitchen-secret")
	assert.Error(t, err)
}
