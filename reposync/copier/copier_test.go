package copier_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/repo_sync/reposync/copier"
)

func TestCopy_file(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeFile(t, dir, "src/a.txt", "hello")
	dest := filepath.Join(dir, "dest", "nested", "a.txt")

	err := copier.Copy(src, dest, false, nil)

	require.NoError(t, err)
	assert.Equal(t, "hello", readFile(t, dest))
}

func TestCopy_file_overwrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeFile(t, dir, "src/a.txt", "new")
	dest := writeFile(t, dir, "dest/a.txt", "old")

	err := copier.Copy(src, dest, false, nil)

	require.NoError(t, err)
	assert.Equal(t, "new", readFile(t, dest))
}

func TestCopy_file_identical_is_untouched(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeFile(t, dir, "src/a.txt", "same")
	dest := writeFile(t, dir, "dest/a.txt", "same")

	past := time.Unix(1_000_000, 0)
	require.NoError(t, os.Chtimes(dest, past, past))

	err := copier.Copy(src, dest, false, nil)
	require.NoError(t, err)

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(past))
}

func TestCopy_file_preserves_mode(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeFile(t, dir, "src/run.sh", "#!/bin/sh\n")
	require.NoError(t, os.Chmod(src, 0o755))

	dest := filepath.Join(dir, "dest", "run.sh")

	require.NoError(t, copier.Copy(src, dest, false, nil))

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestCopy_file_excluded(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeFile(t, dir, "src/a.txt", "hello")
	dest := filepath.Join(dir, "dest", "a.txt")

	err := copier.Copy(src, dest, false, []string{src})

	require.NoError(t, err)
	assert.NoFileExists(t, dest)
}

func TestCopy_directory_mirrors_deletions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "src/keep.txt", "keep v2")
	writeFile(t, dir, "src/sub/inner.txt", "inner")
	writeFile(t, dir, "dest/keep.txt", "keep v1")
	writeFile(t, dir, "dest/stale.txt", "stale")
	writeFile(t, dir, "dest/sub/gone.txt", "gone")

	src := filepath.Join(dir, "src") + "/"
	dest := filepath.Join(dir, "dest")

	err := copier.Copy(src, dest, true, nil)

	require.NoError(t, err)
	assert.Equal(t, "keep v2", readFile(t, filepath.Join(dest, "keep.txt")))
	assert.Equal(
		t, "inner", readFile(t, filepath.Join(dest, "sub", "inner.txt")),
	)
	assert.NoFileExists(t, filepath.Join(dest, "stale.txt"))
	assert.NoFileExists(t, filepath.Join(dest, "sub", "gone.txt"))
}

func TestCopy_directory_keeps_git_dir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "src/a.txt", "a")
	head := writeFile(t, dir, "dest/.git/HEAD", "ref: refs/heads/main")

	err := copier.Copy(
		filepath.Join(dir, "src"), filepath.Join(dir, "dest"), true, nil,
	)

	require.NoError(t, err)
	assert.FileExists(t, head)
}

func TestCopy_directory_exclude(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeFile(t, dir, "src/a.txt", "a")
	writeFile(t, dir, "src/skip.txt", "skip")
	writeFile(t, dir, "src/private/key.pem", "key")
	kept := writeFile(t, dir, "dest/skip.txt", "local")

	dest := filepath.Join(dir, "dest")

	err := copier.Copy(src, dest, true, []string{
		filepath.Join(src, "skip.txt"),
		filepath.Join(src, "private"),
	})

	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dest, "a.txt"))
	assert.NoDirExists(t, filepath.Join(dest, "private"))
	// Excluded paths exist in source, so the local copy
	// is not treated as a deletion.
	assert.Equal(t, "local", readFile(t, kept))
}

func TestCopy_directory_symlink(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "src/target.txt", "t")
	require.NoError(t, os.Symlink(
		"target.txt", filepath.Join(dir, "src", "link.txt"),
	))

	dest := filepath.Join(dir, "dest")

	require.NoError(t, copier.Copy(
		filepath.Join(dir, "src"), dest, true, nil,
	))

	link, err := os.Readlink(filepath.Join(dest, "link.txt"))
	require.NoError(t, err)
	assert.Equal(t, "target.txt", link)
}

func TestCopy_file_replaces_symlinked_destination(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	outside := writeFile(t, dir, "outside.txt", "secret")
	src := writeFile(t, dir, "src/README.md", "synced")
	dest := filepath.Join(dir, "clone", "README.md")

	require.NoError(t, os.MkdirAll(filepath.Dir(dest), 0o750))
	require.NoError(t, os.Symlink("../outside.txt", dest))

	require.NoError(t, copier.Copy(src, dest, false, nil))

	assert.Equal(t, "secret", readFile(t, outside))

	info, err := os.Lstat(dest)
	require.NoError(t, err)
	assert.True(t, info.Mode().IsRegular())
	assert.Equal(t, "synced", readFile(t, dest))
}

func TestCopy_directory_replaces_symlinked_entries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	outside := filepath.Join(dir, "outside")
	writeFile(t, dir, "outside/a.txt", "secret")
	writeFile(t, dir, "outside/b.txt", "secret")
	writeFile(t, dir, "src/a.txt", "synced a")
	writeFile(t, dir, "src/sub/b.txt", "synced b")

	dest := filepath.Join(dir, "clone")
	require.NoError(t, os.MkdirAll(dest, 0o750))
	require.NoError(t, os.Symlink(
		filepath.Join(outside, "a.txt"), filepath.Join(dest, "a.txt"),
	))
	require.NoError(t, os.Symlink(outside, filepath.Join(dest, "sub")))

	require.NoError(t, copier.Copy(
		filepath.Join(dir, "src"), dest, true, nil,
	))

	assert.Equal(t, "secret", readFile(t, filepath.Join(outside, "a.txt")))
	assert.Equal(t, "secret", readFile(t, filepath.Join(outside, "b.txt")))
	assert.Equal(t, "synced a", readFile(t, filepath.Join(dest, "a.txt")))
	assert.Equal(t, "synced b", readFile(t, filepath.Join(dest, "sub", "b.txt")))

	info, err := os.Lstat(filepath.Join(dest, "sub"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCopy_missing_source(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	err := copier.Copy(
		filepath.Join(dir, "none.txt"),
		filepath.Join(dir, "out.txt"),
		false,
		nil,
	)

	assert.ErrorIs(t, err, os.ErrNotExist)
}

func writeFile(tb testing.TB, root string, rel string, body string) string {
	tb.Helper()

	path := filepath.Join(root, rel)

	require.NoError(tb, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(tb, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func readFile(tb testing.TB, path string) string {
	tb.Helper()

	data, err := os.ReadFile(path) //nolint:gosec // test file
	require.NoError(tb, err)

	return string(data)
}
