package syncer_test

import (
	"context"
	"os"
	oe "os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// newRemote creates a bare repository whose main branch
// holds files, and returns its path.
func newRemote(tb testing.TB, files map[string]string) string {
	tb.Helper()

	root := tb.TempDir()
	work := filepath.Join(root, "work")
	bare := filepath.Join(root, "remote.git")

	require.NoError(tb, os.MkdirAll(work, 0o750))
	initGitRepo(tb, work)

	for rel, body := range files {
		writeFile(tb, work, rel, body)
	}

	gitCmd(tb, work, "add", "-A")
	gitCmd(tb, work, "commit", "--allow-empty", "-m", "seed")
	gitCmd(tb, root, "clone", "--bare", work, bare)

	return bare
}

// newSource returns a directory holding files.
func newSource(tb testing.TB, files map[string]string) string {
	tb.Helper()

	dir := tb.TempDir()

	for rel, body := range files {
		writeFile(tb, dir, rel, body)
	}

	return dir
}

// initGitRepo creates a git repository with one
// initial commit. Git hooks are disabled to avoid
// interference from pre-commit hooks.
func initGitRepo(tb testing.TB, dir string) {
	tb.Helper()

	cmds := [][]string{
		{"init", "-b", "main"},
		{
			"config",
			"user.email", "test@test.com",
		},
		{"config", "user.name", "Test"},
		{
			"config", "core.hooksPath",
			"/dev/null",
		},
		{"config", "commit.gpgsign", "false"},
		{
			"commit", "--allow-empty",
			"-m", "initial",
		},
	}

	for _, args := range cmds {
		gitCmd(tb, dir, args...)
	}
}

// gitCmd runs a git command in the given directory.
func gitCmd(
	tb testing.TB,
	dir string,
	args ...string,
) {
	tb.Helper()

	gitOut(tb, dir, args...)
}

// gitOut runs a git command and returns its trimmed
// output.
func gitOut(
	tb testing.TB,
	dir string,
	args ...string,
) string {
	tb.Helper()

	//nolint:gosec // test helper
	cmd := oe.CommandContext(
		context.Background(), "git", args...,
	)
	cmd.Dir = dir

	out, err := cmd.CombinedOutput()
	if err != nil {
		tb.Fatalf(
			"git %v failed: %s: %v",
			args, string(out), err,
		)
	}

	return strings.TrimSpace(string(out))
}

func writeFile(tb testing.TB, root string, rel string, body string) {
	tb.Helper()

	path := filepath.Join(root, rel)

	require.NoError(tb, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(tb, os.WriteFile(path, []byte(body), 0o600))
}
