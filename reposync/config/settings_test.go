package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/repo_sync/reposync/config"
)

func validSettings() config.Settings {
	return config.Settings{
		Token:            "tok",
		SourceRepository: "acme/source",
		TmpDir:           "tmp-1",
	}
}

func TestSettings_Validate(t *testing.T) {
	t.Parallel()

	st := validSettings()
	require.NoError(t, st.Validate())

	st.Token = ""
	assert.ErrorIs(t, st.Validate(), config.ErrMissingToken)

	st = validSettings()
	st.SourceRepository = "source"
	assert.ErrorIs(
		t, st.Validate(), config.ErrMissingSourceRepository,
	)

	st = validSettings()
	st.TmpDir = ""
	assert.ErrorIs(t, st.Validate(), config.ErrMissingTmpDir)
}

func TestSettings_SourceRepoName(t *testing.T) {
	t.Parallel()

	st := validSettings()

	assert.Equal(t, "source", st.SourceRepoName())
}

func TestSettings_Title(t *testing.T) {
	t.Parallel()

	st := validSettings()
	assert.Equal(t, "Synced file(s) with acme/source", st.Title())

	st.PRTitle = "chore: sync"
	assert.Equal(t, "chore: sync", st.Title())
}

func TestSettings_RepoHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		settings config.Settings
		want     string
	}{
		{
			name:     "github default",
			settings: config.Settings{Forge: config.ForgeGitHub},
			want:     "github.com",
		},
		{
			name:     "gitlab default",
			settings: config.Settings{Forge: config.ForgeGitLab},
			want:     "gitlab.com",
		},
		{
			name: "self hosted gitlab",
			settings: config.Settings{
				Forge:    config.ForgeGitLab,
				ForgeURL: "https://gitlab.example.com",
			},
			want: "gitlab.example.com",
		},
		{
			name: "github enterprise",
			settings: config.Settings{
				Forge:    config.ForgeGitHub,
				ForgeURL: "https://ghe.example.com/api/v3/",
			},
			want: "ghe.example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.settings.RepoHost())
		})
	}
}

func TestParseList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty", raw: "", want: nil},
		{name: "comma", raw: "a, b,c", want: []string{"a", "b", "c"}},
		{name: "newline", raw: "a\n\nb\n", want: []string{"a", "b"}},
		{name: "disabled", raw: "false", want: nil},
		{name: "single", raw: "sync", want: []string{"sync"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, config.ParseList(tt.raw))
		})
	}
}

func TestResolveTmpDir_unused_name(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "fresh")

	got := config.ResolveTmpDir(dir, time.Now)

	assert.Equal(t, dir, got)
}

func TestResolveTmpDir_rerolls_existing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	now := time.UnixMilli(42)

	got := config.ResolveTmpDir(dir, func() time.Time { return now })

	assert.Equal(t, "tmp-42", got)
}

func TestResolveTmpDir_rerolls_until_free(t *testing.T) {
	// Changes the working directory.
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.Mkdir("tmp-42", 0o750))

	now := time.UnixMilli(42)

	got := config.ResolveTmpDir(
		"tmp-42", func() time.Time { return now },
	)

	assert.Equal(t, "tmp-43", got)
}

func TestDefaultTmpDir(t *testing.T) {
	t.Parallel()

	assert.Equal(
		t, "tmp-1500", config.DefaultTmpDir(time.UnixMilli(1500)),
	)
}
