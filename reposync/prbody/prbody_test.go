package prbody_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/byte4ever/repo_sync/reposync/prbody"
)

func TestBody_without_changes(t *testing.T) {
	t.Parallel()

	got := prbody.Body("org/src", "42")

	assert.Equal(
		t,
		"Synced local file(s) with [org/src](https://github.com/org/src).\n"+
			"\n"+
			"---\n"+
			"\n"+
			"This PR was created automatically by the repo_sync "+
			"workflow run [#42](https://github.com/org/src/actions/runs/42)",
		got,
	)
}

func TestBody_lists_changed_files(t *testing.T) {
	t.Parallel()

	changed := prbody.ChangedFiles([]prbody.Modification{
		{
			Dest:    "README.md",
			Source:  "README.md",
			Message: prbody.PRMessage("README.md", "README.md", true, false),
		},
	})

	got := prbody.Body("org/src", "", changed)

	assert.Contains(
		t, got,
		"<li>Synced local <code>README.md</code> with remote "+
			"<code>README.md</code></li>",
	)
	assert.Contains(t, got, "</details>\n\n---")
	assert.Contains(t, got, "[#0]")
}

func TestChangedFiles(t *testing.T) {
	t.Parallel()

	got := prbody.ChangedFiles([]prbody.Modification{
		{Message: "one"},
		{Dest: "/tmp/batch"},
		{Message: "two"},
	})

	assert.Equal(
		t,
		"<details>\n<summary>Changed files</summary>\n<ul>\n"+
			"<li>one</li><li>two</li>\n</ul>\n</details>",
		got,
	)
}

func TestChangedFiles_empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, prbody.ChangedFiles(nil))
	assert.Empty(t, prbody.ChangedFiles([]prbody.Modification{{Dest: "x"}}))
}

func TestWithWarning_is_idempotent(t *testing.T) {
	t.Parallel()

	once := prbody.WithWarning("body")
	twice := prbody.WithWarning(once)

	assert.Equal(t, prbody.WarningBanner+"\n\nbody", once)
	assert.Equal(t, once, twice)
}

func TestWithoutWarning(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "banner removed",
			body: prbody.WarningBanner + "\n\nbody",
			want: "body",
		},
		{
			name: "no banner",
			body: "body",
			want: "body",
		},
		{
			name: "banner only",
			body: prbody.WarningBanner,
			want: "",
		},
		{
			name: "round trip",
			body: prbody.WithWarning("line one\n\nline two"),
			want: "line one\n\nline two",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, prbody.WithoutWarning(tt.body))
		})
	}
}
