package prbody

import (
	"strings"

	"github.com/valyala/fasttemplate"
)

// WarningBanner marks an open pull request whose branch
// is being force pushed by a running sync.
const WarningBanner = "⚠️ This PR is being automatically resynced ⚠️"

const serverURL = "https://github.com"

const bodyTemplate = `Synced local file(s) with [{{source}}]({{server}}/{{source}}).

{{changed}}---

This PR was created automatically by the repo_sync workflow run ` +
	`[#{{run_id}}]({{server}}/{{source}}/actions/runs/{{run_id}})`

// Modification records one synced file rule.
type Modification struct {
	Dest   string
	Source string
	// Message is the HTML line listed in the pull
	// request body. Empty for batch commits.
	Message string
}

// Body renders a pull request body crediting source and
// linking workflow run runID. changed blocks are inserted
// between the header and the footer.
func Body(source string, runID string, changed ...string) string {
	if runID == "" {
		runID = "0"
	}

	var blocks strings.Builder

	for _, c := range changed {
		if c = strings.TrimSpace(c); c == "" {
			continue
		}

		blocks.WriteString(c)
		blocks.WriteString("\n\n")
	}

	return fasttemplate.ExecuteString(
		bodyTemplate, "{{", "}}",
		map[string]any{
			"source":  source,
			"server":  serverURL,
			"run_id":  runID,
			"changed": blocks.String(),
		},
	)
}

// ChangedFiles renders mods as a collapsible HTML list.
// Modifications without a message are left out; with none
// left the result is empty.
func ChangedFiles(mods []Modification) string {
	var items strings.Builder

	for _, m := range mods {
		if m.Message == "" {
			continue
		}

		items.WriteString("<li>")
		items.WriteString(m.Message)
		items.WriteString("</li>")
	}

	if items.Len() == 0 {
		return ""
	}

	return "<details>\n<summary>Changed files</summary>\n<ul>\n" +
		items.String() +
		"\n</ul>\n</details>"
}

// WithWarning prepends WarningBanner to body. A body that
// already starts with the banner is returned unchanged.
func WithWarning(body string) string {
	if strings.HasPrefix(body, WarningBanner) {
		return body
	}

	return WarningBanner + "\n\n" + body
}

// WithoutWarning removes the first WarningBanner and the
// blank line following it.
func WithoutWarning(body string) string {
	before, after, found := strings.Cut(body, WarningBanner)
	if !found {
		return body
	}

	for range 2 {
		after = strings.TrimPrefix(after, "\n")
	}

	return before + after
}
