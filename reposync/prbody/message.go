package prbody

import "fmt"

// CommitMessage returns the subject of a per-file commit.
// existed tells whether dest was present before the copy.
func CommitMessage(dest string, source string, existed bool) string {
	if existed {
		return fmt.Sprintf(
			"Synced local '%s' with remote '%s'", dest, source,
		)
	}

	return fmt.Sprintf(
		"Created local '%s' from remote '%s'", dest, source,
	)
}

// PRMessage returns the HTML line listed in the pull
// request body for one synced rule.
func PRMessage(
	dest string,
	source string,
	existed bool,
	isDir bool,
) string {
	kind := ""
	if isDir {
		kind = "directory "
	}

	if existed {
		return fmt.Sprintf(
			"Synced local %s<code>%s</code> with remote %s<code>%s</code>",
			kind, dest, kind, source,
		)
	}

	copied := ""
	if isDir {
		copied = " and copied all sub files/folders"
	}

	return fmt.Sprintf(
		"Created local %s<code>%s</code>%s from remote %s<code>%s</code>",
		kind, dest, copied, kind, source,
	)
}

// DefaultCommitMessage is the subject of the batch commit.
func DefaultCommitMessage(sourceRepo string) string {
	return "Synced file(s) with " + sourceRepo
}

// WithCommitBody appends body to msg after a blank line.
// An empty body leaves msg unchanged.
func WithCommitBody(msg string, body string) string {
	if body == "" {
		return msg
	}

	return msg + "\n\n" + body
}
