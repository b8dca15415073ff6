package git

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/byte4ever/repo_sync/reposync/exec"
)

// Repo is a local clone of a target repository. Create
// with Clone, and call Clean when done.
type Repo struct {
	// Dir is the filesystem location of the clone.
	Dir string
	// RemoteURL is the credentialed URL used to clone
	// and push.
	RemoteURL string
	// Runner executes git and scrubs the token from its
	// logs.
	Runner exec.Runner
}

// Clone shallow-clones remoteURL into dir. An empty
// branch clones the remote default branch.
func Clone(
	ctx context.Context,
	runner exec.Runner,
	remoteURL string,
	dir string,
	branch string,
) (*Repo, error) {
	const errCtx = "cloning repository"

	slog.Debug("cloning", "dir", dir, "branch", branch)

	args := []string{"clone", "--depth", "1"}

	if branch != "" {
		args = append(args, "--branch", branch)
	}

	args = append(args, remoteURL, dir)

	if _, err := runner.Ex(ctx, "", "git", args...); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return &Repo{
		Dir:       dir,
		RemoteURL: remoteURL,
		Runner:    runner,
	}, nil
}

// Clean removes the local clone directory.
func (r *Repo) Clean() error {
	const errCtx = "cleaning repository"

	if err := os.RemoveAll(r.Dir); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// SetIdentity sets the local commit author.
func (r *Repo) SetIdentity(
	ctx context.Context,
	name string,
	email string,
) error {
	const errCtx = "setting git identity"

	slog.Debug(
		"setting git user",
		"email", email,
		"username", name,
	)

	if _, err := r.git(
		ctx, "config", "--local", "user.name", name,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if _, err := r.git(
		ctx, "config", "--local", "user.email", email,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// CurrentBranch returns the checked out branch name.
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	const errCtx = "reading current branch"

	out, err := r.git(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return out, nil
}

// CreateBranch creates branch from HEAD and checks it
// out.
func (r *Repo) CreateBranch(ctx context.Context, branch string) error {
	const errCtx = "creating branch"

	if _, err := r.git(ctx, "checkout", "-b", branch); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// Add force-stages path, ignoring .gitignore rules.
func (r *Repo) Add(ctx context.Context, path string) error {
	const errCtx = "staging"

	if _, err := r.git(ctx, "add", "-f", "--", path); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// HasChanges reports whether the working tree has staged,
// unstaged or untracked changes. Only stdout is parsed so
// git warnings do not count as changes.
func (r *Repo) HasChanges(ctx context.Context) (bool, error) {
	const errCtx = "checking repo status"

	out, err := r.Runner.Out(ctx, r.Dir, "git", "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	return len(ParseStatus(out)) != 0, nil
}

// Commit records the staged changes.
func (r *Repo) Commit(ctx context.Context, message string) error {
	const errCtx = "committing"

	if _, err := r.git(ctx, "commit", "-m", message); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// Status returns the human readable git status.
func (r *Repo) Status(ctx context.Context) (string, error) {
	const errCtx = "reading status"

	out, err := r.git(ctx, "status")
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return out, nil
}

// Push force-pushes the current branch to RemoteURL,
// replacing whatever the remote branch held.
func (r *Repo) Push(ctx context.Context) error {
	const errCtx = "pushing"

	if _, err := r.git(
		ctx, "push", r.RemoteURL, "HEAD", "--force",
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// LastCommitMessage returns the subject of the most
// recent commit touching path.
func (r *Repo) LastCommitMessage(
	ctx context.Context,
	path string,
) (string, error) {
	const errCtx = "reading last commit message"

	out, err := r.git(ctx, "log", "-1", "--pretty=%s", "--", path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return out, nil
}

func (r *Repo) git(ctx context.Context, args ...string) (string, error) {
	return r.Runner.Ex(ctx, r.Dir, "git", args...)
}
