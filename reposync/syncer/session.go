package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/byte4ever/repo_sync/reposync/config"
	"github.com/byte4ever/repo_sync/reposync/copier"
	"github.com/byte4ever/repo_sync/reposync/git"
	"github.com/byte4ever/repo_sync/reposync/prbody"
)

// Session is the state of one target while it is being
// synced. A new Session is built for every target.
type Session struct {
	Target config.Target
	Repo   *git.Repo

	// BaseBranch is the branch checked out after the
	// clone; pull requests target it.
	BaseBranch string
	// PRBranch is empty when pull requests are skipped.
	PRBranch string
	// ExistingPR is the open pull request from
	// PRBranch, if any.
	ExistingPR *git.PullRequest
	// Modified lists the rules committed so far.
	Modified []prbody.Modification
}

// newSession clones the target, sets the commit identity
// and records the base branch.
func newSession(
	ctx context.Context,
	cfg Config,
	target config.Target,
) (*Session, error) {
	const errCtx = "initializing session"

	repo := target.Repo
	dir := filepath.Join(cfg.Settings.TmpDir, repo.UniqueName())
	url := cfg.Forge.RemoteURL(repo.Host, repo.User, repo.Name)

	branch := ""
	if repo.HasBranch() {
		branch = repo.Branch
	}

	// git refuses to clone into a non empty directory
	// left by an earlier run with SkipCleanup.
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	gitRepo, err := git.Clone(ctx, cfg.Runner, url, dir, branch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	name, email, err := identity(ctx, cfg, repo.Host)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := gitRepo.SetIdentity(ctx, name, email); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	base, err := gitRepo.CurrentBranch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return &Session{
		Target:     target,
		Repo:       gitRepo,
		BaseBranch: base,
	}, nil
}

// close removes the clone.
func (s *Session) close() {
	if err := s.Repo.Clean(); err != nil {
		slog.Warn("removing clone failed", "dir", s.Repo.Dir, "error", err)
	}
}

// identity returns the configured commit author, filling
// gaps from the account behind the forge token.
func identity(
	ctx context.Context,
	cfg Config,
	host string,
) (string, string, error) {
	name := cfg.Settings.GitUsername
	email := cfg.Settings.GitEmail

	if name != "" && email != "" {
		return name, email, nil
	}

	user, err := cfg.Forge.AuthenticatedUser(ctx)
	if err != nil {
		return "", "", fmt.Errorf("resolving git identity: %w", err)
	}

	if name == "" {
		name = user.Login
	}

	if email == "" {
		email = user.Email
	}

	if email == "" {
		email = user.Login + "@users.noreply." + host
	}

	return name, email, nil
}

// prBranch returns the pull request branch for repo. A
// unix time suffix keeps branches apart when existing
// pull requests must not be overwritten.
func prBranch(
	st config.Settings,
	repo config.Repo,
	now time.Time,
) string {
	prefix := strings.ReplaceAll(
		st.BranchPrefix,
		config.SourceRepoPlaceholder,
		st.SourceRepoName(),
	)

	branch := path.Join(prefix, repo.Branch)

	if !st.OverwriteExistingPR {
		branch += "-" + strconv.FormatInt(now.Unix(), 10)
	}

	return branch
}

func (s *Session) createPRBranch(ctx context.Context, cfg Config) error {
	const errCtx = "creating pull request branch"

	s.PRBranch = prBranch(cfg.Settings, s.Target.Repo, cfg.Now())

	slog.Debug("creating pull request branch", "branch", s.PRBranch)

	if err := s.Repo.CreateBranch(ctx, s.PRBranch); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

func (s *Session) findExistingPR(ctx context.Context, forge git.Forge) error {
	const errCtx = "looking up existing pull request"

	repo := s.Target.Repo

	pr, err := forge.FindOpenPR(ctx, repo.User, repo.Name, s.PRBranch)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	s.ExistingPR = pr

	return nil
}

func (s *Session) setPRWarning(ctx context.Context, forge git.Forge) error {
	return s.updateBody(ctx, forge, prbody.WithWarning(s.ExistingPR.Body))
}

func (s *Session) removePRWarning(ctx context.Context, forge git.Forge) error {
	return s.updateBody(ctx, forge, prbody.WithoutWarning(s.ExistingPR.Body))
}

func (s *Session) updateBody(
	ctx context.Context,
	forge git.Forge,
	body string,
) error {
	const errCtx = "updating pull request body"

	if body == s.ExistingPR.Body {
		return nil
	}

	repo := s.Target.Repo

	pr, err := forge.UpdatePRBody(
		ctx, repo.User, repo.Name, s.ExistingPR.Number, body,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	s.ExistingPR = pr

	return nil
}

// syncFiles copies every rule of the target into the
// clone and stages it, committing each rule on its own
// when CommitEachFile is set.
func (s *Session) syncFiles(ctx context.Context, cfg Config) error {
	for _, file := range s.Target.Files {
		if err := s.syncFile(ctx, cfg, file); err != nil {
			return fmt.Errorf("syncing %s: %w", file.Source, err)
		}
	}

	return nil
}

func (s *Session) syncFile(
	ctx context.Context,
	cfg Config,
	file config.File,
) error {
	src := sourcePath(cfg, file.Source)

	info, err := os.Stat(src)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("source not found", "source", file.Source)

		return nil
	}

	if err != nil {
		return err
	}

	dest := filepath.Join(s.Repo.Dir, file.Dest)

	_, err = os.Lstat(dest)
	destExists := err == nil

	if destExists && !file.Replace {
		slog.Warn(
			"file(s) already exist(s) in destination and "+
				"'replace' option is set to false",
			"dest", file.Dest,
		)

		return nil
	}

	isDir := info.IsDir()
	if isDir {
		slog.Warn("source is directory", "source", file.Source)
	}

	exclude := make([]string, 0, len(file.Exclude))
	for _, ex := range file.Exclude {
		exclude = append(exclude, sourcePath(cfg, ex))
	}

	if err := copier.Copy(src, dest, isDir, exclude); err != nil {
		return err
	}

	// An excluded file source leaves nothing to stage.
	if _, err := os.Lstat(dest); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err := s.Repo.Add(ctx, file.Dest); err != nil {
		return err
	}

	if !cfg.Settings.CommitEachFile {
		return nil
	}

	changed, err := s.Repo.HasChanges(ctx)
	if err != nil {
		return err
	}

	if !changed {
		slog.Debug("file(s) already up to date", "dest", file.Dest)

		return nil
	}

	slog.Debug("creating commit for file(s)", "dest", file.Dest)

	msg := prbody.WithCommitBody(
		prbody.CommitMessage(file.Dest, file.Source, destExists),
		cfg.Settings.CommitBody,
	)

	if err := s.Repo.Commit(ctx, msg); err != nil {
		return err
	}

	s.Modified = append(s.Modified, prbody.Modification{
		Dest:    file.Dest,
		Source:  file.Source,
		Message: prbody.PRMessage(file.Dest, file.Source, destExists, isDir),
	})

	return nil
}

// createOrUpdatePR replaces the body of the existing pull
// request or opens a new one from PRBranch into
// BaseBranch.
func (s *Session) createOrUpdatePR(
	ctx context.Context,
	cfg Config,
) (*git.PullRequest, error) {
	const errCtx = "creating or updating pull request"

	st := cfg.Settings
	repo := s.Target.Repo

	var changed []string
	if st.CommitEachFile {
		changed = append(changed, prbody.ChangedFiles(s.Modified))
	}

	body := prbody.Body(st.SourceRepository, st.RunID, changed...)

	if s.ExistingPR != nil {
		slog.Info("overwriting existing pull request")

		pr, err := cfg.Forge.UpdatePRBody(
			ctx, repo.User, repo.Name, s.ExistingPR.Number, body,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errCtx, err)
		}

		s.ExistingPR = pr

		return pr, nil
	}

	slog.Info("creating new pull request")

	pr, err := cfg.Forge.CreatePR(ctx, repo.User, repo.Name, git.NewPR{
		Title: st.Title(),
		Body:  body,
		Head:  s.PRBranch,
		Base:  s.BaseBranch,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	s.ExistingPR = pr

	return pr, nil
}
