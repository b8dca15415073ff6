package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/byte4ever/repo_sync/reposync/config"
	"github.com/byte4ever/repo_sync/reposync/exec"
	"github.com/byte4ever/repo_sync/reposync/git"
	"github.com/byte4ever/repo_sync/reposync/prbody"
)

// Step outputs published for every pull request.
const (
	OutputPRNumber = "pull_request_number"
	OutputPRURL    = "pull_request_url"
)

// ErrNoForge is returned by Run when Config.Forge is nil.
var ErrNoForge = errors.New("forge must be set")

// Outputs publishes step outputs.
type Outputs interface {
	SetOutput(name string, value string) error
}

// Config holds everything a sync run needs.
type Config struct {
	Settings config.Settings
	Targets  []config.Target

	// Forge hosts the target repositories.
	Forge git.Forge

	// Runner executes git. Its secrets should include
	// the forge token.
	Runner exec.Runner

	// Outputs receives the pull request number and URL.
	// Nil discards them.
	Outputs Outputs

	// SourceDir is the checkout rule sources are read
	// from. Empty means the working directory.
	SourceDir string

	// Now defaults to time.Now.
	Now func() time.Time
}

// PullRequest is a pull request created or updated by
// the run.
type PullRequest struct {
	Repo   string
	Number int
	URL    string
}

// Result summarizes a run.
type Result struct {
	// Processed counts targets attempted.
	Processed int
	// Failed counts targets that stopped on an error.
	Failed       int
	PullRequests []PullRequest
}

// Run syncs every target in order. Errors on one target
// are logged and counted; Run only fails when it cannot
// start or the context is cancelled. TmpDir is removed
// on return unless SkipCleanup is set.
func Run(ctx context.Context, cfg Config) (Result, error) {
	const errCtx = "running sync"

	var res Result

	if cfg.Forge == nil {
		return res, fmt.Errorf("%s: %w", errCtx, ErrNoForge)
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	defer cleanup(cfg.Settings)

	for _, target := range cfg.Targets {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("%s: %w", errCtx, err)
		}

		name := target.Repo.UniqueName()

		slog.Info("repository info", "repo", name)

		res.Processed++

		pr, err := syncRepo(ctx, cfg, target)
		if err != nil {
			res.Failed++

			slog.Error("sync failed", "repo", name, "error", err)

			continue
		}

		if pr != nil {
			res.PullRequests = append(res.PullRequests, PullRequest{
				Repo:   name,
				Number: pr.Number,
				URL:    pr.URL,
			})
		}
	}

	return res, nil
}

// cleanup removes TmpDir. Clones keep the credentialed
// remote URL in .git/config, so this also runs when Run
// stops early.
func cleanup(st config.Settings) {
	if st.SkipCleanup {
		slog.Info("skipping cleanup", "tmp_dir", st.TmpDir)

		return
	}

	if err := os.RemoveAll(st.TmpDir); err != nil {
		slog.Warn("cleanup failed", "tmp_dir", st.TmpDir, "error", err)

		return
	}

	slog.Info("cleanup complete")
}

// syncRepo runs the whole workflow for one target. It
// returns the created or updated pull request, or nil
// when none was touched.
func syncRepo(
	ctx context.Context,
	cfg Config,
	target config.Target,
) (*git.PullRequest, error) {
	const errCtx = "syncing repository"

	st := cfg.Settings
	repo := target.Repo

	s, err := newSession(ctx, cfg, target)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	if !st.SkipCleanup {
		defer s.close()
	}

	if !st.SkipPR {
		if err := s.createPRBranch(ctx, cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", errCtx, err)
		}

		if st.OverwriteExistingPR {
			if err := s.findExistingPR(ctx, cfg.Forge); err != nil {
				return nil, fmt.Errorf("%s: %w", errCtx, err)
			}

			if s.ExistingPR != nil && !st.DryRun {
				slog.Info(
					"existing pull request found",
					"number", s.ExistingPR.Number,
				)

				if err := s.setPRWarning(ctx, cfg.Forge); err != nil {
					return nil, fmt.Errorf("%s: %w", errCtx, err)
				}
			}
		}
	}

	slog.Info("locally syncing file(s) between source and target repository")

	if err := s.syncFiles(ctx, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	if st.DryRun {
		status, err := s.Repo.Status(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errCtx, err)
		}

		slog.Warn("dry run, no changes will be pushed")
		slog.Debug("git status", "status", status)

		return nil, nil //nolint:nilnil // dry run touches no PR
	}

	changed, err := s.Repo.HasChanges(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	if !changed && len(s.Modified) == 0 {
		slog.Info("file(s) already up to date")

		if s.ExistingPR != nil {
			if err := s.removePRWarning(ctx, cfg.Forge); err != nil {
				return nil, fmt.Errorf("%s: %w", errCtx, err)
			}
		}

		return nil, nil //nolint:nilnil // nothing to push
	}

	if changed {
		slog.Debug("creating commit for remaining files")

		msg := prbody.WithCommitBody(
			prbody.DefaultCommitMessage(st.SourceRepository),
			st.CommitBody,
		)

		if err := s.Repo.Commit(ctx, msg); err != nil {
			return nil, fmt.Errorf("%s: %w", errCtx, err)
		}

		s.Modified = append(s.Modified, prbody.Modification{
			Dest: s.Repo.Dir,
		})
	}

	slog.Info("pushing changes to target repository")

	if err := s.Repo.Push(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	if st.SkipPR {
		return nil, nil //nolint:nilnil // pushed to the base branch
	}

	pr, err := s.createOrUpdatePR(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.Info(
		"pull request created/updated",
		"number", pr.Number,
		"url", pr.URL,
	)

	if cfg.Outputs != nil {
		if err := cfg.Outputs.SetOutput(
			OutputPRNumber, strconv.Itoa(pr.Number),
		); err != nil {
			return nil, fmt.Errorf("%s: %w", errCtx, err)
		}

		if err := cfg.Outputs.SetOutput(OutputPRURL, pr.URL); err != nil {
			return nil, fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	if len(st.PRLabels) > 0 {
		slog.Info("adding label(s) to pull request", "labels", st.PRLabels)

		if err := cfg.Forge.AddLabels(
			ctx, repo.User, repo.Name, pr.Number, st.PRLabels,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	if len(st.Assignees) > 0 {
		slog.Info(
			"adding assignee(s) to pull request",
			"assignees", st.Assignees,
		)

		if err := cfg.Forge.AddAssignees(
			ctx, repo.User, repo.Name, pr.Number, st.Assignees,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	return pr, nil
}

// sourcePath resolves a rule path against SourceDir.
func sourcePath(cfg Config, p string) string {
	if cfg.SourceDir == "" || filepath.IsAbs(p) {
		return p
	}

	return filepath.Join(cfg.SourceDir, p)
}
