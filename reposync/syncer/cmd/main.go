// Command repo_sync copies files from the repository it
// runs in to the target repositories listed in its sync
// config, and opens a pull request on each target.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v2"

	"github.com/byte4ever/repo_sync/reposync/actions"
	"github.com/byte4ever/repo_sync/reposync/config"
	"github.com/byte4ever/repo_sync/reposync/exec"
	"github.com/byte4ever/repo_sync/reposync/git"
	"github.com/byte4ever/repo_sync/reposync/git/github"
	"github.com/byte4ever/repo_sync/reposync/git/gitlab"
	"github.com/byte4ever/repo_sync/reposync/logging"
	"github.com/byte4ever/repo_sync/reposync/syncer"
)

var (
	// errUnknownForge is returned for a FORGE value other
	// than github or gitlab.
	errUnknownForge = errors.New("unknown forge")

	// errInvalidInput is returned for a boolean input
	// that does not parse.
	errInvalidInput = errors.New("invalid boolean input")
)

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)

	err := run(ctx, actions.FromEnv())

	stop()

	if err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmds *actions.Commands) error {
	app, err := newApp(
		cmds,
		func(c *cli.Context, st config.Settings) error {
			return runSync(c, cmds, st)
		},
	)
	if err != nil {
		return err
	}

	return app.RunContext(ctx, os.Args)
}

// inputDefaults turns step inputs into flag defaults, so
// command line flags still win over them.
type inputDefaults struct {
	cmds *actions.Commands
	err  error
}

// str returns the first non blank input among names, or
// def.
func (d *inputDefaults) str(def string, names ...string) string {
	if v, ok := d.cmds.Input(names...); ok {
		return v
	}

	return def
}

// boolean parses input name, keeping the first parse
// error for newApp to report.
func (d *inputDefaults) boolean(name string, def bool) bool {
	v, ok := d.cmds.Input(name)
	if !ok {
		return def
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		if d.err == nil {
			d.err = fmt.Errorf(
				"input %s: %q: %w", name, v, errInvalidInput,
			)
		}

		return def
	}

	return b
}

// newApp builds the command line. Flag defaults come
// from the step inputs in cmds; action receives the
// settings assembled from both.
//
//nolint:funlen // CLI flag setup is inherently long
func newApp(
	cmds *actions.Commands,
	action func(c *cli.Context, st config.Settings) error,
) (*cli.App, error) {
	const errCtx = "reading inputs"

	in := &inputDefaults{cmds: cmds}

	app := &cli.App{
		Name:  "repo_sync",
		Usage: "sync files from this repository to others",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "github-token",
				Usage:       "token used for the forge API and git pushes",
				Value:       in.str("", "GH_PAT", "GITHUB_TOKEN"),
				DefaultText: "$GH_PAT or $GITHUB_TOKEN",
			},
			&cli.StringFlag{
				Name:  "git-email",
				Usage: "commit author email, defaults to the token owner",
				Value: in.str("", "GIT_EMAIL"),
			},
			&cli.StringFlag{
				Name:  "git-username",
				Usage: "commit author name, defaults to the token owner",
				Value: in.str("", "GIT_USERNAME"),
			},
			&cli.StringFlag{
				Name:  "config-path",
				Usage: "sync config file",
				Value: in.str(config.DefaultConfigPath, "CONFIG_PATH"),
			},
			&cli.StringFlag{
				Name:  "commit-body",
				Usage: "text appended to every commit message",
				Value: in.str("", "COMMIT_BODY"),
			},
			&cli.StringFlag{
				Name:  "pr-title",
				Usage: "pull request title",
				Value: in.str("", "PR_TITLE"),
			},
			&cli.BoolFlag{
				Name:  "commit-each-file",
				Usage: "commit every rule on its own",
				Value: in.boolean("COMMIT_EACH_FILE", true),
			},
			&cli.StringFlag{
				Name:  "pr-labels",
				Usage: "labels added to pull requests, \"false\" for none",
				Value: in.str(config.DefaultLabel, "PR_LABELS"),
			},
			&cli.StringFlag{
				Name:  "target-branch",
				Usage: "accepted for compatibility, unused",
				Value: in.str("", "TARGET_BRANCH"),
			},
			&cli.StringFlag{
				Name:  "assignees",
				Usage: "users assigned to pull requests",
				Value: in.str("", "ASSIGNEES"),
			},
			&cli.StringFlag{
				Name:  "tmp-dir",
				Usage: "root of the target clones",
				Value: in.str("", "TMP_DIR"),
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "sync locally without pushing",
				Value: in.boolean("DRY_RUN", false),
			},
			&cli.BoolFlag{
				Name:  "skip-cleanup",
				Usage: "keep the clones after the run",
				Value: in.boolean("SKIP_CLEANUP", false),
			},
			&cli.BoolFlag{
				Name:  "overwrite-existing-pr",
				Usage: "reuse one branch and pull request per target",
				Value: in.boolean("OVERWRITE_EXISTING_PR", true),
			},
			&cli.StringFlag{
				Name:  "github-repository",
				Usage: "owner/name of the source repository",
				Value: in.str("", "GITHUB_REPOSITORY"),
			},
			&cli.BoolFlag{
				Name:  "skip-pr",
				Usage: "push straight to the base branch",
				Value: in.boolean("SKIP_PR", false),
			},
			&cli.StringFlag{
				Name:  "branch-prefix",
				Usage: "pull request branch prefix",
				Value: in.str(config.DefaultBranchPrefix, "BRANCH_PREFIX"),
			},
			&cli.StringFlag{
				Name:  "forge",
				Usage: "forge API [github|gitlab]",
				Value: in.str(config.DefaultForge, "FORGE"),
			},
			&cli.StringFlag{
				Name:  "forge-url",
				Usage: "forge API base URL for self-hosted instances",
				Value: in.str("", "FORGE_URL"),
			},
			&cli.StringFlag{
				Name:  "run-id",
				Usage: "workflow run linked from pull request bodies",
				Value: in.str("0", "GITHUB_RUN_ID"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level [debug|info|warn|error]",
				Value: in.str("info", "LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format [text|json]",
				Value: in.str(logging.FormatText, "LOG_FORMAT"),
			},
		},
		Action: func(c *cli.Context) error {
			return action(c, settings(c))
		},
	}

	if in.err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, in.err)
	}

	return app, nil
}

// settings assembles the process inputs from c.
func settings(c *cli.Context) config.Settings {
	return config.Settings{
		Token:               config.Token(c.String("github-token")),
		GitEmail:            c.String("git-email"),
		GitUsername:         c.String("git-username"),
		ConfigPath:          c.String("config-path"),
		CommitBody:          c.String("commit-body"),
		PRTitle:             c.String("pr-title"),
		CommitEachFile:      c.Bool("commit-each-file"),
		PRLabels:            config.ParseList(c.String("pr-labels")),
		TargetBranch:        c.String("target-branch"),
		Assignees:           config.ParseList(c.String("assignees")),
		TmpDir:              c.String("tmp-dir"),
		DryRun:              c.Bool("dry-run"),
		SkipCleanup:         c.Bool("skip-cleanup"),
		OverwriteExistingPR: c.Bool("overwrite-existing-pr"),
		SourceRepository:    c.String("github-repository"),
		SkipPR:              c.Bool("skip-pr"),
		BranchPrefix:        c.String("branch-prefix"),
		Forge:               c.String("forge"),
		ForgeURL:            c.String("forge-url"),
		RunID:               c.String("run-id"),
	}
}

// runSync is the command action.
func runSync(
	c *cli.Context,
	cmds *actions.Commands,
	st config.Settings,
) error {
	const errCtx = "running repo_sync"

	token := string(st.Token)

	logger, err := logging.New(logging.Options{
		Format:  c.String("log-format"),
		Level:   c.String("log-level"),
		Secrets: []string{token},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.SetDefault(logger)

	cmds.AddMask(token)

	if st.TmpDir == "" {
		st.TmpDir = config.DefaultTmpDir(time.Now())
	}

	st.TmpDir = config.ResolveTmpDir(st.TmpDir, time.Now)

	if err := st.Validate(); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	masked := st
	masked.Token = "***"

	if dump, err := json.Marshal(masked); err == nil {
		slog.Debug("settings", "json", string(dump))
	}

	targets, err := config.Load(st.ConfigPath, st.RepoHost())
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.Info("repositories parsed", "count", len(targets))

	forge, err := newForge(st)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	res, err := syncer.Run(c.Context, syncer.Config{
		Settings: st,
		Targets:  targets,
		Forge:    forge,
		Runner:   exec.Runner{Secrets: []string{token}},
		Outputs:  cmds,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	for _, pr := range res.PullRequests {
		slog.Info(
			"pull request",
			"repo", pr.Repo,
			"number", pr.Number,
			"url", pr.URL,
		)
	}

	slog.Info(
		"sync finished",
		"processed", res.Processed,
		"failed", res.Failed,
		"pull_requests", len(res.PullRequests),
	)

	return nil
}

// newForge returns the Forge selected by st.Forge.
func newForge(st config.Settings) (git.Forge, error) {
	const errCtx = "creating forge"

	switch st.Forge {
	case "", config.ForgeGitHub:
		p, err := github.NewProvider(github.Config{
			AccessToken: string(st.Token),
			APIURL:      st.ForgeURL,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errCtx, err)
		}

		return p, nil
	case config.ForgeGitLab:
		p, err := gitlab.NewProvider(gitlab.Config{
			BaseURL:     st.ForgeURL,
			AccessToken: string(st.Token),
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errCtx, err)
		}

		return p, nil
	default:
		return nil, fmt.Errorf(
			"%s: %q: %w", errCtx, st.Forge, errUnknownForge,
		)
	}
}
